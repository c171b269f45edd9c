package main

import (
	"fmt"
	"io"
	"os"

	"github.com/GriffinCanCode/PenBox/backend/internal/domain/preview"
	"github.com/GriffinCanCode/PenBox/backend/internal/infrastructure/server"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

const rootLongDescription = `PenBox serves pens: saved markup, styles and script rendered into a
sandboxed live preview, with the preview's console relayed back to the
editor.

Configuration comes from environment variables (PORT, STORE_BACKEND,
PREVIEW_DEBOUNCE, ...); flags on serve override them.`

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "penbox",
		Short:         "Pen sharing server with a sandboxed live preview",
		Long:          rootLongDescription,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(newServeCmd(), newRenderCmd(), newRunCmd())
	return root
}

// readBundle loads a source bundle from a JSON file, or stdin when path
// is "-"
func readBundle(cmd *cobra.Command, path string) (preview.SourceBundle, error) {
	var bundle preview.SourceBundle

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return bundle, err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return bundle, fmt.Errorf("read bundle: %w", err)
	}
	if err := sonic.Unmarshal(data, &bundle); err != nil {
		return bundle, fmt.Errorf("decode bundle %s: %w", path, err)
	}
	if err := bundle.Validate(); err != nil {
		return bundle, fmt.Errorf("invalid bundle: %w", err)
	}
	return bundle, nil
}
