package main

import (
	"github.com/GriffinCanCode/PenBox/backend/internal/domain/preview"
	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "render <bundle.json>",
		Short: "Print the preview document for a source bundle",
		Long: `Render assembles the preview document for a bundle of
{"markup", "styles", "script"} and prints it. Use "-" to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := readBundle(cmd, args[0])
			if err != nil {
				return err
			}

			var opts []preview.AssembleOption
			if title != "" {
				opts = append(opts, preview.WithTitle(title))
			}
			doc, err := preview.Render(bundle, opts...)
			if err != nil {
				return err
			}
			cmd.Print(doc.HTML)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "document title")
	return cmd
}
