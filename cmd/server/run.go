package main

import (
	"fmt"

	"github.com/GriffinCanCode/PenBox/backend/internal/providers/sandbox"
	"github.com/GriffinCanCode/PenBox/backend/internal/shared/id"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		timeout  = sandbox.DefaultConfig().Timeout
		asJSON   bool
		withDiff bool
	)

	cmd := &cobra.Command{
		Use:   "run <bundle.json>",
		Short: "Run a bundle's script headlessly and print its console",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := readBundle(cmd, args[0])
			if err != nil {
				return err
			}

			cfg := sandbox.DefaultConfig()
			cfg.Timeout = timeout
			pool, err := sandbox.NewPool(cfg, 1, nil)
			if err != nil {
				return err
			}
			defer pool.Close()

			result, err := pool.Run(cmd.Context(), bundle)
			if err != nil {
				return err
			}
			entries := result.Entries(id.NewMountID())

			if asJSON {
				out, err := sonic.ConfigStd.MarshalIndent(map[string]any{
					"entries":     entries,
					"changes":     result.Changes,
					"interrupted": result.Interrupted,
					"duration_ms": result.Duration.Milliseconds(),
				}, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(out))
				return nil
			}

			for _, e := range entries {
				cmd.Printf("[%s] %s\n", e.Level, e.Message)
			}
			if withDiff {
				for _, c := range result.Changes {
					cmd.Printf("~ %s %s %s=%q\n", c.Type, c.Selector, c.Property, c.Value)
				}
			}
			if result.Interrupted {
				return fmt.Errorf("script interrupted after %s", timeout)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.DurationVar(&timeout, "timeout", timeout, "wall-clock budget for the script, timers included")
	flags.BoolVar(&asJSON, "json", false, "print entries and DOM changes as JSON")
	flags.BoolVar(&withDiff, "changes", false, "also print DOM writes")
	return cmd
}
