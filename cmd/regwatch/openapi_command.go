package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/regwatch/internal/api"
	"github.com/JaimeStill/regwatch/pkg/openapi"
)

func newOpenAPICommand(ctx *commandContext) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Write the HTTP API description without starting the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			spec := api.Spec(cfg)
			if out == "" {
				return writeJSON(cmd, spec)
			}

			if err := openapi.WriteJSON(spec, out); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d paths to %s\n", len(spec.Paths), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "File to write instead of stdout")

	return cmd
}
