package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/regwatch/internal/subjects"
	"github.com/JaimeStill/regwatch/pkg/pagination"
)

func newSubjectsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List the subject vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := ctx.database()
			if err != nil {
				return err
			}

			system := subjects.New(db.Connection(), ctx.logger, cfg.API.Pagination)
			page := pagination.PageRequest{Page: 1, PageSize: cfg.API.Pagination.MaxPageSize}

			var all []subjects.Subject
			for {
				result, err := system.List(cmd.Context(), page, subjects.Filters{})
				if err != nil {
					return fmt.Errorf("list subjects: %w", err)
				}
				all = append(all, result.Data...)
				if !result.HasNext {
					break
				}
				page.Page++
			}

			if ctx.jsonOutput {
				return writeJSON(cmd, all)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSubjects(all))
			return nil
		},
	}
}
