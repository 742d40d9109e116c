package main

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/regwatch/internal/api"
	"github.com/JaimeStill/regwatch/internal/documents"
	"github.com/JaimeStill/regwatch/internal/prompts"
	"github.com/JaimeStill/regwatch/internal/subjects"
	"github.com/JaimeStill/regwatch/internal/workflow"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var parentFlag string

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Run the analysis workflow on a local file without storing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			req, err := buildRequest(args[0], parentFlag)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := ctx.database()
			if err != nil {
				return err
			}
			gen, err := ctx.model(cmd.Context())
			if err != nil {
				return err
			}

			conn := db.Connection()
			engine := api.NewEngine(
				cfg,
				gen,
				prompts.New(conn, ctx.logger, cfg.API.Pagination),
				documents.NewStore(conn, cfg.API.Pagination),
				subjects.New(conn, ctx.logger, cfg.API.Pagination),
				ctx.logger,
			)

			result := engine.ProcessDocument(cmd.Context(), req)

			if ctx.jsonOutput {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderResult(req.Filename, result, shouldColorize(cmd.OutOrStdout())))
			}

			if result.Status == workflow.StatusError {
				return fmt.Errorf("process %s: %w", req.Filename, result.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&parentFlag, "parent", "", "Primary document ID; processes the file as a secondary document")

	return cmd
}

func buildRequest(path, parent string) (workflow.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return workflow.Request{}, fmt.Errorf("read %s: %w", path, err)
	}

	req := workflow.Request{
		Data:        data,
		Filename:    filepath.Base(path),
		ContentType: contentTypeOf(path, data),
		Kind:        workflow.KindPrimary,
	}

	if parent = strings.TrimSpace(parent); parent != "" {
		id, err := uuid.Parse(parent)
		if err != nil {
			return workflow.Request{}, fmt.Errorf("invalid --parent %q: %w", parent, err)
		}
		req.Kind = workflow.KindSecondary
		req.ParentID = &id
	}

	return req, nil
}

func contentTypeOf(path string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			return mediaType
		}
	}
	ct := http.DetectContentType(data)
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		return mediaType
	}
	return ct
}
