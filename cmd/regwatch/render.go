package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/regwatch/internal/subjects"
	"github.com/JaimeStill/regwatch/internal/workflow"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func statusText(status workflow.Status, colorize bool) string {
	if !colorize {
		return string(status)
	}
	switch status {
	case workflow.StatusSuccess:
		return text.FgGreen.Sprint(status)
	case workflow.StatusIrrelevant:
		return text.FgYellow.Sprint(status)
	case workflow.StatusError:
		return text.FgRed.Sprint(status)
	default:
		return string(status)
	}
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}

func renderResult(filename string, r workflow.Result, colorize bool) string {
	tw := newTable()
	tw.SetTitle(filename)
	tw.AppendRow(table.Row{"Status", statusText(r.Status, colorize)})
	tw.AppendRow(table.Row{"Relevance", fmt.Sprintf("%.2f", r.RelevanceScore)})

	if r.Status == workflow.StatusError {
		tw.AppendRow(table.Row{"Error", r.ErrorMessage})
	}
	if len(r.Reasons) > 0 {
		tw.AppendRow(table.Row{"Reasons", strings.Join(r.Reasons, "\n")})
	}
	if r.Theme != "" {
		tw.AppendRow(table.Row{"Theme", r.Theme})
	}
	if len(r.Subjects) > 0 {
		tw.AppendRow(table.Row{"Subjects", strings.Join(r.Subjects, "\n")})
	}
	if r.Summary != "" {
		tw.AppendRow(table.Row{"Summary", text.WrapSoft(r.Summary, 100)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft},
	})

	out := tw.Render()
	if len(r.KeyPoints) == 0 {
		return out
	}

	points := newTable()
	points.SetTitle("Key points")
	points.AppendHeader(table.Row{"Topic", "Description"})
	for _, kp := range r.KeyPoints {
		points.AppendRow(table.Row{kp.Topic, text.WrapSoft(kp.Description, 80)})
	}

	return out + "\n" + points.Render()
}

func renderSubjects(list []subjects.Subject) string {
	tw := newTable()
	tw.AppendHeader(table.Row{"Name", "Description"})
	for _, s := range list {
		tw.AppendRow(table.Row{s.Name, s.Description})
	}
	tw.AppendFooter(table.Row{"Total", len(list)})
	return tw.Render()
}
