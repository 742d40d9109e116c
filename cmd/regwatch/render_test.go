package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/regwatch/internal/subjects"
	"github.com/JaimeStill/regwatch/internal/workflow"
)

func TestRenderResult(t *testing.T) {
	r := workflow.Result{
		Status:         workflow.StatusSuccess,
		Summary:        "Amends the tariff rules for distributed generation.",
		Subjects:       []string{"Distributed Generation", "Tariffs and Prices"},
		Theme:          "Tariffs",
		RelevanceScore: 0.93,
		Reasons:        []string{"tariff changes"},
		KeyPoints: workflow.KeyPoints{
			{Topic: "Scope", Description: "Micro and mini generation."},
			{Topic: "Deadline", Description: "Effective in 2026."},
		},
	}

	out := renderResult("bill.pdf", r, false)

	for _, want := range []string{
		"bill.pdf", "success", "0.93", "Tariffs", "Distributed Generation",
		"Key points", "Scope", "Deadline",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	if strings.Index(out, "Scope") > strings.Index(out, "Deadline") {
		t.Error("key points out of order")
	}
}

func TestRenderResultError(t *testing.T) {
	r := workflow.Result{
		Status:       workflow.StatusError,
		ErrorMessage: "summarize: model unavailable",
	}

	out := renderResult("bill.pdf", r, false)
	if !strings.Contains(out, "summarize: model unavailable") {
		t.Errorf("output missing error message\n%s", out)
	}
	if strings.Contains(out, "Key points") {
		t.Error("error result should not render key points")
	}
}

func TestStatusText(t *testing.T) {
	if got := statusText(workflow.StatusIrrelevant, false); got != "irrelevant" {
		t.Errorf("plain status = %q", got)
	}
	if got := statusText(workflow.StatusError, true); !strings.Contains(got, "error") {
		t.Errorf("colored status = %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Error("buffer should never be colorized")
	}
}

func TestRenderSubjects(t *testing.T) {
	out := renderSubjects([]subjects.Subject{
		{ID: uuid.New(), Name: "ANEEL", Description: "National agency"},
		{ID: uuid.New(), Name: "Smart Grid"},
	})
	if !strings.Contains(out, "ANEEL") || !strings.Contains(out, "Smart Grid") {
		t.Errorf("output missing subjects\n%s", out)
	}
}

func TestBuildRequest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bill.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7"), 0o644); err != nil {
		t.Fatal(err)
	}

	parent := uuid.New()

	tests := []struct {
		name     string
		path     string
		parent   string
		wantKind workflow.Kind
		wantErr  bool
	}{
		{"primary", path, "", workflow.KindPrimary, false},
		{"secondary", path, parent.String(), workflow.KindSecondary, false},
		{"bad parent", path, "not-a-uuid", "", true},
		{"missing file", filepath.Join(dir, "missing.pdf"), "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := buildRequest(tt.path, tt.parent)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", req.Kind, tt.wantKind)
			}
			if req.Filename != "bill.pdf" || req.ContentType != "application/pdf" {
				t.Errorf("request = %s %s", req.Filename, req.ContentType)
			}
			if tt.wantKind == workflow.KindSecondary && (req.ParentID == nil || *req.ParentID != parent) {
				t.Errorf("parent = %v, want %s", req.ParentID, parent)
			}
		})
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"process", "subjects", "openapi"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("command %s not registered", name)
		}
	}
}
