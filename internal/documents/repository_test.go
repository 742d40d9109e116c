package documents_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/regwatch/internal/documents"
	"github.com/JaimeStill/regwatch/internal/workflow"
	"github.com/JaimeStill/regwatch/pkg/pagination"
	"github.com/JaimeStill/regwatch/pkg/vectorindex"
)

type harness struct {
	store  *fakeStore
	engine *fakeProcessor
	blobs  *fakeBlobs
	index  *fakeIndex
	sys    documents.System
}

func newHarness(result workflow.Result) *harness {
	h := &harness{
		store:  newFakeStore(),
		engine: &fakeProcessor{result: result},
		blobs:  newFakeBlobs(),
		index:  &fakeIndex{},
	}
	h.sys = documents.New(
		h.store, h.engine, h.blobs, h.index,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
	return h
}

func successResult() workflow.Result {
	return workflow.Result{
		Status:         workflow.StatusSuccess,
		Summary:        "Bill sets new transmission tariffs.",
		Subjects:       []string{"Tariffs", "Transmission"},
		Theme:          "Transmission tariffs",
		KeyPoints:      workflow.KeyPoints{{Topic: "Tariffs", Description: "Raised 5%"}},
		RelevanceScore: 0.92,
		Reasons:        []string{},
	}
}

func primaryCommand() documents.PrimaryCommand {
	return documents.PrimaryCommand{
		File: documents.File{
			Data:        []byte("%PDF-1.7 bill"),
			Filename:    "bill 1234.pdf",
			ContentType: "application/pdf",
		},
		Details: documents.Details{
			DocumentType:   "PL",
			DocumentName:   "PL 1234/2024",
			DocumentNumber: 1234,
			DocumentYear:   2024,
			PresentedBy:    "Energy Committee",
			PresentedAt:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func seedPrimary(h *harness) documents.Primary {
	p := documents.Primary{
		ID:             uuid.New(),
		StorageKey:     "primary/seed/bill.pdf",
		CollectionName: "PL_seed",
		Details:        documents.Details{DocumentName: "seed bill"},
		Analysis:       documents.Analysis{Summary: "seed summary"},
	}
	h.store.primaries[p.ID] = p
	return p
}

func TestCreatePrimarySuccess(t *testing.T) {
	h := newHarness(successResult())

	out, err := h.sys.CreatePrimary(context.Background(), primaryCommand())
	if err != nil {
		t.Fatalf("CreatePrimary() error: %v", err)
	}

	if out.DocumentID == nil || out.Status != workflow.StatusSuccess {
		t.Fatalf("outcome = %+v", out)
	}
	if out.ChunksIndexed != 3 {
		t.Errorf("ChunksIndexed = %d, want 3", out.ChunksIndexed)
	}

	row, ok := h.store.primaries[*out.DocumentID]
	if !ok {
		t.Fatal("primary row not committed")
	}
	if row.CollectionName != "PL_PL 1234/2024" {
		t.Errorf("CollectionName = %q", row.CollectionName)
	}
	if len(row.Subjects) != 2 || row.Subjects[0].Name != "Tariffs" {
		t.Errorf("Subjects = %+v", row.Subjects)
	}

	if len(h.index.indexed) != 1 {
		t.Fatalf("index calls = %d, want 1", len(h.index.indexed))
	}
	call := h.index.indexed[0]
	if call.text != successResult().Summary {
		t.Errorf("indexed text = %q, want summary", call.text)
	}
	if call.meta.DocID != *out.DocumentID || call.meta.HierarchyLevel != 0 || call.meta.ParentID != nil {
		t.Errorf("metadata = %+v", call.meta)
	}

	if _, ok := h.blobs.objects[row.StorageKey]; !ok {
		t.Errorf("blob %q not uploaded", row.StorageKey)
	}
	if !strings.HasPrefix(row.StorageKey, "primary/"+out.DocumentID.String()+"/") {
		t.Errorf("StorageKey = %q", row.StorageKey)
	}

	if got := h.engine.requests[0].Kind; got != workflow.KindPrimary {
		t.Errorf("workflow kind = %q", got)
	}
}

func TestCreatePrimaryIrrelevant(t *testing.T) {
	tests := []struct {
		name       string
		reasons    []string
		wantReason string
	}{
		{"classifier reason", []string{"sports legislation"}, "sports legislation"},
		{"no reason", nil, workflow.DefaultIrrelevantReason},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(workflow.Result{
				Status:         workflow.StatusIrrelevant,
				RelevanceScore: 0.12,
				Reasons:        tt.reasons,
			})

			out, err := h.sys.CreatePrimary(context.Background(), primaryCommand())
			if err != nil {
				t.Fatalf("CreatePrimary() error: %v", err)
			}

			if out.Status != workflow.StatusIrrelevant || out.DocumentID != nil {
				t.Errorf("outcome = %+v", out)
			}
			if out.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", out.Reason, tt.wantReason)
			}
			if out.RelevanceScore != 0.12 || out.Message == "" {
				t.Errorf("outcome = %+v", out)
			}
			if len(h.store.primaries) != 0 || len(h.blobs.objects) != 0 || len(h.index.indexed) != 0 {
				t.Error("irrelevant document was persisted")
			}
		})
	}
}

func TestCreatePrimaryWorkflowError(t *testing.T) {
	h := newHarness(workflow.Result{
		Status:       workflow.StatusError,
		ErrorMessage: "summarization failed: quota",
		Err:          workflow.ErrSummarization,
	})

	_, err := h.sys.CreatePrimary(context.Background(), primaryCommand())
	if !errors.Is(err, documents.ErrProcessing) {
		t.Fatalf("error = %v, want ErrProcessing", err)
	}
	if !errors.Is(err, workflow.ErrSummarization) {
		t.Errorf("error %v lost the step sentinel", err)
	}
	if documents.MapHTTPStatus(err) != 422 {
		t.Errorf("status = %d, want 422", documents.MapHTTPStatus(err))
	}
	if len(h.blobs.objects) != 0 || h.store.commits != 0 {
		t.Error("failed document was persisted")
	}
}

func TestCreatePrimaryIndexFailureCompensates(t *testing.T) {
	h := newHarness(successResult())
	h.index.indexErr = vectorindex.ErrIndex

	_, err := h.sys.CreatePrimary(context.Background(), primaryCommand())
	if !errors.Is(err, vectorindex.ErrIndex) {
		t.Fatalf("error = %v, want ErrIndex", err)
	}
	if documents.MapHTTPStatus(err) != 500 {
		t.Errorf("status = %d, want 500", documents.MapHTTPStatus(err))
	}

	if h.store.rollbacks != 1 || h.store.commits != 0 {
		t.Errorf("rollbacks = %d commits = %d", h.store.rollbacks, h.store.commits)
	}
	if len(h.store.primaries) != 0 {
		t.Error("primary row survived rollback")
	}
	if len(h.index.deleted) != 1 || h.index.deleted[0] != h.index.indexed[0].meta.DocID {
		t.Errorf("index cleanup = %v", h.index.deleted)
	}
	if len(h.blobs.objects) != 0 || len(h.blobs.deleted) != 1 {
		t.Errorf("blob cleanup: objects=%v deleted=%v", h.blobs.objects, h.blobs.deleted)
	}
}

func TestCreatePrimaryCleanupFailureKeepsOriginalError(t *testing.T) {
	h := newHarness(successResult())
	h.index.indexErr = vectorindex.ErrIndex
	h.index.deleteErr = errBoom
	h.blobs.deleteErr = errBoom

	_, err := h.sys.CreatePrimary(context.Background(), primaryCommand())
	if !errors.Is(err, vectorindex.ErrIndex) {
		t.Fatalf("error = %v, want ErrIndex", err)
	}
	if errors.Is(err, errBoom) {
		t.Error("cleanup error masked the original error")
	}
}

func TestCreatePrimaryInsertFailure(t *testing.T) {
	tests := []struct {
		name      string
		insertErr error
		want      error
		status    int
	}{
		{"duplicate", documents.ErrDuplicate, documents.ErrDuplicate, 409},
		{"database", errBoom, documents.ErrPersistence, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(successResult())
			h.store.insertErr = tt.insertErr

			_, err := h.sys.CreatePrimary(context.Background(), primaryCommand())
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if got := documents.MapHTTPStatus(err); got != tt.status {
				t.Errorf("status = %d, want %d", got, tt.status)
			}
			if len(h.index.indexed) != 0 {
				t.Error("index written after failed insert")
			}
			if len(h.blobs.objects) != 0 {
				t.Error("blob not cleaned up")
			}
		})
	}
}

func TestCreatePrimaryUploadFailure(t *testing.T) {
	h := newHarness(successResult())
	h.blobs.uploadErr = errBoom

	_, err := h.sys.CreatePrimary(context.Background(), primaryCommand())
	if !errors.Is(err, documents.ErrPersistence) {
		t.Fatalf("error = %v, want ErrPersistence", err)
	}
	if h.store.commits+h.store.rollbacks != 0 {
		t.Error("transaction started after failed upload")
	}
}

func TestCreateSecondary(t *testing.T) {
	t.Run("missing primary checked before workflow", func(t *testing.T) {
		h := newHarness(successResult())
		cmd := documents.SecondaryCommand{File: primaryCommand().File, PrimaryID: uuid.New()}

		_, err := h.sys.CreateSecondary(context.Background(), cmd)
		if !errors.Is(err, documents.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
		if len(h.engine.requests) != 0 {
			t.Error("workflow ran for a missing primary")
		}
	})

	t.Run("uses primary collection", func(t *testing.T) {
		h := newHarness(successResult())
		p := seedPrimary(h)

		cmd := documents.SecondaryCommand{
			File:      primaryCommand().File,
			Details:   documents.Details{DocumentType: "EMC", DocumentName: "Amendment 1"},
			PrimaryID: p.ID,
			Role:      "Deputy",
		}

		out, err := h.sys.CreateSecondary(context.Background(), cmd)
		if err != nil {
			t.Fatalf("CreateSecondary() error: %v", err)
		}
		if out.PrimaryDocument != "seed bill" {
			t.Errorf("PrimaryDocument = %q", out.PrimaryDocument)
		}

		req := h.engine.requests[0]
		if req.Kind != workflow.KindSecondary || req.ParentID == nil || *req.ParentID != p.ID {
			t.Errorf("workflow request = %+v", req)
		}

		call := h.index.indexed[0]
		if call.collection != p.CollectionName {
			t.Errorf("collection = %q, want %q", call.collection, p.CollectionName)
		}
		if call.meta.HierarchyLevel != 1 || call.meta.ParentID == nil || *call.meta.ParentID != p.ID {
			t.Errorf("metadata = %+v", call.meta)
		}

		sec := h.store.secondaries[*out.DocumentID]
		if sec.PrimaryID != p.ID || sec.CollectionName != p.CollectionName {
			t.Errorf("secondary row = %+v", sec)
		}
	})

	t.Run("several secondaries share the primary collection", func(t *testing.T) {
		h := newHarness(successResult())
		p := seedPrimary(h)

		var ids []uuid.UUID
		for _, name := range []string{"Amendment 1", "Amendment 2", "Amendment 3"} {
			out, err := h.sys.CreateSecondary(context.Background(), documents.SecondaryCommand{
				File:      primaryCommand().File,
				Details:   documents.Details{DocumentType: "EMC", DocumentName: name},
				PrimaryID: p.ID,
			})
			if err != nil {
				t.Fatalf("CreateSecondary(%s) error: %v", name, err)
			}
			ids = append(ids, *out.DocumentID)
		}

		if len(h.store.secondaries) != len(ids) {
			t.Fatalf("stored %d secondaries, want %d", len(h.store.secondaries), len(ids))
		}
		for _, id := range ids {
			if sec := h.store.secondaries[id]; sec.CollectionName != p.CollectionName {
				t.Errorf("secondary %s collection = %q, want %q", id, sec.CollectionName, p.CollectionName)
			}
		}
	})

	t.Run("irrelevant names the primary", func(t *testing.T) {
		h := newHarness(workflow.Result{Status: workflow.StatusIrrelevant, Reasons: []string{"off topic"}})
		p := seedPrimary(h)

		out, err := h.sys.CreateSecondary(context.Background(), documents.SecondaryCommand{PrimaryID: p.ID})
		if err != nil {
			t.Fatalf("CreateSecondary() error: %v", err)
		}
		if out.Status != workflow.StatusIrrelevant || out.PrimaryDocument != "seed bill" {
			t.Errorf("outcome = %+v", out)
		}
	})
}

func TestDeletePrimary(t *testing.T) {
	h := newHarness(successResult())
	p := seedPrimary(h)
	sec := documents.Secondary{
		ID:             uuid.New(),
		PrimaryID:      p.ID,
		StorageKey:     "secondary/x/amendment.pdf",
		CollectionName: p.CollectionName,
	}
	h.store.secondaries[sec.ID] = sec
	h.index.deleteErr = errBoom

	if err := h.sys.DeletePrimary(context.Background(), p.ID); err != nil {
		t.Fatalf("DeletePrimary() error: %v", err)
	}

	if len(h.store.primaries) != 0 || len(h.store.secondaries) != 0 {
		t.Error("rows not deleted")
	}
	if len(h.index.deleted) != 2 {
		t.Errorf("index deletes = %d, want 2", len(h.index.deleted))
	}
	if len(h.blobs.deleted) != 2 {
		t.Errorf("blob deletes = %v", h.blobs.deleted)
	}

	if err := h.sys.DeletePrimary(context.Background(), p.ID); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestDeleteSecondary(t *testing.T) {
	h := newHarness(successResult())
	p := seedPrimary(h)
	sec := documents.Secondary{ID: uuid.New(), PrimaryID: p.ID, StorageKey: "secondary/y/a.pdf", CollectionName: p.CollectionName}
	h.store.secondaries[sec.ID] = sec

	if err := h.sys.DeleteSecondary(context.Background(), sec.ID); err != nil {
		t.Fatalf("DeleteSecondary() error: %v", err)
	}
	if _, ok := h.store.secondaries[sec.ID]; ok {
		t.Error("secondary not deleted")
	}
	if _, ok := h.store.primaries[p.ID]; !ok {
		t.Error("primary removed with secondary")
	}
	if len(h.index.deleted) != 1 || h.index.deleted[0] != sec.ID {
		t.Errorf("index deletes = %v", h.index.deleted)
	}
}

func TestSearchUsesPrimaryCollection(t *testing.T) {
	h := newHarness(successResult())
	p := seedPrimary(h)
	h.index.matches = []vectorindex.Match{{Content: "chunk"}}

	got, err := h.sys.Search(context.Background(), p.ID, "tariffs", 3)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(got) != 1 || h.index.searched[0] != p.CollectionName {
		t.Errorf("Search() = %v over %v", got, h.index.searched)
	}

	if _, err := h.sys.Search(context.Background(), uuid.New(), "x", 3); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("missing primary error = %v", err)
	}
}

func TestFindPrimaryIncludesSecondaries(t *testing.T) {
	h := newHarness(successResult())
	p := seedPrimary(h)
	h.store.secondaries[uuid.New()] = documents.Secondary{ID: uuid.New(), PrimaryID: p.ID}

	got, err := h.sys.FindPrimary(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("FindPrimary() error: %v", err)
	}
	if got.ID != p.ID || len(got.Secondaries) != 1 {
		t.Errorf("FindPrimary() = %+v", got)
	}
}

func TestParentSummary(t *testing.T) {
	h := newHarness(successResult())
	p := seedPrimary(h)

	got, err := h.sys.ParentSummary(context.Background(), p.ID)
	if err != nil || got != "seed summary" {
		t.Errorf("ParentSummary() = %q, %v", got, err)
	}

	if _, err := h.sys.ParentSummary(context.Background(), uuid.New()); !errors.Is(err, workflow.ErrParentNotFound) {
		t.Errorf("missing parent error = %v", err)
	}
}

func TestCollectionName(t *testing.T) {
	if got := documents.CollectionName("PL", "1234/2024"); got != "PL_1234/2024" {
		t.Errorf("CollectionName() = %q", got)
	}
}
