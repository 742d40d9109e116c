package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/regwatch/internal/documents"
	"github.com/JaimeStill/regwatch/internal/workflow"
	"github.com/JaimeStill/regwatch/pkg/pagination"
	"github.com/JaimeStill/regwatch/pkg/vectorindex"
)

type mockSystem struct {
	documents.System

	listFn            func(ctx context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Primary], error)
	findFn            func(ctx context.Context, id uuid.UUID) (*documents.PrimaryDetail, error)
	createPrimaryFn   func(ctx context.Context, cmd documents.PrimaryCommand) (*documents.Outcome, error)
	createSecondaryFn func(ctx context.Context, cmd documents.SecondaryCommand) (*documents.Outcome, error)
	deleteFn          func(ctx context.Context, id uuid.UUID) error
	searchFn          func(ctx context.Context, id uuid.UUID, q string, k int) ([]vectorindex.Match, error)
}

func (m *mockSystem) ListPrimaries(ctx context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Primary], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) FindPrimary(ctx context.Context, id uuid.UUID) (*documents.PrimaryDetail, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) CreatePrimary(ctx context.Context, cmd documents.PrimaryCommand) (*documents.Outcome, error) {
	return m.createPrimaryFn(ctx, cmd)
}

func (m *mockSystem) CreateSecondary(ctx context.Context, cmd documents.SecondaryCommand) (*documents.Outcome, error) {
	return m.createSecondaryFn(ctx, cmd)
}

func (m *mockSystem) DeletePrimary(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Search(ctx context.Context, id uuid.UUID, q string, k int) ([]vectorindex.Match, error) {
	return m.searchFn(ctx, id, q, k)
}

func newTestHandler(sys documents.System, maxUploadSize int64) *documents.Handler {
	return documents.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		maxUploadSize,
	)
}

func setupMux(h *documents.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func uploadFields() map[string]string {
	return map[string]string{
		"document_type":   "PL",
		"document_name":   "PL 1234/2024",
		"document_number": "1234",
		"document_year":   "2024",
		"presented_by":    "Energy Committee",
		"presented_at":    "2024-03-01",
	}
}

func createMultipartForm(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for k, v := range fields {
		writer.WriteField(k, v)
	}

	if content != nil {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(content)
	}

	writer.Close()
	return &buf, writer.FormDataContentType()
}

func postForm(mux *http.ServeMux, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", contentType)
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreatePrimary(t *testing.T) {
	t.Run("stored document returns 201", func(t *testing.T) {
		var captured documents.PrimaryCommand
		id := uuid.New()
		sys := &mockSystem{
			createPrimaryFn: func(_ context.Context, cmd documents.PrimaryCommand) (*documents.Outcome, error) {
				captured = cmd
				return &documents.Outcome{DocumentID: &id, Status: workflow.StatusSuccess, ChunksIndexed: 2}, nil
			},
		}
		mux := setupMux(newTestHandler(sys, 1<<20))

		body, ct := createMultipartForm(t, "bill.txt", []byte("Tariff adjustment bill."), uploadFields())
		rec := postForm(mux, "/documents/primary", body, ct)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
		}

		if captured.Filename != "bill.txt" || captured.DocumentNumber != 1234 || captured.DocumentYear != 2024 {
			t.Errorf("command = %+v", captured)
		}
		if captured.PresentedAt.Year() != 2024 || captured.PresentedAt.Month() != 3 {
			t.Errorf("presented_at = %v", captured.PresentedAt)
		}
		if !strings.HasPrefix(captured.ContentType, "text/plain") {
			t.Errorf("content type = %q, want sniffed text/plain", captured.ContentType)
		}
		if captured.PageCount != nil {
			t.Errorf("page count = %v, want nil for text", *captured.PageCount)
		}

		var out documents.Outcome
		if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if out.DocumentID == nil || *out.DocumentID != id {
			t.Errorf("document_id = %v, want %v", out.DocumentID, id)
		}
	})

	t.Run("irrelevant document returns 200", func(t *testing.T) {
		sys := &mockSystem{
			createPrimaryFn: func(_ context.Context, _ documents.PrimaryCommand) (*documents.Outcome, error) {
				return &documents.Outcome{Status: workflow.StatusIrrelevant, Reason: "off topic"}, nil
			},
		}
		mux := setupMux(newTestHandler(sys, 1<<20))

		body, ct := createMultipartForm(t, "bill.txt", []byte("Football league rules."), uploadFields())
		rec := postForm(mux, "/documents/primary", body, ct)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var out map[string]any
		json.NewDecoder(rec.Body).Decode(&out)
		if out["status"] != "irrelevant" || out["reason"] != "off topic" {
			t.Errorf("body = %v", out)
		}
	})

	rejected := []struct {
		name    string
		mutate  func(map[string]string)
		content []byte
		status  int
	}{
		{"missing document_type", func(f map[string]string) { delete(f, "document_type") }, []byte("x"), http.StatusBadRequest},
		{"non-integer year", func(f map[string]string) { f["document_year"] = "twenty" }, []byte("x"), http.StatusBadRequest},
		{"bad presented_at", func(f map[string]string) { f["presented_at"] = "March 1st" }, []byte("x"), http.StatusBadRequest},
		{"missing file", func(map[string]string) {}, nil, http.StatusBadRequest},
		{"empty file", func(map[string]string) {}, []byte{}, http.StatusBadRequest},
	}

	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				createPrimaryFn: func(context.Context, documents.PrimaryCommand) (*documents.Outcome, error) {
					t.Fatal("system called for rejected upload")
					return nil, nil
				},
			}
			mux := setupMux(newTestHandler(sys, 1<<20))

			fields := uploadFields()
			tt.mutate(fields)
			body, ct := createMultipartForm(t, "bill.txt", tt.content, fields)
			rec := postForm(mux, "/documents/primary", body, ct)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	t.Run("oversized upload returns 413", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys, 512))

		body, ct := createMultipartForm(t, "bill.txt", bytes.Repeat([]byte("a"), 4096), uploadFields())
		rec := postForm(mux, "/documents/primary", body, ct)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})

	t.Run("system errors map status", func(t *testing.T) {
		tests := []struct {
			err    error
			status int
		}{
			{documents.ErrDuplicate, http.StatusConflict},
			{documents.ErrProcessing, http.StatusUnprocessableEntity},
			{vectorindex.ErrIndex, http.StatusInternalServerError},
		}

		for _, tt := range tests {
			sys := &mockSystem{
				createPrimaryFn: func(context.Context, documents.PrimaryCommand) (*documents.Outcome, error) {
					return nil, tt.err
				},
			}
			mux := setupMux(newTestHandler(sys, 1<<20))

			body, ct := createMultipartForm(t, "bill.txt", []byte("text"), uploadFields())
			rec := postForm(mux, "/documents/primary", body, ct)

			if rec.Code != tt.status {
				t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.status)
			}
		}
	})
}

func TestHandlerCreateSecondary(t *testing.T) {
	primaryID := uuid.New()

	t.Run("passes primary and role", func(t *testing.T) {
		var captured documents.SecondaryCommand
		sys := &mockSystem{
			createSecondaryFn: func(_ context.Context, cmd documents.SecondaryCommand) (*documents.Outcome, error) {
				captured = cmd
				id := uuid.New()
				return &documents.Outcome{DocumentID: &id, Status: workflow.StatusSuccess}, nil
			},
		}
		mux := setupMux(newTestHandler(sys, 1<<20))

		fields := uploadFields()
		fields["primary_id"] = primaryID.String()
		fields["role"] = " Deputy "
		fields["party_affiliation"] = "Green"

		body, ct := createMultipartForm(t, "amendment.txt", []byte("Amendment text."), fields)
		rec := postForm(mux, "/documents/secondary", body, ct)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
		}
		if captured.PrimaryID != primaryID || captured.Role != "Deputy" || captured.PartyAffiliation != "Green" {
			t.Errorf("command = %+v", captured)
		}
	})

	t.Run("invalid primary_id returns 400", func(t *testing.T) {
		mux := setupMux(newTestHandler(&mockSystem{}, 1<<20))

		fields := uploadFields()
		fields["primary_id"] = "not-a-uuid"

		body, ct := createMultipartForm(t, "amendment.txt", []byte("text"), fields)
		rec := postForm(mux, "/documents/secondary", body, ct)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing primary returns 404", func(t *testing.T) {
		sys := &mockSystem{
			createSecondaryFn: func(context.Context, documents.SecondaryCommand) (*documents.Outcome, error) {
				return nil, documents.ErrNotFound
			},
		}
		mux := setupMux(newTestHandler(sys, 1<<20))

		fields := uploadFields()
		fields["primary_id"] = primaryID.String()

		body, ct := createMultipartForm(t, "amendment.txt", []byte("text"), fields)
		rec := postForm(mux, "/documents/secondary", body, ct)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerList(t *testing.T) {
	var captured documents.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f documents.Filters) (*pagination.PageResult[documents.Primary], error) {
			captured = f
			result := pagination.NewPageResult([]documents.Primary{{ID: uuid.New()}}, 1, 1, 20)
			return &result, nil
		},
	}
	mux := setupMux(newTestHandler(sys, 1<<20))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/documents?document_type=PL&document_year=2024&year_from=2020&year_to=x&subject=ANEEL", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured.DocumentType == nil || *captured.DocumentType != "PL" {
		t.Errorf("document_type filter = %v", captured.DocumentType)
	}
	if captured.DocumentYear == nil || *captured.DocumentYear != 2024 {
		t.Errorf("document_year filter = %v", captured.DocumentYear)
	}
	if captured.YearFrom == nil || *captured.YearFrom != 2020 {
		t.Errorf("year_from filter = %v", captured.YearFrom)
	}
	if captured.YearTo != nil {
		t.Errorf("invalid year_to should be ignored, got %d", *captured.YearTo)
	}
	if captured.Subject == nil || *captured.Subject != "ANEEL" {
		t.Errorf("subject filter = %v", captured.Subject)
	}
}

func TestHandlerSearch(t *testing.T) {
	var got pagination.PageRequest
	var gotFilters documents.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, f documents.Filters) (*pagination.PageResult[documents.Primary], error) {
			got, gotFilters = page, f
			result := pagination.NewPageResult([]documents.Primary{}, 0, page.Page, page.PageSize)
			return &result, nil
		},
	}
	mux := setupMux(newTestHandler(sys, 1<<20))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"filters and sort", `{"page":2,"page_size":10,"sort":"-document_year","document_type":"PL"}`, http.StatusOK},
		{"unknown field", `{"page":1,"colour":"red"}`, http.StatusBadRequest},
		{"not json", `page=1`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", "/documents/search", bytes.NewBufferString(tt.body)))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	if got.Page != 2 || got.PageSize != 10 || len(got.Sort) != 1 || !got.Sort[0].Descending {
		t.Errorf("page request = %+v", got)
	}
	if gotFilters.DocumentType == nil || *gotFilters.DocumentType != "PL" {
		t.Errorf("document_type filter = %v", gotFilters.DocumentType)
	}
}

func TestHandlerFind(t *testing.T) {
	id := uuid.New()
	sys := &mockSystem{
		findFn: func(_ context.Context, got uuid.UUID) (*documents.PrimaryDetail, error) {
			if got != id {
				return nil, documents.ErrNotFound
			}
			return &documents.PrimaryDetail{
				Primary:     documents.Primary{ID: id},
				Secondaries: []documents.Secondary{{ID: uuid.New(), PrimaryID: id}},
			}, nil
		},
	}
	mux := setupMux(newTestHandler(sys, 1<<20))

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"found", "/documents/" + id.String(), http.StatusOK},
		{"not found", "/documents/" + uuid.NewString(), http.StatusNotFound},
		{"invalid id", "/documents/abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestHandlerDelete(t *testing.T) {
	id := uuid.New()
	sys := &mockSystem{
		deleteFn: func(_ context.Context, got uuid.UUID) error {
			if got != id {
				return documents.ErrNotFound
			}
			return nil
		},
	}
	mux := setupMux(newTestHandler(sys, 1<<20))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/documents/"+id.String(), nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/documents/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerSimilar(t *testing.T) {
	id := uuid.New()
	var gotK int
	sys := &mockSystem{
		searchFn: func(_ context.Context, _ uuid.UUID, _ string, k int) ([]vectorindex.Match, error) {
			gotK = k
			return []vectorindex.Match{{Content: "chunk"}}, nil
		},
	}
	mux := setupMux(newTestHandler(sys, 1<<20))

	tests := []struct {
		name   string
		query  string
		status int
		k      int
	}{
		{"default k", "?q=tariffs", http.StatusOK, 5},
		{"explicit k", "?q=tariffs&k=8", http.StatusOK, 8},
		{"k capped", "?q=tariffs&k=500", http.StatusOK, 50},
		{"missing q", "", http.StatusBadRequest, 0},
		{"bad k", "?q=tariffs&k=zero", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotK = 0
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", "/documents/similar/"+id.String()+tt.query, nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if gotK != tt.k {
				t.Errorf("k = %d, want %d", gotK, tt.k)
			}
		})
	}
}

func TestHandlerRoutes(t *testing.T) {
	h := newTestHandler(&mockSystem{}, 1<<20)
	group := h.Routes()

	if group.Prefix != "/documents" {
		t.Errorf("prefix = %q, want /documents", group.Prefix)
	}

	// Registering on a ServeMux panics on conflicting patterns.
	setupMux(h)
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{documents.ErrNotFound, http.StatusNotFound},
		{documents.ErrDuplicate, http.StatusConflict},
		{documents.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{documents.ErrInvalidFile, http.StatusBadRequest},
		{documents.ErrInvalidForm, http.StatusBadRequest},
		{documents.ErrProcessing, http.StatusUnprocessableEntity},
		{documents.ErrPersistence, http.StatusInternalServerError},
		{vectorindex.ErrIndex, http.StatusInternalServerError},
		{errBoom, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := documents.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
