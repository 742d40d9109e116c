package documents

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/regwatch/internal/workflow"
	"github.com/JaimeStill/regwatch/pkg/formatting"
	"github.com/JaimeStill/regwatch/pkg/handlers"
	"github.com/JaimeStill/regwatch/pkg/pagination"
	"github.com/JaimeStill/regwatch/pkg/routes"
)

const (
	defaultSimilarK = 5
	maxSimilarK     = 50
)

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for document endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:  "/documents",
		Tags:    []string{"Documents"},
		Schemas: spec.Schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: spec.List},
			{Method: "POST", Pattern: "/search", Handler: h.Search, OpenAPI: spec.Search},
			{Method: "POST", Pattern: "/primary", Handler: h.CreatePrimary, OpenAPI: spec.CreatePrimary},
			{Method: "POST", Pattern: "/secondary", Handler: h.CreateSecondary, OpenAPI: spec.CreateSecondary},
			{Method: "GET", Pattern: "/{id}", Handler: h.FindPrimary, OpenAPI: spec.FindPrimary},
			{Method: "GET", Pattern: "/similar/{id}", Handler: h.Similar, OpenAPI: spec.Similar},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.DeletePrimary, OpenAPI: spec.DeletePrimary},
			{Method: "GET", Pattern: "/secondary/{id}", Handler: h.FindSecondary, OpenAPI: spec.FindSecondary},
			{Method: "DELETE", Pattern: "/secondary/{id}", Handler: h.DeleteSecondary, OpenAPI: spec.DeleteSecondary},
		},
	}
}

// List returns a paginated list of primary documents with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.ListPrimaries(r.Context(), page, filters)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching documents.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := handlers.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, err)
		return
	}

	result, err := h.sys.ListPrimaries(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// CreatePrimary analyzes and stores an uploaded primary document.
// Responds 201 when stored and 200 when the document was judged irrelevant.
func (h *Handler) CreatePrimary(w http.ResponseWriter, r *http.Request) {
	file, details, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	out, err := h.sys.CreatePrimary(r.Context(), PrimaryCommand{File: file, Details: details})
	if err != nil {
		h.fail(w, err)
		return
	}

	respondOutcome(w, out)
}

// CreateSecondary analyzes and stores a document attached to the primary
// named by the primary_id form field.
func (h *Handler) CreateSecondary(w http.ResponseWriter, r *http.Request) {
	file, details, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	primaryID, err := uuid.Parse(r.FormValue("primary_id"))
	if err != nil {
		h.fail(w, fmt.Errorf("%w: primary_id", ErrInvalidForm))
		return
	}

	cmd := SecondaryCommand{
		File:             file,
		Details:          details,
		PrimaryID:        primaryID,
		Role:             strings.TrimSpace(r.FormValue("role")),
		PartyAffiliation: strings.TrimSpace(r.FormValue("party_affiliation")),
	}

	out, err := h.sys.CreateSecondary(r.Context(), cmd)
	if err != nil {
		h.fail(w, err)
		return
	}

	respondOutcome(w, out)
}

// FindPrimary returns a primary document with its secondaries.
func (h *Handler) FindPrimary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.sys.FindPrimary(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// FindSecondary returns a single secondary document.
func (h *Handler) FindSecondary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.sys.FindSecondary(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// DeletePrimary removes a primary document and everything attached to it.
func (h *Handler) DeletePrimary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.DeletePrimary(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteSecondary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.DeleteSecondary(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Similar runs a similarity search over a primary document's collection
// using the q and k query parameters.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.fail(w, fmt.Errorf("%w: q required", ErrInvalidForm))
		return
	}

	k := defaultSimilarK
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.fail(w, fmt.Errorf("%w: k", ErrInvalidForm))
			return
		}
		k = min(n, maxSimilarK)
	}

	matches, err := h.sys.Search(r.Context(), id, q, k)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, matches)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := handlers.PathUUID(r, "id")
	if err != nil {
		h.fail(w, err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}

func respondOutcome(w http.ResponseWriter, out *Outcome) {
	if out.Status == workflow.StatusIrrelevant {
		handlers.RespondJSON(w, http.StatusOK, out)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, out)
}

// readUpload parses the multipart form shared by both upload endpoints.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (File, Details, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return File{}, Details{}, fmt.Errorf("%w: limit is %s", ErrFileTooLarge, formatting.FormatBytes(h.maxUploadSize))
		}
		return File{}, Details{}, fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}

	details, err := parseDetails(r)
	if err != nil {
		return File{}, Details{}, err
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		return File{}, Details{}, fmt.Errorf("%w: file field required", ErrInvalidFile)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return File{}, Details{}, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if len(data) == 0 {
		return File{}, Details{}, fmt.Errorf("%w: empty file", ErrInvalidFile)
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)

	return File{
		Data:        data,
		Filename:    header.Filename,
		ContentType: contentType,
		PageCount:   extractPDFPageCount(h.logger, data, contentType),
	}, details, nil
}

func parseDetails(r *http.Request) (Details, error) {
	var d Details
	var err error

	required := func(name string) (string, error) {
		v := strings.TrimSpace(r.FormValue(name))
		if v == "" {
			return "", fmt.Errorf("%w: %s required", ErrInvalidForm, name)
		}
		return v, nil
	}

	integer := func(name string) (int, error) {
		v, err := required(name)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidForm, name)
		}
		return n, nil
	}

	if d.DocumentType, err = required("document_type"); err != nil {
		return d, err
	}
	if d.DocumentName, err = required("document_name"); err != nil {
		return d, err
	}
	if d.DocumentNumber, err = integer("document_number"); err != nil {
		return d, err
	}
	if d.DocumentYear, err = integer("document_year"); err != nil {
		return d, err
	}
	if d.PresentedBy, err = required("presented_by"); err != nil {
		return d, err
	}

	presentedAt, err := required("presented_at")
	if err != nil {
		return d, err
	}
	if d.PresentedAt, err = parseTime(presentedAt); err != nil {
		return d, err
	}

	d.Link = strings.TrimSpace(r.FormValue("link"))
	return d, nil
}

func parseTime(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: presented_at must be RFC 3339 or YYYY-MM-DD", ErrInvalidForm)
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

func extractPDFPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}

	return &count
}
