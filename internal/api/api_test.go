package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/regwatch/internal/api"
	"github.com/JaimeStill/regwatch/internal/config"
	"github.com/JaimeStill/regwatch/internal/infrastructure"
	"github.com/JaimeStill/regwatch/pkg/database"
	"github.com/JaimeStill/regwatch/pkg/lifecycle"
	"github.com/JaimeStill/regwatch/pkg/middleware"
	"github.com/JaimeStill/regwatch/pkg/openapi"
	"github.com/JaimeStill/regwatch/pkg/pagination"
	"github.com/JaimeStill/regwatch/pkg/storage"
	"github.com/JaimeStill/regwatch/pkg/vectorindex"
)

type stubStorage struct {
	storage.System
	blobs map[string][]byte
}

func (s *stubStorage) Download(_ context.Context, key string) (*storage.Blob, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Blob{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentType:   "application/pdf",
		ContentLength: int64(len(data)),
	}, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string) (string, error) { return "{}", nil }
func (stubGenerator) Close() error                                     { return nil }

func validConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "15m",
			ShutdownTimeout: "30s",
		},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "regwatch",
			User:            "regwatch",
			Password:        "regwatch",
			SSLMode:         "disable",
			MaxConns:        4,
			MinConns:        0,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		API: config.APIConfig{
			BasePath:      "/api",
			MaxUploadSize: "10MB",
			CORS:          middleware.CORSConfig{Enabled: false},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		Index: vectorindex.Config{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			BatchSize:    16,
			Concurrency:  4,
			Timeout:      "30s",
		},
		OpenAPI:         openapi.Config{Title: "regwatch API", Description: "test"},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
}

func setupInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}

	return &infrastructure.Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage: &stubStorage{blobs: map[string][]byte{
			"primary/abc/bill%201234.pdf": []byte("%PDF-1.7"),
		}},
		Index:     vectorindex.New(&cfg.Index, db.Pool(), nil, logger),
		Generator: stubGenerator{},
	}
}

func serve(t *testing.T, cfg *config.Config, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestNewModule(t *testing.T) {
	cfg := validConfig()

	m, err := api.NewModule(cfg, setupInfra(t, cfg))
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig()
	infra := setupInfra(t, cfg)

	runtime := api.NewRuntime(cfg, infra)

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if runtime.Logger == nil || runtime.Logger == infra.Logger {
		t.Error("runtime logger not module scoped")
	}
	if runtime.Index == nil || runtime.Generator == nil {
		t.Error("runtime index or generator is nil")
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig()
	runtime := api.NewRuntime(cfg, setupInfra(t, cfg))

	domain := api.NewDomain(cfg, runtime)
	if domain.Documents == nil || domain.Prompts == nil || domain.Subjects == nil || domain.Engine == nil {
		t.Fatalf("NewDomain() = %+v", domain)
	}
}

func TestOpenAPISpec(t *testing.T) {
	rec := serve(t, validConfig(), "GET", "/api/openapi.json")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var spec struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Paths      map[string]json.RawMessage `json:"paths"`
		Components struct {
			Schemas map[string]json.RawMessage `json:"schemas"`
		} `json:"components"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&spec); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if spec.Info.Title != "regwatch API" || spec.Info.Version != "0.1.0" {
		t.Errorf("info = %+v", spec.Info)
	}

	for _, path := range []string{
		"/documents",
		"/documents/primary",
		"/documents/secondary",
		"/documents/{id}",
		"/documents/similar/{id}",
		"/subjects",
		"/prompts/{stage}/instructions",
		"/storage/download/{key}",
	} {
		if _, ok := spec.Paths[path]; !ok {
			t.Errorf("spec missing path %s", path)
		}
	}

	if _, ok := spec.Components.Schemas["Outcome"]; !ok {
		t.Error("spec missing Outcome schema")
	}
}

func TestStorageDownload(t *testing.T) {
	cfg := validConfig()

	rec := serve(t, cfg, "GET", "/api/storage/download/primary/abc/bill%25201234.pdf")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="bill 1234.pdf"` {
		t.Errorf("Content-Disposition = %s", got)
	}
	if rec.Body.String() != "%PDF-1.7" {
		t.Errorf("body = %q", rec.Body.String())
	}

	rec = serve(t, cfg, "GET", "/api/storage/download/primary/missing.pdf")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing blob status = %d, want 404", rec.Code)
	}
}

func TestPromptStagesWithoutDatabase(t *testing.T) {
	rec := serve(t, validConfig(), "GET", "/api/prompts/stages")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var stages []string
	if err := json.NewDecoder(rec.Body).Decode(&stages); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(stages) != 6 {
		t.Errorf("stages = %v, want 6", stages)
	}
}

func TestSpecMatchesServedRoutes(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.Issuer = "https://login.example.com"

	spec := api.Spec(cfg)

	if spec.Servers[0].URL != "/api" {
		t.Errorf("server = %s, want /api", spec.Servers[0].URL)
	}
	if len(spec.Security) != 1 {
		t.Errorf("auth enabled should require bearer, got %v", spec.Security)
	}

	served := serve(t, validConfig(), "GET", "/api/openapi.json")
	var body struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.NewDecoder(served.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	if len(body.Paths) != len(spec.Paths) {
		t.Errorf("served %d paths, offline spec has %d", len(body.Paths), len(spec.Paths))
	}
	for path := range spec.Paths {
		if _, ok := body.Paths[path]; !ok {
			t.Errorf("served spec missing %s", path)
		}
	}
}
