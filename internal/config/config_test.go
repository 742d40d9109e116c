package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/regwatch/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080

[database]
host = "localhost"
port = 5432
name = "regwatch"
user = "regwatch"
password = "regwatch"
max_conns = 10
min_conns = 2

[storage]
container_name = "documents"
connection_string = "UseDevelopmentStorage=true"

[api]
base_path = "/api"

[api.pagination]
default_page_size = 25
max_page_size = 50

[llm]
project = "regwatch-dev"
location = "us-east4"
model = "gemini-2.0-flash"
temperature = 0.2

[analysis]
summary_max_chars = 20000
max_subjects = 8

[workflow]
step_timeout = "90s"

[index]
endpoint = "http://localhost:11434/v1/embeddings"
model = "nomic-embed-text"
chunk_size = 800
chunk_overlap = 100
`

const overlayConfig = `
log_level = "debug"

[server]
port = 9090

[database]
host = "prodhost"

[auth]
enabled = true
issuer = "https://login.example.com"
audience = "regwatch"
`

// minimalConfig carries only the fields without defaults.
const minimalConfig = `
[database]
name = "regwatch"
user = "regwatch"

[storage]
connection_string = "conn"

[llm]
project = "regwatch-dev"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func setup(t *testing.T, files map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeConfig(t, dir, name, content)
	}
	t.Chdir(dir)
}

func TestLoad(t *testing.T) {
	setup(t, map[string]string{"config.toml": baseConfig})

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 10 {
		t.Errorf("db max_conns: got %d, want 10", cfg.Database.MaxConns)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("pagination default_page_size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.LLM.Location != "us-east4" || cfg.LLM.Temperature != 0.2 {
		t.Errorf("llm: got %+v", cfg.LLM)
	}
	if cfg.Analysis.SummaryMaxChars != 20000 || cfg.Analysis.MaxSubjects != 8 {
		t.Errorf("analysis: got %+v", cfg.Analysis)
	}
	if cfg.Analysis.RelevanceMaxChars != 5000 {
		t.Errorf("analysis relevance default: got %d, want 5000", cfg.Analysis.RelevanceMaxChars)
	}
	if d := cfg.Workflow.StepTimeoutDuration(); d != 90*time.Second {
		t.Errorf("step timeout: got %v, want 90s", d)
	}
	if cfg.Index.ChunkSize != 800 || cfg.Index.ChunkOverlap != 100 {
		t.Errorf("index chunking: got %d/%d", cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	}
	if cfg.Auth.Enabled {
		t.Error("auth enabled without configuration")
	}
}

func TestLoadWithOverlay(t *testing.T) {
	setup(t, map[string]string{
		"config.toml":         baseConfig,
		"config.staging.toml": overlayConfig,
	})
	t.Setenv("REGWATCH_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
	if !cfg.Auth.Enabled || cfg.Auth.Issuer != "https://login.example.com" {
		t.Errorf("auth: got %+v", cfg.Auth)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("log level: got %v, want debug", cfg.SlogLevel())
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	setup(t, map[string]string{"config.toml": baseConfig})

	t.Setenv("REGWATCH_VERSION", "2.0.0")
	t.Setenv("REGWATCH_SERVER_PORT", "3000")
	t.Setenv("REGWATCH_DB_MAX_CONNS", "40")
	t.Setenv("REGWATCH_LLM_MODEL", "gemini-2.5-pro")
	t.Setenv("REGWATCH_LLM_MAX_OUTPUT_TOKENS", "4096")
	t.Setenv("REGWATCH_ANALYSIS_MAX_SUBJECTS", "5")
	t.Setenv("REGWATCH_WORKFLOW_STEP_TIMEOUT", "30s")
	t.Setenv("REGWATCH_INDEX_MODEL", "text-embedding-3-large")
	t.Setenv("REGWATCH_STORAGE_SERVICE_URL", "https://acct.blob.core.windows.net")
	t.Setenv("REGWATCH_LOG_LEVEL", "warn")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 40 {
		t.Errorf("db max_conns: got %d, want 40", cfg.Database.MaxConns)
	}
	if cfg.LLM.Model != "gemini-2.5-pro" || cfg.LLM.MaxOutputTokens != 4096 {
		t.Errorf("llm: got %+v", cfg.LLM)
	}
	if cfg.Analysis.MaxSubjects != 5 {
		t.Errorf("max subjects: got %d, want 5", cfg.Analysis.MaxSubjects)
	}
	if d := cfg.Workflow.StepTimeoutDuration(); d != 30*time.Second {
		t.Errorf("step timeout: got %v, want 30s", d)
	}
	if cfg.Index.Model != "text-embedding-3-large" {
		t.Errorf("index model: got %s", cfg.Index.Model)
	}
	if cfg.Storage.ServiceURL != "https://acct.blob.core.windows.net" {
		t.Errorf("storage service url: got %s", cfg.Storage.ServiceURL)
	}
	if cfg.SlogLevel() != slog.LevelWarn {
		t.Errorf("log level: got %v, want warn", cfg.SlogLevel())
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	setup(t, nil)

	t.Setenv("REGWATCH_DB_NAME", "testdb")
	t.Setenv("REGWATCH_DB_USER", "testuser")
	t.Setenv("REGWATCH_STORAGE_CONNECTION_STRING", "conn")
	t.Setenv("REGWATCH_LLM_PROJECT", "proj")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("db name from env: got %s, want testdb", cfg.Database.Name)
	}
	if cfg.LLM.Project != "proj" {
		t.Errorf("llm project from env: got %s, want proj", cfg.LLM.Project)
	}
}

func TestLoadDatabase(t *testing.T) {
	// [llm] is incomplete here; only the database section is resolved.
	setup(t, map[string]string{
		"config.toml":         "[database]\nname = \"regwatch\"\nuser = \"regwatch\"\n\n[llm]\nlocation = \"us-east4\"\n",
		"config.staging.toml": overlayConfig,
	})
	t.Setenv("REGWATCH_ENV", "staging")
	t.Setenv("REGWATCH_DB_STATEMENT_TIMEOUT", "2m")

	db, err := config.LoadDatabase()
	if err != nil {
		t.Fatalf("LoadDatabase() error = %v", err)
	}

	want := "postgres://regwatch:@prodhost:5432/regwatch?application_name=regwatch&sslmode=disable"
	if got := db.Dsn(); got != want {
		t.Errorf("Dsn() = %s, want %s", got, want)
	}
	if db.StatementTimeoutDuration() != 2*time.Minute {
		t.Errorf("statement timeout = %v, want 2m", db.StatementTimeoutDuration())
	}

	t.Setenv("REGWATCH_DB_MAX_CONNS", "lots")
	if _, err := config.LoadDatabase(); err == nil || !strings.Contains(err.Error(), "REGWATCH_DB_MAX_CONNS") {
		t.Errorf("LoadDatabase() error = %v, want env parse error", err)
	}
}

func TestDefaults(t *testing.T) {
	setup(t, map[string]string{"config.toml": minimalConfig})

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.API.Pagination.DefaultPageSize != 20 || cfg.API.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination: got %+v", cfg.API.Pagination)
	}
	if cfg.Analysis.MaxSubjects != 10 || cfg.Analysis.SummaryMaxChars != 30000 {
		t.Errorf("analysis: got %+v", cfg.Analysis)
	}
	if d := cfg.Workflow.StepTimeoutDuration(); d != 2*time.Minute {
		t.Errorf("step timeout: got %v, want 2m", d)
	}
	if cfg.Index.ChunkSize != 1000 || cfg.Index.ChunkOverlap != 200 {
		t.Errorf("index chunking: got %d/%d, want 1000/200", cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	}
	if cfg.LLM.Location != "us-central1" || cfg.LLM.MaxOutputTokens != 8192 {
		t.Errorf("llm: got %+v", cfg.LLM)
	}
	if cfg.OpenAPI.Title == "" {
		t.Error("openapi title not defaulted")
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("log level: got %v, want info", cfg.SlogLevel())
	}
	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}
	if d := cfg.ShutdownTimeoutDuration(); d != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", d)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	setup(t, map[string]string{"config.toml": `server = {`})

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "invalid port",
			env:     map[string]string{"REGWATCH_SERVER_PORT": "99999"},
			wantErr: "invalid port",
		},
		{
			name:    "missing llm project",
			extra:   "skip-llm",
			wantErr: "project required",
		},
		{
			name:    "invalid temperature",
			env:     map[string]string{"REGWATCH_LLM_TEMPERATURE": "hot"},
			wantErr: "REGWATCH_LLM_TEMPERATURE",
		},
		{
			name:    "invalid step timeout",
			env:     map[string]string{"REGWATCH_WORKFLOW_STEP_TIMEOUT": "soon"},
			wantErr: "invalid step_timeout",
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"REGWATCH_LOG_LEVEL": "chatty"},
			wantErr: "invalid log_level",
		},
		{
			name:    "auth enabled without issuer",
			env:     map[string]string{"REGWATCH_AUTH_ENABLED": "true"},
			wantErr: "issuer required",
		},
		{
			name:    "non-numeric port",
			env:     map[string]string{"REGWATCH_SERVER_PORT": "http"},
			wantErr: "REGWATCH_SERVER_PORT",
		},
		{
			name:    "zero read header timeout",
			env:     map[string]string{"REGWATCH_SERVER_READ_HEADER_TIMEOUT": "0s"},
			wantErr: "read_header_timeout must be positive",
		},
		{
			name: "write timeout shorter than a workflow step",
			env: map[string]string{
				"REGWATCH_SERVER_WRITE_TIMEOUT":  "30s",
				"REGWATCH_WORKFLOW_STEP_TIMEOUT": "1m",
			},
			wantErr: "shorter than workflow step_timeout",
		},
		{
			name:    "relative base path",
			env:     map[string]string{"REGWATCH_API_BASE_PATH": "api"},
			wantErr: "base_path",
		},
		{
			name:    "trailing slash base path",
			env:     map[string]string{"REGWATCH_API_BASE_PATH": "/api/"},
			wantErr: "base_path",
		},
		{
			name:    "unparseable upload size",
			env:     map[string]string{"REGWATCH_API_MAX_UPLOAD_SIZE": "lots"},
			wantErr: "invalid max_upload_size",
		},
		{
			name:    "zero upload size",
			env:     map[string]string{"REGWATCH_API_MAX_UPLOAD_SIZE": "0"},
			wantErr: "max_upload_size must be positive",
		},
		{
			name:    "min conns above max",
			env:     map[string]string{"REGWATCH_DB_MIN_CONNS": "50"},
			wantErr: "min_conns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := minimalConfig
			if tt.extra == "skip-llm" {
				content = strings.Replace(content, `project = "regwatch-dev"`, "", 1)
			}
			setup(t, map[string]string{"config.toml": content})
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMaxUploadSizeBytes(t *testing.T) {
	setup(t, map[string]string{"config.toml": minimalConfig})
	t.Setenv("REGWATCH_API_MAX_UPLOAD_SIZE", "10MiB")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := cfg.API.MaxUploadSizeBytes(); got != 10<<20 {
		t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, 10<<20)
	}

	unfinalized := &config.APIConfig{MaxUploadSize: "bad"}
	if got := unfinalized.MaxUploadSizeBytes(); got != 0 {
		t.Errorf("unparseable size = %d, want 0", got)
	}
}

func TestServerTimeouts(t *testing.T) {
	setup(t, map[string]string{"config.toml": minimalConfig})
	t.Setenv("REGWATCH_SERVER_IDLE_TIMEOUT", "45s")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	s := cfg.Server
	if s.ReadHeaderTimeoutDuration() != 10*time.Second {
		t.Errorf("read header timeout: got %v", s.ReadHeaderTimeoutDuration())
	}
	if s.WriteTimeoutDuration() != 15*time.Minute {
		t.Errorf("write timeout: got %v", s.WriteTimeoutDuration())
	}
	if s.IdleTimeoutDuration() != 45*time.Second {
		t.Errorf("idle timeout: got %v", s.IdleTimeoutDuration())
	}
	if s.Addr() != "0.0.0.0:8080" {
		t.Errorf("addr: got %s", s.Addr())
	}
}

func TestServerMerge(t *testing.T) {
	base := config.ServerConfig{Host: "0.0.0.0", Port: 8080, WriteTimeout: "15m"}
	base.Merge(&config.ServerConfig{Port: 9000, IdleTimeout: "1m"})

	if base.Host != "0.0.0.0" || base.Port != 9000 {
		t.Errorf("merge: got %s:%d", base.Host, base.Port)
	}
	if base.WriteTimeout != "15m" || base.IdleTimeout != "1m" {
		t.Errorf("merge timeouts: got %s/%s", base.WriteTimeout, base.IdleTimeout)
	}
}

func TestWorkflowMerge(t *testing.T) {
	base := config.WorkflowConfig{StepTimeout: "2m"}
	base.Merge(&config.WorkflowConfig{})
	if base.StepTimeout != "2m" {
		t.Errorf("empty overlay changed step_timeout to %s", base.StepTimeout)
	}

	base.Merge(&config.WorkflowConfig{StepTimeout: "45s"})
	if base.StepTimeout != "45s" {
		t.Errorf("step_timeout: got %s, want 45s", base.StepTimeout)
	}
}
