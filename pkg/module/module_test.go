package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/regwatch/pkg/middleware"
	"github.com/JaimeStill/regwatch/pkg/module"
)

func mustModule(t *testing.T, prefix string, inner http.Handler) *module.Module {
	t.Helper()
	m, err := module.New(prefix, inner)
	if err != nil {
		t.Fatalf("New(%q): %v", prefix, err)
	}
	return m
}

// echo writes the path and raw path the inner handler sees.
func echo(tag string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tag + " " + r.URL.Path + " " + r.URL.RawPath))
	})
}

func TestNewPrefix(t *testing.T) {
	tests := []struct {
		prefix  string
		wantErr bool
	}{
		{"/api", false},
		{"/v1/api", false},
		{"", true},
		{"/", true},
		{"api", true},
		{"/api/", true},
		{"/v1//api", true},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			m, err := module.New(tt.prefix, http.NotFoundHandler())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
			}
			if err == nil && m.Prefix() != tt.prefix {
				t.Errorf("Prefix() = %s", m.Prefix())
			}
		})
	}
}

func TestRouter(t *testing.T) {
	router := module.NewRouter()
	router.Mount(mustModule(t, "/api", echo("api")))
	router.Mount(mustModule(t, "/api/admin", echo("admin")))
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("native"))
	})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"module root", "/api", "api / "},
		{"module path", "/api/documents", "api /documents "},
		{"trailing slash trimmed", "/api/documents/", "api /documents "},
		{"longest prefix wins", "/api/admin/prompts", "admin /prompts "},
		{"prefix must end at a segment", "/apiary", "404 page not found\n"},
		{"encoded key keeps raw path", "/api/storage/download/primary%2Fa.pdf", "api /storage/download/primary/a.pdf /storage/download/primary%2Fa.pdf"},
		{"native fallback", "/healthz", "native"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("body: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRouterDuplicateMountPanics(t *testing.T) {
	router := module.NewRouter()
	router.Mount(mustModule(t, "/api", echo("a")))

	defer func() {
		if recover() == nil {
			t.Error("expected panic for duplicate prefix")
		}
	}()
	router.Mount(mustModule(t, "/api", echo("b")))
}

func TestModuleMiddleware(t *testing.T) {
	m := mustModule(t, "/api", echo("api"))

	var seenPath string
	m.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenPath = r.URL.Path
			next.ServeHTTP(w, r)
		})
	}, middleware.RequestID())

	rec := httptest.NewRecorder()
	m.Serve(rec, httptest.NewRequest("GET", "/api/subjects", nil))

	if seenPath != "/subjects" {
		t.Errorf("middleware saw %q, want the stripped path", seenPath)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("request id middleware not applied")
	}
}
