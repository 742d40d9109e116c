// Package module mounts self-contained HTTP handlers under path prefixes.
// Each module owns its middleware chain and sees request paths with its
// prefix removed.
package module

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/JaimeStill/regwatch/pkg/middleware"
)

// Module serves an inner handler under a prefix such as "/api" or "/v1/api".
type Module struct {
	prefix string
	inner  http.Handler
	mws    []middleware.Func

	once    sync.Once
	handler http.Handler
}

// New validates prefix and creates a Module around inner.
func New(prefix string, inner http.Handler) (*Module, error) {
	if err := validatePrefix(prefix); err != nil {
		return nil, err
	}
	return &Module{prefix: prefix, inner: inner}, nil
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware; the first added runs outermost. Middleware must be
// added before the module serves its first request.
func (m *Module) Use(mws ...middleware.Func) {
	m.mws = append(m.mws, mws...)
}

// Handler returns the inner handler wrapped in the module's middleware.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = middleware.Chain(m.inner, m.mws...)
	})
	return m.handler
}

// Serve dispatches req to the module with the prefix stripped from its path.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, stripPrefix(req, m.prefix))
}

func (m *Module) matches(path string) bool {
	return path == m.prefix || strings.HasPrefix(path, m.prefix+"/")
}

func stripPrefix(req *http.Request, prefix string) *http.Request {
	r := req.Clone(req.Context())
	r.URL.Path = trimmed(req.URL.Path, prefix)
	if req.URL.RawPath != "" {
		r.URL.RawPath = trimmed(req.URL.RawPath, prefix)
	}
	return r
}

func trimmed(path, prefix string) string {
	if p := strings.TrimPrefix(path, prefix); p != "" {
		return p
	}
	return "/"
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "" || prefix == "/":
		return fmt.Errorf("module prefix must name a sub-path: %q", prefix)
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %q", prefix)
	case strings.HasSuffix(prefix, "/"):
		return fmt.Errorf("module prefix must not end with /: %q", prefix)
	case strings.Contains(prefix, "//"):
		return fmt.Errorf("module prefix has an empty segment: %q", prefix)
	}
	return nil
}
