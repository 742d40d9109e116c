package module

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Router dispatches to the mounted module with the longest matching prefix
// and falls back to a native ServeMux for everything else.
type Router struct {
	modules []*Module
	native  *http.ServeMux
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{native: http.NewServeMux()}
}

// HandleNative registers a handler on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount adds m. Mounting two modules at the same prefix panics.
func (r *Router) Mount(m *Module) {
	for _, existing := range r.modules {
		if existing.prefix == m.prefix {
			panic(fmt.Sprintf("module already mounted at %s", m.prefix))
		}
	}
	r.modules = append(r.modules, m)
	slices.SortFunc(r.modules, func(a, b *Module) int {
		return len(b.prefix) - len(a.prefix)
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	trimTrailingSlash(req)

	for _, m := range r.modules {
		if m.matches(req.URL.Path) {
			m.Serve(w, req)
			return
		}
	}

	r.native.ServeHTTP(w, req)
}

func trimTrailingSlash(req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimSuffix(p, "/")
		if req.URL.RawPath != "" {
			req.URL.RawPath = strings.TrimSuffix(req.URL.RawPath, "/")
		}
	}
}
