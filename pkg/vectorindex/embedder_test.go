package vectorindex_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pgvector/pgvector-go"

	"github.com/JaimeStill/regwatch/pkg/vectorindex"
)

func TestHTTPEmbedder(t *testing.T) {
	var got struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		// out-of-order indices must be placed by index
		w.Write([]byte(`{"data":[{"index":1,"embedding":[0.3,0.4]},{"index":0,"embedding":[0.1,0.2]}]}`))
	}))
	defer srv.Close()

	cfg := &vectorindex.Config{Endpoint: srv.URL, Model: "test-embed", APIKey: "k", Timeout: "5s"}
	e := vectorindex.NewEmbedder(cfg, srv.Client())

	vectors, err := e.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if got.Model != "test-embed" || len(got.Input) != 2 {
		t.Errorf("request: got %+v", got)
	}
	if auth != "Bearer k" {
		t.Errorf("authorization: got %q", auth)
	}
	if v := vectors[0].Slice(); v[0] != 0.1 || v[1] != 0.2 {
		t.Errorf("vector 0: got %v", v)
	}
	if v := vectors[1].Slice(); v[0] != 0.3 {
		t.Errorf("vector 1: got %v", v)
	}
}

func TestHTTPEmbedderErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, "overloaded", "status 500"},
		{"count mismatch", http.StatusOK, `{"data":[{"index":0,"embedding":[1]}]}`, "count mismatch"},
		{"bad json", http.StatusOK, `{"data":`, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			e := vectorindex.NewEmbedder(&vectorindex.Config{Endpoint: srv.URL, Timeout: "5s"}, srv.Client())
			_, err := e.Embed(context.Background(), []string{"a", "b"})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

type countingEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([]pgvector.Vector, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.fail {
		return nil, errors.New("embedding backend down")
	}
	out := make([]pgvector.Vector, len(texts))
	for i, s := range texts {
		out[i] = pgvector.NewVector([]float32{float32(len(s))})
	}
	return out, nil
}

func TestEmbedAllPreservesOrder(t *testing.T) {
	texts := []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff", "ggggggg"}
	e := &countingEmbedder{}

	vectors, err := vectorindex.EmbedAll(context.Background(), e, texts, 3, 2)
	if err != nil {
		t.Fatalf("EmbedAll() error = %v", err)
	}

	if e.calls != 3 {
		t.Errorf("calls: got %d, want 3", e.calls)
	}
	for i, v := range vectors {
		if int(v.Slice()[0]) != len(texts[i]) {
			t.Errorf("vector %d out of order: %v", i, v.Slice())
		}
	}
}

func TestEmbedAllPropagatesError(t *testing.T) {
	_, err := vectorindex.EmbedAll(context.Background(), &countingEmbedder{fail: true}, []string{"a", "b"}, 1, 2)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
