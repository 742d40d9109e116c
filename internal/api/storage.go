package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/JaimeStill/regwatch/pkg/handlers"
	"github.com/JaimeStill/regwatch/pkg/openapi"
	"github.com/JaimeStill/regwatch/pkg/routes"
	"github.com/JaimeStill/regwatch/pkg/storage"
)

type storageHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newStorageHandler(store storage.System, logger *slog.Logger) *storageHandler {
	return &storageHandler{
		store:  store,
		logger: logger.With("handler", "storage"),
	}
}

func (h *storageHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/storage",
		Tags:   []string{"Storage"},
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "/download/{key...}",
				Handler: h.download,
				OpenAPI: &openapi.Operation{
					Summary: "Download an original document file",
					Parameters: []*openapi.Parameter{{
						Name:     "key",
						In:       "path",
						Required: true,
						Schema:   &openapi.Schema{Type: "string"},
					}},
					Responses: map[int]*openapi.Response{
						200: {Description: "File contents"},
						404: openapi.ResponseRef("NotFound"),
					},
				},
			},
		},
	}
}

func (h *storageHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	result, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			storage.MapHTTPStatus(err), err,
		)
		return
	}
	defer result.Body.Close()

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)

	if result.ContentLength > 0 {
		w.Header().Set(
			"Content-Length",
			strconv.FormatInt(result.ContentLength, 10),
		)
	}

	name := path.Base(key)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", name),
	)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, result.Body); err != nil {
		h.logger.Warn("download stream interrupted", "key", key, "error", err)
	}
}
