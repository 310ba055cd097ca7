package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tumcps/tupli/internal/service/registry"
	"github.com/tumcps/tupli/pkg/schema"
)

// ResourceHandler serves benchmarks, artifacts, and episodes.
type ResourceHandler struct {
	registry registry.Service
}

// NewResourceHandler creates the handler for the resource routes.
func NewResourceHandler(svc registry.Service) *ResourceHandler {
	return &ResourceHandler{registry: svc}
}

// Mount registers the resource routes.
func (h *ResourceHandler) Mount(r chi.Router) {
	r.Route("/benchmarks", func(r chi.Router) {
		r.Post("/create", h.CreateBenchmark)
		r.Get("/load", h.LoadBenchmark)
		r.Post("/list", h.ListBenchmarks)
		r.Put("/publish", h.PublishBenchmark)
		r.Put("/unpublish", h.UnpublishBenchmark)
		r.Delete("/delete", h.DeleteBenchmark)
	})
	r.Route("/artifacts", func(r chi.Router) {
		r.Post("/upload", h.UploadArtifact)
		r.Get("/download", h.DownloadArtifact)
		r.Post("/list", h.ListArtifacts)
		r.Put("/publish", h.PublishArtifact)
		r.Put("/unpublish", h.UnpublishArtifact)
		r.Delete("/delete", h.DeleteArtifact)
	})
	r.Route("/episodes", func(r chi.Router) {
		r.Post("/record", h.RecordEpisode)
		r.Post("/list", h.ListEpisodes)
		r.Put("/publish", h.PublishEpisode)
		r.Put("/unpublish", h.UnpublishEpisode)
		r.Delete("/delete", h.DeleteEpisode)
	})
}

// requireQuery returns a named query parameter or a validation error.
func requireQuery(r *http.Request, name string) (string, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return "", schema.Validationf("%s is required", name)
	}
	return value, nil
}

func (h *ResourceHandler) CreateBenchmark(w http.ResponseWriter, r *http.Request) {
	var query schema.BenchmarkQuery
	if err := decodeBody(r, &query); err != nil {
		respondError(w, err)
		return
	}
	header, err := h.registry.CreateBenchmark(r.Context(), CallerFromContext(r.Context()), query)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, header)
}

func (h *ResourceHandler) LoadBenchmark(w http.ResponseWriter, r *http.Request) {
	id, err := requireQuery(r, "benchmark_id")
	if err != nil {
		respondError(w, err)
		return
	}
	benchmark, err := h.registry.LoadBenchmark(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, benchmark)
}

func (h *ResourceHandler) ListBenchmarks(w http.ResponseWriter, r *http.Request) {
	var filter schema.Filter
	if err := decodeBody(r, &filter); err != nil {
		respondError(w, err)
		return
	}
	headers, err := h.registry.ListBenchmarks(r.Context(), CallerFromContext(r.Context()), &filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, headers)
}

func (h *ResourceHandler) PublishBenchmark(w http.ResponseWriter, r *http.Request) {
	id, err := requireQuery(r, "benchmark_id")
	if err != nil {
		respondError(w, err)
		return
	}
	group, err := requireQuery(r, "publish_in")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.registry.PublishBenchmark(r.Context(), CallerFromContext(r.Context()), id, group); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *ResourceHandler) UnpublishBenchmark(w http.ResponseWriter, r *http.Request) {
	id, err := requireQuery(r, "benchmark_id")
	if err != nil {
		respondError(w, err)
		return
	}
	group, err := requireQuery(r, "unpublish_from")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.registry.UnpublishBenchmark(r.Context(), CallerFromContext(r.Context()), id, group); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *ResourceHandler) DeleteBenchmark(w http.ResponseWriter, r *http.Request) {
	id, err := requireQuery(r, "benchmark_id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.registry.DeleteBenchmark(r.Context(), CallerFromContext(r.Context()), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}
