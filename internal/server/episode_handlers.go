package server

import (
	"net/http"

	"github.com/tumcps/tupli/pkg/schema"
)

func (h *ResourceHandler) RecordEpisode(w http.ResponseWriter, r *http.Request) {
	var episode schema.Episode
	if err := decodeBody(r, &episode); err != nil {
		respondError(w, err)
		return
	}
	header, err := h.registry.RecordEpisode(r.Context(), CallerFromContext(r.Context()), episode)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, header)
}

func (h *ResourceHandler) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	var query schema.EpisodesListQuery
	if err := decodeBody(r, &query); err != nil {
		respondError(w, err)
		return
	}
	items, err := h.registry.ListEpisodes(r.Context(), CallerFromContext(r.Context()), query)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *ResourceHandler) PublishEpisode(w http.ResponseWriter, r *http.Request) {
	id, err := requireQuery(r, "episode_id")
	if err != nil {
		respondError(w, err)
		return
	}
	group, err := requireQuery(r, "publish_in")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.registry.PublishEpisode(r.Context(), CallerFromContext(r.Context()), id, group); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *ResourceHandler) UnpublishEpisode(w http.ResponseWriter, r *http.Request) {
	id, err := requireQuery(r, "episode_id")
	if err != nil {
		respondError(w, err)
		return
	}
	group, err := requireQuery(r, "unpublish_from")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.registry.UnpublishEpisode(r.Context(), CallerFromContext(r.Context()), id, group); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *ResourceHandler) DeleteEpisode(w http.ResponseWriter, r *http.Request) {
	id, err := requireQuery(r, "episode_id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.registry.DeleteEpisode(r.Context(), CallerFromContext(r.Context()), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}
