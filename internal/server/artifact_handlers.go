package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tumcps/tupli/pkg/schema"
)

// maxUploadBytes caps artifact uploads at 256 MiB.
const maxUploadBytes = 256 << 20

type artifactUploadResponse struct {
	ID string `json:"id"`
}

// UploadArtifact accepts a multipart form: the blob under the file field
// "data", its metadata as JSON under the form field "metadata".
func (h *ResourceHandler) UploadArtifact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, schema.Validationf("invalid multipart form: %v", err))
		return
	}

	file, _, err := r.FormFile("data")
	if err != nil {
		respondError(w, schema.Validationf("missing file field data"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, schema.StorageErr("reading upload", err))
		return
	}

	var metadata schema.ArtifactMetadata
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			respondError(w, schema.Validationf("invalid metadata: %v", err))
			return
		}
	}

	item, err := h.registry.StoreArtifact(r.Context(), CallerFromContext(r.Context()), data, metadata)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, artifactUploadResponse{ID: item.ID})
}

// DownloadArtifact streams the blob. The metadata travels as JSON in the
// X-Metadata response header so the body stays raw bytes.
func (h *ResourceHandler) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	id, err := requireQuery(r, "artifact_id")
	if err != nil {
		respondError(w, err)
		return
	}
	item, data, err := h.registry.LoadArtifact(r.Context(), CallerFromContext(r.Context()), id)
	if err != nil {
		respondError(w, err)
		return
	}
	meta, err := json.Marshal(item)
	if err != nil {
		respondError(w, schema.StorageErr("encoding metadata", err))
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Metadata", string(meta))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ResourceHandler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	var filter schema.Filter
	if err := decodeBody(r, &filter); err != nil {
		respondError(w, err)
		return
	}
	items, err := h.registry.ListArtifacts(r.Context(), CallerFromContext(r.Context()), &filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *ResourceHandler) PublishArtifact(w http.ResponseWriter, r *http.Request) {
	id, err := requireQuery(r, "artifact_id")
	if err != nil {
		respondError(w, err)
		return
	}
	group, err := requireQuery(r, "publish_in")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.registry.PublishArtifact(r.Context(), CallerFromContext(r.Context()), id, group); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *ResourceHandler) UnpublishArtifact(w http.ResponseWriter, r *http.Request) {
	id, err := requireQuery(r, "artifact_id")
	if err != nil {
		respondError(w, err)
		return
	}
	group, err := requireQuery(r, "unpublish_from")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.registry.UnpublishArtifact(r.Context(), CallerFromContext(r.Context()), id, group); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *ResourceHandler) DeleteArtifact(w http.ResponseWriter, r *http.Request) {
	id, err := requireQuery(r, "artifact_id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.registry.DeleteArtifact(r.Context(), CallerFromContext(r.Context()), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}
