package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/tumcps/tupli/pkg/schema"
)

// errorBody is the wire shape of every failure response.
type errorBody struct {
	Detail string `json:"detail"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// respondError maps the error taxonomy onto HTTP status codes. This is
// the only place status codes are decided; everything below the HTTP
// layer speaks typed errors.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch schema.KindOf(err) {
	case schema.ErrKindUnauthorized:
		status = http.StatusUnauthorized
	case schema.ErrKindForbidden:
		status = http.StatusForbidden
	case schema.ErrKindNotFound:
		status = http.StatusNotFound
	case schema.ErrKindConflict:
		status = http.StatusConflict
	case schema.ErrKindValidation:
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		respondJSON(w, status, errorBody{Detail: "internal server error"})
		return
	}
	respondJSON(w, status, errorBody{Detail: err.Error()})
}

// decodeBody parses a JSON request body into v. Malformed bodies are
// validation failures, not server errors.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return schema.Validationf("invalid request body: %v", err)
	}
	return nil
}
