package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mesh-intelligence/tracker/internal/issues"
)

// maxBodyBytes caps request bodies; larger bodies fail validation.
const maxBodyBytes = 1 << 20

// notFoundBody is the 404 payload for any issue that cannot be located.
const notFoundBody = "Invalid issue"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeInternal(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// writeIssueError maps the issues error taxonomy onto HTTP. Internal
// causes are never written to the client.
func writeIssueError(w http.ResponseWriter, err error) {
	var verr *issues.ValidationError
	switch {
	case errors.Is(err, issues.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, struct{}{})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, issues.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundBody)
	default:
		writeInternal(w)
	}
}

// readBody reads at most maxBodyBytes. A body that cannot be read is
// returned as nil so the validation gate rejects it.
func readBody(w http.ResponseWriter, r *http.Request) []byte {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil
	}
	return body
}
