package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mesh-intelligence/tracker/internal/issues"
	"github.com/mesh-intelligence/tracker/pkg/types"
)

type IssueHandler struct {
	resolver *issues.Resolver
	mutator  *issues.Handler
	store    types.IssueStore
	logger   *slog.Logger
}

func NewIssueHandler(resolver *issues.Resolver, mutator *issues.Handler, store types.IssueStore, logger *slog.Logger) *IssueHandler {
	return &IssueHandler{resolver: resolver, mutator: mutator, store: store, logger: logger}
}

// List handles GET /issues
func (h *IssueHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.resolver.List(r.Context(), issues.Params{
		Status:  q.Get("status"),
		OrderBy: q.Get("orderBy"),
		Page:    q.Get("page"),
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list issues failed", "error", err)
		writeIssueError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /issues/{id}
func (h *IssueHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusNotFound, notFoundBody)
		return
	}
	issue, err := h.store.FindIssue(r.Context(), id)
	if errors.Is(err, types.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFoundBody)
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "find issue failed", "id", id, "error", err)
		writeInternal(w)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

// Create handles POST /issues
func (h *IssueHandler) Create(w http.ResponseWriter, r *http.Request) {
	issue, err := h.mutator.Create(r.Context(), readBody(w, r))
	if err != nil {
		writeIssueError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

// Update handles PATCH /issues/{id}
func (h *IssueHandler) Update(w http.ResponseWriter, r *http.Request) {
	issue, err := h.mutator.Update(r.Context(), chi.URLParam(r, "id"), readBody(w, r))
	if err != nil {
		writeIssueError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

// Delete handles DELETE /issues/{id}
func (h *IssueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.mutator.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeIssueError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}
