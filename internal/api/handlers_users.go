package api

import (
	"log/slog"
	"net/http"

	"github.com/mesh-intelligence/tracker/pkg/types"
)

type UserHandler struct {
	store  types.UserStore
	logger *slog.Logger
}

func NewUserHandler(store types.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{store: store, logger: logger}
}

// List handles GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list users failed", "error", err)
		writeInternal(w)
		return
	}
	if users == nil {
		users = []*types.User{}
	}
	writeJSON(w, http.StatusOK, users)
}
