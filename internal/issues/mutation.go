package issues

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/mesh-intelligence/tracker/internal/metrics"
	"github.com/mesh-intelligence/tracker/pkg/types"
)

// Sessions is the "current session or none" capability. It returns a nil
// session and nil error when the caller is anonymous.
type Sessions interface {
	CurrentSession(ctx context.Context) (*types.Session, error)
}

// Handler runs single-issue mutations through an ordered gate sequence:
// authentication, validation (when there is a body), existence, then the
// store write. The first failing gate ends the request.
type Handler struct {
	store    types.IssueStore
	sessions Sessions
	logger   *slog.Logger
}

// NewHandler creates a Handler. A nil logger discards output.
func NewHandler(store types.IssueStore, sessions Sessions, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{store: store, sessions: sessions, logger: logger}
}

// mutation is the state threaded through the gates of one request.
type mutation struct {
	rawID   string
	body    []byte
	session *types.Session
	form    *IssueForm
	issue   *types.Issue
}

// gate is one fallible step of the pipeline.
type gate func(ctx context.Context, m *mutation) error

// Update replaces the title and description of the issue named by rawID
// and returns the stored record.
func (h *Handler) Update(ctx context.Context, rawID string, body []byte) (*types.Issue, error) {
	m := &mutation{rawID: rawID, body: body}
	if err := h.run(ctx, "update", m, h.authenticate, h.validate, h.locate, h.commitUpdate); err != nil {
		return nil, err
	}
	return m.issue, nil
}

// Delete permanently removes the issue named by rawID.
func (h *Handler) Delete(ctx context.Context, rawID string) error {
	m := &mutation{rawID: rawID}
	return h.run(ctx, "delete", m, h.authenticate, h.locate, h.commitDelete)
}

// Create inserts a new issue from body.
func (h *Handler) Create(ctx context.Context, body []byte) (*types.Issue, error) {
	m := &mutation{body: body}
	if err := h.run(ctx, "create", m, h.authenticate, h.validate, h.commitCreate); err != nil {
		return nil, err
	}
	return m.issue, nil
}

func (h *Handler) run(ctx context.Context, op string, m *mutation, gates ...gate) error {
	var err error
	for _, g := range gates {
		if err = g(ctx, m); err != nil {
			break
		}
	}

	outcome := Outcome(err)
	metrics.IssueMutations.WithLabelValues(op, outcome).Inc()
	if outcome == "error" {
		h.logger.ErrorContext(ctx, "issue mutation failed", "op", op, "id", m.rawID, "error", err)
	} else {
		h.logger.DebugContext(ctx, "issue mutation", "op", op, "id", m.rawID, "outcome", outcome)
	}
	return err
}

func (h *Handler) authenticate(ctx context.Context, m *mutation) error {
	s, err := h.sessions.CurrentSession(ctx)
	if err != nil {
		return internalError("resolve session", err)
	}
	if s == nil {
		return ErrUnauthorized
	}
	m.session = s
	return nil
}

func (h *Handler) validate(_ context.Context, m *mutation) error {
	form, err := DecodeForm(m.body)
	if err != nil {
		return err
	}
	m.form = form
	return nil
}

// locate resolves the path id. Ids that are not positive integers cannot
// name a row and fail without a lookup.
func (h *Handler) locate(ctx context.Context, m *mutation) error {
	id, err := strconv.ParseInt(m.rawID, 10, 64)
	if err != nil || id < 1 {
		return ErrNotFound
	}
	issue, err := h.store.FindIssue(ctx, id)
	if errors.Is(err, types.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return internalError("find issue", err)
	}
	m.issue = issue
	return nil
}

func (h *Handler) commitUpdate(ctx context.Context, m *mutation) error {
	updated, err := h.store.UpdateIssue(ctx, m.issue.ID, types.IssueUpdate{
		Title:       m.form.Title,
		Description: *m.form.Description,
	})
	if errors.Is(err, types.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return internalError("update issue", err)
	}
	m.issue = updated
	return nil
}

func (h *Handler) commitDelete(ctx context.Context, m *mutation) error {
	err := h.store.DeleteIssue(ctx, m.issue.ID)
	if errors.Is(err, types.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return internalError("delete issue", err)
	}
	m.issue = nil
	return nil
}

func (h *Handler) commitCreate(ctx context.Context, m *mutation) error {
	created, err := h.store.CreateIssue(ctx, m.form.Title, *m.form.Description)
	if err != nil {
		return internalError("create issue", err)
	}
	m.issue = created
	m.rawID = strconv.FormatInt(created.ID, 10)
	return nil
}
