package issues

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tracker/pkg/types"
)

const validBody = `{"title":"New title","description":"New description"}`

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("no session is unauthorized and never touches the store", func(t *testing.T) {
		store := newFakeStore()
		existing := store.seed("old", types.StatusOpen)
		h := NewHandler(store, anonymous(), nil)

		_, err := h.Update(ctx, strconv.FormatInt(existing.ID, 10), []byte(validBody))
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Zero(t, store.totalCalls())
	})

	t.Run("unauthorized wins over an invalid body", func(t *testing.T) {
		store := newFakeStore()
		h := NewHandler(store, anonymous(), nil)

		_, err := h.Update(ctx, "abc", []byte(`{`))
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Zero(t, store.totalCalls())
	})

	t.Run("session lookup failure is internal", func(t *testing.T) {
		store := newFakeStore()
		h := NewHandler(store, &staticSessions{err: errors.New("session backend down")}, nil)

		_, err := h.Update(ctx, "1", []byte(validBody))
		assert.ErrorIs(t, err, ErrInternal)
		assert.Zero(t, store.totalCalls())
	})

	t.Run("empty title is a validation error on title", func(t *testing.T) {
		store := newFakeStore()
		existing := store.seed("old", types.StatusOpen)
		h := NewHandler(store, signedIn(), nil)

		_, err := h.Update(ctx, strconv.FormatInt(existing.ID, 10), []byte(`{"title":"","description":"x"}`))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "title")
		assert.NotContains(t, verr.Fields, "description")
		assert.Zero(t, store.totalCalls())
	})

	t.Run("validation runs before existence", func(t *testing.T) {
		store := newFakeStore()
		h := NewHandler(store, signedIn(), nil)

		_, err := h.Update(ctx, "404", []byte(`{"description":"x"}`))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Zero(t, store.totalCalls())
	})

	t.Run("no matching record is not found", func(t *testing.T) {
		store := newFakeStore()
		store.seed("only", types.StatusOpen)
		h := NewHandler(store, signedIn(), nil)

		_, err := h.Update(ctx, "999", []byte(validBody))
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Zero(t, store.writes())
	})

	t.Run("non-integer id is not found without a lookup", func(t *testing.T) {
		for _, raw := range []string{"abc", "1.5", "", "0", "-2", "1e3"} {
			store := newFakeStore()
			store.seed("only", types.StatusOpen)
			h := NewHandler(store, signedIn(), nil)

			_, err := h.Update(ctx, raw, []byte(validBody))
			assert.ErrorIs(t, err, ErrNotFound, "id %q", raw)
			assert.Zero(t, store.totalCalls(), "id %q", raw)
		}
	})

	t.Run("success changes only title and description", func(t *testing.T) {
		store := newFakeStore()
		before := store.seed("old", types.StatusInProgress)
		h := NewHandler(store, signedIn(), nil)

		after, err := h.Update(ctx, strconv.FormatInt(before.ID, 10), []byte(validBody))
		require.NoError(t, err)
		assert.Equal(t, "New title", after.Title)
		assert.Equal(t, "New description", after.Description)
		assert.Equal(t, before.ID, after.ID)
		assert.Equal(t, before.Status, after.Status)
		assert.Equal(t, before.CreatedAt, after.CreatedAt)
		assert.Equal(t, before.AssignedToUserID, after.AssignedToUserID)
		assert.Equal(t, 1, store.calls["find"])
		assert.Equal(t, 1, store.calls["update"])
	})

	t.Run("empty description is allowed", func(t *testing.T) {
		store := newFakeStore()
		before := store.seed("old", types.StatusOpen)
		h := NewHandler(store, signedIn(), nil)

		after, err := h.Update(ctx, strconv.FormatInt(before.ID, 10), []byte(`{"title":"t","description":""}`))
		require.NoError(t, err)
		assert.Equal(t, "", after.Description)
	})

	t.Run("lookup fault is internal", func(t *testing.T) {
		store := newFakeStore()
		store.seed("old", types.StatusOpen)
		store.fail["find"] = true
		h := NewHandler(store, signedIn(), nil)

		_, err := h.Update(ctx, "1", []byte(validBody))
		assert.ErrorIs(t, err, ErrInternal)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.Zero(t, store.writes())
	})

	t.Run("write fault is internal", func(t *testing.T) {
		store := newFakeStore()
		store.seed("old", types.StatusOpen)
		store.fail["update"] = true
		h := NewHandler(store, signedIn(), nil)

		_, err := h.Update(ctx, "1", []byte(validBody))
		var ierr *InternalError
		require.ErrorAs(t, err, &ierr)
		assert.Equal(t, "update issue", ierr.Op)
		assert.ErrorIs(t, err, errStoreDown)
	})

	t.Run("row removed after lookup is not found", func(t *testing.T) {
		store := newFakeStore()
		store.seed("old", types.StatusOpen)
		store.vanish = true
		h := NewHandler(store, signedIn(), nil)

		_, err := h.Update(ctx, "1", []byte(validBody))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("no session is unauthorized", func(t *testing.T) {
		store := newFakeStore()
		store.seed("keep", types.StatusOpen)
		h := NewHandler(store, anonymous(), nil)

		assert.ErrorIs(t, h.Delete(ctx, "1"), ErrUnauthorized)
		assert.Zero(t, store.totalCalls())
	})

	t.Run("matching record is removed", func(t *testing.T) {
		store := newFakeStore()
		is := store.seed("remove me", types.StatusOpen)
		h := NewHandler(store, signedIn(), nil)

		require.NoError(t, h.Delete(ctx, strconv.FormatInt(is.ID, 10)))
		_, err := store.FindIssue(ctx, is.ID)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("non-matching id removes nothing", func(t *testing.T) {
		store := newFakeStore()
		store.seed("keep", types.StatusOpen)
		h := NewHandler(store, signedIn(), nil)

		assert.ErrorIs(t, h.Delete(ctx, "42"), ErrNotFound)
		assert.Zero(t, store.calls["delete"])
		n, err := store.CountIssues(ctx, types.IssueFilter{})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("write fault is internal", func(t *testing.T) {
		store := newFakeStore()
		store.seed("keep", types.StatusOpen)
		store.fail["delete"] = true
		h := NewHandler(store, signedIn(), nil)

		err := h.Delete(ctx, "1")
		assert.ErrorIs(t, err, ErrInternal)
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an open issue", func(t *testing.T) {
		store := newFakeStore()
		h := NewHandler(store, signedIn(), nil)

		is, err := h.Create(ctx, []byte(validBody))
		require.NoError(t, err)
		assert.Equal(t, "New title", is.Title)
		assert.Equal(t, types.StatusOpen, is.Status)
	})

	t.Run("requires a session", func(t *testing.T) {
		store := newFakeStore()
		_, err := NewHandler(store, anonymous(), nil).Create(ctx, []byte(validBody))
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.Zero(t, store.totalCalls())
	})

	t.Run("validates the body", func(t *testing.T) {
		store := newFakeStore()
		_, err := NewHandler(store, signedIn(), nil).Create(ctx, []byte(`{"title":"only title"}`))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "description")
		assert.Zero(t, store.totalCalls())
	})
}

func TestDecodeForm(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{name: "valid", body: validBody},
		{name: "empty description", body: `{"title":"t","description":""}`},
		{name: "missing both", body: `{}`, wantFields: []string{"title", "description"}},
		{name: "null body", body: `null`, wantFields: []string{"title", "description"}},
		{name: "blank title", body: `{"title":"   ","description":"d"}`, wantFields: []string{"title"}},
		{name: "title too long", body: `{"title":"` + strings.Repeat("x", 256) + `","description":"d"}`, wantFields: []string{"title"}},
		{name: "description null", body: `{"title":"t","description":null}`, wantFields: []string{"description"}},
		{name: "title wrong type", body: `{"title":5,"description":"d"}`, wantFields: []string{"title"}},
		{name: "not json", body: `title=x`, wantFields: []string{"body"}},
		{name: "empty", body: ``, wantFields: []string{"body"}},
		{name: "array", body: `[]`, wantFields: []string{"body"}},
		{name: "second object", body: `{"title":"a","description":"b"}{"title":""}`, wantFields: []string{"body"}},
		{name: "trailing garbage", body: `{"title":"a","description":"b"} xyz`, wantFields: []string{"body"}},
		{name: "trailing whitespace", body: "{\"title\":\"a\",\"description\":\"b\"}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form, err := DecodeForm([]byte(tt.body))
			if len(tt.wantFields) == 0 {
				require.NoError(t, err)
				require.NotNil(t, form)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Len(t, verr.Fields, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "unauthorized", Outcome(ErrUnauthorized))
	assert.Equal(t, "invalid", Outcome(&ValidationError{Fields: map[string]string{"title": "title is required"}}))
	assert.Equal(t, "not_found", Outcome(ErrNotFound))
	assert.Equal(t, "error", Outcome(internalError("find issue", errStoreDown)))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"title":       "title is required",
		"description": "description is required",
	}}
	assert.Equal(t, "validation failed: description: description is required; title: title is required", err.Error())
}
