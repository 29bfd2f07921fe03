package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tracker/pkg/types"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Detach() })

	is, err := store.CreateIssue(ctx, "Public API", "")
	require.NoError(t, err)

	u, err := store.CreateUser(ctx, "Lin", "lin@example.com")
	require.NoError(t, err)
	assigned, err := store.AssignIssue(ctx, is.ID, &u.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedToUserID)
	assert.Equal(t, u.ID, *assigned.AssignedToUserID)

	s, err := store.CreateSession(ctx, u.ID, time.Hour)
	require.NoError(t, err)
	found, err := store.FindSession(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.UserID)

	require.NoError(t, store.Detach())
	_, err = store.FindIssue(ctx, is.ID)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestNewBackendStartsDetached(t *testing.T) {
	_, err := NewBackend().FindIssue(context.Background(), 1)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}
