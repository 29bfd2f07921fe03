package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/tracker/pkg/types"
)

// newSessionToken returns a random v4 UUID.
func newSessionToken() string {
	return uuid.New().String()
}

// CreateSession issues a random token for userID valid for ttl.
func (b *Backend) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*types.Session, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, types.ErrInvalidData
	}

	var exists int
	err = db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE user_id = ?", userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrInvalidUser
	}
	if err != nil {
		return nil, fmt.Errorf("checking user %s: %w", userID, err)
	}

	now := b.now().UTC()
	s := &types.Session{
		Token:     newSessionToken(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		s.Token, s.UserID, formatTime(s.CreatedAt), formatTime(s.ExpiresAt)); err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return s, nil
}

// FindSession resolves a token. Unknown and expired tokens return
// ErrNotFound.
func (b *Backend) FindSession(ctx context.Context, token string) (*types.Session, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, types.ErrNotFound
	}

	var (
		s                    types.Session
		createdAt, expiresAt string
	)
	err = db.QueryRowContext(ctx,
		"SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?", token,
	).Scan(&s.Token, &s.UserID, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing session created_at: %w", err)
	}
	if s.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("parsing session expires_at: %w", err)
	}
	if s.Expired(b.now()) {
		return nil, types.ErrNotFound
	}
	return &s, nil
}

// DeleteExpiredSessions removes sessions past their expiry and returns how
// many were removed.
func (b *Backend) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	db, err := b.conn()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", formatTime(b.now()))
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	return res.RowsAffected()
}
