package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/tracker/pkg/types"
)

// CreateUser adds an assignable user with a UUID v7 id.
func (b *Backend) CreateUser(ctx context.Context, name, email string) (*types.User, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, types.ErrInvalidUser
	}

	var exists int
	err = db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE email = ?", email).Scan(&exists)
	if err == nil {
		return nil, types.ErrDuplicateUser
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checking user email: %w", err)
	}

	u := &types.User{
		ID:        newUUID(),
		Name:      name,
		Email:     email,
		CreatedAt: b.now().UTC(),
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO users (user_id, name, email, created_at) VALUES (?, ?, ?, ?)",
		u.ID, u.Name, u.Email, formatTime(u.CreatedAt)); err != nil {
		return nil, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// ListUsers returns every user ordered by name.
func (b *Backend) ListUsers(ctx context.Context) ([]*types.User, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT user_id, name, email, created_at FROM users ORDER BY name ASC, user_id ASC")
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := []*types.User{}
	for rows.Next() {
		var (
			u         types.User
			createdAt string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		if u.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing user created_at: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// DeleteUser removes a user. Issues assigned to the user become unassigned
// and the user's sessions are removed.
func (b *Backend) DeleteUser(ctx context.Context, id string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if id == "" {
		return types.ErrInvalidID
	}
	res, err := db.ExecContext(ctx, "DELETE FROM users WHERE user_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	} else if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// AssignIssue sets or clears (userID == nil) the assignee of an issue.
func (b *Backend) AssignIssue(ctx context.Context, issueID int64, userID *string) (*types.Issue, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	var assignee any
	if userID != nil {
		var exists int
		err := db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE user_id = ?", *userID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrInvalidUser
		}
		if err != nil {
			return nil, fmt.Errorf("checking user %s: %w", *userID, err)
		}
		assignee = *userID
	}

	res, err := db.ExecContext(ctx,
		"UPDATE issues SET assigned_to_user_id = ?, updated_at = ? WHERE issue_id = ?",
		assignee, formatTime(b.now()), issueID)
	if err != nil {
		return nil, fmt.Errorf("assigning issue %d: %w", issueID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("assigning issue %d: %w", issueID, err)
	} else if n == 0 {
		return nil, types.ErrNotFound
	}
	return b.FindIssue(ctx, issueID)
}
