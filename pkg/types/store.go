package types

import (
	"context"
	"time"
)

// IssueStore is the record-store capability the listing and mutation code
// runs against. Implementations return ErrNotFound for missing ids.
type IssueStore interface {
	// FindIssue returns the issue with the given id.
	FindIssue(ctx context.Context, id int64) (*Issue, error)

	// FindIssues returns the issues matching q.Filter, ordered ascending by
	// q.OrderBy, skipping q.Skip rows and returning at most q.Take rows.
	FindIssues(ctx context.Context, q IssueQuery) ([]*Issue, error)

	// CountIssues returns the number of issues matching f.
	CountIssues(ctx context.Context, f IssueFilter) (int, error)

	// CreateIssue inserts a new issue and returns it with its assigned id.
	CreateIssue(ctx context.Context, title, description string) (*Issue, error)

	// UpdateIssue applies u to the issue and returns the stored result.
	UpdateIssue(ctx context.Context, id int64, u IssueUpdate) (*Issue, error)

	// DeleteIssue removes the issue permanently.
	DeleteIssue(ctx context.Context, id int64) error
}

// UserStore manages assignable users.
type UserStore interface {
	CreateUser(ctx context.Context, name, email string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	AssignIssue(ctx context.Context, issueID int64, userID *string) (*Issue, error)
}

// SessionStore issues and resolves session tokens.
type SessionStore interface {
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (*Session, error)
	FindSession(ctx context.Context, token string) (*Session, error)
}

// Store is a full record store: issues, users and sessions behind one
// attach/detach lifecycle.
type Store interface {
	IssueStore
	UserStore
	SessionStore

	// Attach opens the store described by config.
	Attach(config Config) error

	// Detach releases the store. It is safe to call more than once.
	Detach() error
}
