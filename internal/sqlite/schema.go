package sqlite

import (
	"database/sql"
	"fmt"
)

// Schema DDL for all tables.
const (
	createUsers = `CREATE TABLE IF NOT EXISTS users (
    user_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL
);`

	createIssues = `CREATE TABLE IF NOT EXISTS issues (
    issue_id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN', 'IN_PROGRESS', 'CLOSED')),
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    assigned_to_user_id TEXT,
    FOREIGN KEY (assigned_to_user_id) REFERENCES users(user_id) ON DELETE SET NULL
);`

	createSessions = `CREATE TABLE IF NOT EXISTS sessions (
    token TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    expires_at TEXT NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
);`
)

// Index DDL for common queries.
const (
	idxIssuesStatus    = `CREATE INDEX IF NOT EXISTS idx_issues_status ON issues(status);`
	idxIssuesCreatedAt = `CREATE INDEX IF NOT EXISTS idx_issues_created_at ON issues(created_at);`
	idxIssuesTitle     = `CREATE INDEX IF NOT EXISTS idx_issues_title ON issues(title);`
	idxIssuesAssignee  = `CREATE INDEX IF NOT EXISTS idx_issues_assignee ON issues(assigned_to_user_id);`
	idxSessionsUser    = `CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createUsers,
	createIssues,
	createSessions,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxIssuesStatus,
	idxIssuesCreatedAt,
	idxIssuesTitle,
	idxIssuesAssignee,
	idxSessionsUser,
}

// applySchema creates any missing tables and indexes. Safe to run on every
// Attach.
func applySchema(db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}
