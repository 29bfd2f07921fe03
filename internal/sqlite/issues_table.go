package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/tracker/pkg/types"
)

// sortColumns maps each sortable field to its column. Only these columns
// ever appear in an ORDER BY clause.
var sortColumns = map[types.SortField]string{
	types.SortTitle:     "title",
	types.SortStatus:    "status",
	types.SortCreatedAt: "created_at",
}

const issueColumns = "issue_id, title, description, status, created_at, updated_at, assigned_to_user_id"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (*types.Issue, error) {
	var (
		is                   types.Issue
		status               string
		createdAt, updatedAt string
		assignee             sql.NullString
	)
	err := row.Scan(&is.ID, &is.Title, &is.Description, &status, &createdAt, &updatedAt, &assignee)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning issue: %w", err)
	}
	is.Status = types.Status(status)
	if is.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing issue created_at: %w", err)
	}
	if is.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing issue updated_at: %w", err)
	}
	if assignee.Valid {
		v := assignee.String
		is.AssignedToUserID = &v
	}
	return &is, nil
}

// whereClause renders the filter as a WHERE clause and its arguments. The
// same function serves listing and counting so the two never diverge.
func whereClause(f types.IssueFilter) (string, []any, error) {
	if f.Status == "" {
		return "", nil, nil
	}
	if !f.Status.Valid() {
		return "", nil, types.ErrInvalidStatus
	}
	return " WHERE status = ?", []any{string(f.Status)}, nil
}

// FindIssue returns the issue with the given id, or ErrNotFound.
func (b *Backend) FindIssue(ctx context.Context, id int64) (*types.Issue, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, "SELECT "+issueColumns+" FROM issues WHERE issue_id = ?", id)
	is, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find issue %d: %w", id, err)
	}
	return is, nil
}

// FindIssues returns one window of issues matching q, ascending by
// q.OrderBy with the id as tie-breaker.
func (b *Backend) FindIssues(ctx context.Context, q types.IssueQuery) ([]*types.Issue, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	column, ok := sortColumns[q.OrderBy]
	if !ok {
		return nil, types.ErrInvalidSort
	}
	if q.Skip < 0 || q.Take < 0 {
		return nil, types.ErrInvalidData
	}
	where, args, err := whereClause(q.Filter)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + issueColumns + " FROM issues")
	sb.WriteString(where)
	sb.WriteString(" ORDER BY " + column + " ASC, issue_id ASC")
	switch {
	case q.Take > 0:
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, q.Take, q.Skip)
	case q.Skip > 0:
		sb.WriteString(" LIMIT -1 OFFSET ?")
		args = append(args, q.Skip)
	}

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	issues := []*types.Issue{}
	for rows.Next() {
		is, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, is)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issues: %w", err)
	}
	return issues, nil
}

// CountIssues returns the number of issues matching f.
func (b *Backend) CountIssues(ctx context.Context, f types.IssueFilter) (int, error) {
	db, err := b.conn()
	if err != nil {
		return 0, err
	}
	where, args, err := whereClause(f)
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM issues"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting issues: %w", err)
	}
	return n, nil
}

// CreateIssue inserts a new OPEN issue.
func (b *Backend) CreateIssue(ctx context.Context, title, description string) (*types.Issue, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, types.ErrInvalidTitle
	}

	now := formatTime(b.now())
	res, err := db.ExecContext(ctx,
		"INSERT INTO issues (title, description, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		title, description, string(types.DefaultStatus), now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting issue: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading issue id: %w", err)
	}
	return b.FindIssue(ctx, id)
}

// UpdateIssue writes title and description onto an existing issue. Status,
// creation time and assignee are not touched. Returns ErrNotFound when no
// row has the id.
func (b *Backend) UpdateIssue(ctx context.Context, id int64, u types.IssueUpdate) (*types.Issue, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(u.Title) == "" {
		return nil, types.ErrInvalidTitle
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE issues SET title = ?, description = ?, updated_at = ? WHERE issue_id = ?",
		u.Title, u.Description, formatTime(b.now()), id)
	if err != nil {
		return nil, fmt.Errorf("updating issue %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("updating issue %d: %w", id, err)
	} else if n == 0 {
		return nil, types.ErrNotFound
	}

	is, err := scanIssue(tx.QueryRowContext(ctx, "SELECT "+issueColumns+" FROM issues WHERE issue_id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("reloading issue %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing issue %d: %w", id, err)
	}
	return is, nil
}

// DeleteIssue removes the issue. The assignee is a weak reference and is
// left alone. Returns ErrNotFound when no row has the id.
func (b *Backend) DeleteIssue(ctx context.Context, id int64) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, "DELETE FROM issues WHERE issue_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting issue %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting issue %d: %w", id, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// SetIssueStatus moves an issue to another status.
func (b *Backend) SetIssueStatus(ctx context.Context, id int64, status types.Status) (*types.Issue, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, types.ErrInvalidStatus
	}
	res, err := db.ExecContext(ctx,
		"UPDATE issues SET status = ?, updated_at = ? WHERE issue_id = ?",
		string(status), formatTime(b.now()), id)
	if err != nil {
		return nil, fmt.Errorf("setting status of issue %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("setting status of issue %d: %w", id, err)
	} else if n == 0 {
		return nil, types.ErrNotFound
	}
	return b.FindIssue(ctx, id)
}
