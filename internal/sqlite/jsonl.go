package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/tracker/pkg/types"
)

// IssuesJSONL is the default export file name inside the data directory.
const IssuesJSONL = "issues.jsonl"

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err = w.Write(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		if err = w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ExportIssues writes every issue, ordered by id, to path as JSONL and
// returns the number of records written.
func (b *Backend) ExportIssues(ctx context.Context, path string) (int, error) {
	db, err := b.conn()
	if err != nil {
		return 0, err
	}
	rows, err := db.QueryContext(ctx, "SELECT "+issueColumns+" FROM issues ORDER BY issue_id ASC")
	if err != nil {
		return 0, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		is, err := scanIssue(rows)
		if err != nil {
			return 0, err
		}
		rec, err := json.Marshal(issueJSON{
			IssueID:          is.ID,
			Title:            is.Title,
			Description:      is.Description,
			Status:           string(is.Status),
			CreatedAt:        formatTime(is.CreatedAt),
			UpdatedAt:        formatTime(is.UpdatedAt),
			AssignedToUserID: is.AssignedToUserID,
		})
		if err != nil {
			return 0, fmt.Errorf("marshaling issue %d: %w", is.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating issues: %w", err)
	}

	if err := writeJSONL(path, records); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return len(records), nil
}

// parseImportTime accepts any RFC 3339 timestamp, with or without
// fractional seconds or a UTC offset.
func parseImportTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// ImportIssues loads issues from a JSONL file in one transaction and
// returns how many were inserted. Ids are preserved; records whose id
// already exists, whose status is unknown or whose title is blank are
// skipped. Times are normalized to the stored UTC layout. Assignees that do not resolve to a user are dropped.
func (b *Backend) ImportIssues(ctx context.Context, path string) (int, error) {
	db, err := b.conn()
	if err != nil {
		return 0, err
	}
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, raw := range records {
		var rec issueJSON
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.IssueID <= 0 || strings.TrimSpace(rec.Title) == "" || !types.Status(rec.Status).Valid() {
			continue
		}
		created, err := parseImportTime(rec.CreatedAt)
		if err != nil {
			continue
		}
		updated, err := parseImportTime(rec.UpdatedAt)
		if err != nil {
			updated = created
		}

		var assignee any
		if rec.AssignedToUserID != nil {
			var exists int
			if err := tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE user_id = ?", *rec.AssignedToUserID).Scan(&exists); err == nil {
				assignee = *rec.AssignedToUserID
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO issues (issue_id, title, description, status, created_at, updated_at, assigned_to_user_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(issue_id) DO NOTHING`,
			rec.IssueID, rec.Title, rec.Description, rec.Status, formatTime(created), formatTime(updated), assignee)
		if err != nil {
			return 0, fmt.Errorf("inserting issue %d: %w", rec.IssueID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import transaction: %w", err)
	}
	return inserted, nil
}
