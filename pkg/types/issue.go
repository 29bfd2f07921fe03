package types

import "time"

// Status is the lifecycle state of an issue.
type Status string

// Issue statuses. The set is closed; new issues start OPEN.
const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusClosed     Status = "CLOSED"
)

// DefaultStatus is assigned to issues created without an explicit status.
const DefaultStatus = StatusOpen

// validStatuses is the set of recognized status values.
var validStatuses = map[Status]bool{
	StatusOpen:       true,
	StatusInProgress: true,
	StatusClosed:     true,
}

// Statuses returns the status set in display order.
func Statuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusClosed}
}

// Valid reports whether s is a member of the status set.
func (s Status) Valid() bool {
	return validStatuses[s]
}

// Issue is a tracked unit of work.
type Issue struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	AssignedToUserID *string   `json:"assignedToUserId"`
}

// IssueUpdate carries the fields a mutation may change. Everything else on
// the record (id, status, createdAt, assignee) is left as stored.
type IssueUpdate struct {
	Title       string
	Description string
}

// SortField identifies the single column a listing is ordered by.
type SortField string

// Sortable fields. Listings are always ascending.
const (
	SortTitle     SortField = "title"
	SortStatus    SortField = "status"
	SortCreatedAt SortField = "createdAt"
)

// IssueFilter constrains which issues a listing or count considers.
// A zero Status means no status constraint.
type IssueFilter struct {
	Status Status
}

// IssueQuery is a bounded read: filter, one ascending sort key, and a window.
// Take == 0 means unbounded (every matching row).
type IssueQuery struct {
	Filter  IssueFilter
	OrderBy SortField
	Skip    int
	Take    int
}
