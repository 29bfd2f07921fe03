package issues

import (
	"context"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/tracker/internal/metrics"
	"github.com/mesh-intelligence/tracker/pkg/types"
)

// PageSize is the number of issues in one listing page.
const PageSize = 10

// AllSentinel is the status value that lists every issue without paging.
const AllSentinel = "All"

// DefaultSort is used whenever the requested sort key is not allow-listed.
const DefaultSort = types.SortCreatedAt

// sortKeys maps external orderBy values to sortable fields.
var sortKeys = map[string]types.SortField{
	"title":     types.SortTitle,
	"status":    types.SortStatus,
	"createdAt": types.SortCreatedAt,
}

// Params are the raw, untrusted listing query parameters.
type Params struct {
	Status  string
	OrderBy string
	Page    string
}

// Query is the sanitized form of Params.
type Query struct {
	Filter  types.IssueFilter
	OrderBy types.SortField
	Page    int
	All     bool
}

// ResolveParams turns raw parameters into a Query. It never fails:
// unknown statuses mean no constraint, unknown sort keys mean DefaultSort,
// and unusable page numbers mean page 1.
func ResolveParams(p Params) Query {
	q := Query{
		OrderBy: DefaultSort,
		Page:    ParsePage(p.Page),
		All:     strings.EqualFold(p.Status, AllSentinel),
	}
	if s := types.Status(p.Status); s.Valid() {
		q.Filter.Status = s
	}
	if f, ok := sortKeys[p.OrderBy]; ok {
		q.OrderBy = f
	}
	if q.All {
		q.Page = 1
	}
	return q
}

// ParsePage parses a 1-based page number. Anything that is not a positive
// base-10 integer yields 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// StoreQuery returns the store read for q. All mode reads every matching
// row; otherwise one PageSize window.
func (q Query) StoreQuery() types.IssueQuery {
	sq := types.IssueQuery{Filter: q.Filter, OrderBy: q.OrderBy}
	if !q.All {
		sq.Skip = (q.Page - 1) * PageSize
		sq.Take = PageSize
	}
	return sq
}

// Page is one resolved listing.
type Page struct {
	Issues    []*types.Issue  `json:"issues"`
	Total     int             `json:"total"`
	Page      int             `json:"page"`
	PageSize  int             `json:"pageSize"`
	PageCount int             `json:"pageCount"`
	OrderBy   types.SortField `json:"orderBy"`
	Status    types.Status    `json:"status,omitempty"`
	All       bool            `json:"all"`
}

// Resolver lists issues from a store.
type Resolver struct {
	store types.IssueStore
}

// NewResolver creates a Resolver reading from store.
func NewResolver(store types.IssueStore) *Resolver {
	return &Resolver{store: store}
}

// List resolves p and reads the matching window plus the total count. The
// count always uses the same filter as the listing. Store failures are
// returned as *InternalError and no partial page is produced.
func (r *Resolver) List(ctx context.Context, p Params) (*Page, error) {
	q := ResolveParams(p)
	sq := q.StoreQuery()

	issues, err := r.store.FindIssues(ctx, sq)
	if err != nil {
		return nil, internalError("find issues", err)
	}
	total, err := r.store.CountIssues(ctx, sq.Filter)
	if err != nil {
		return nil, internalError("count issues", err)
	}

	mode := "paged"
	if q.All {
		mode = "all"
	}
	metrics.IssueListings.WithLabelValues(mode).Inc()

	page := &Page{
		Issues:    issues,
		Total:     total,
		Page:      q.Page,
		PageSize:  PageSize,
		PageCount: pageCount(total, q.All),
		OrderBy:   q.OrderBy,
		Status:    q.Filter.Status,
		All:       q.All,
	}
	if page.Issues == nil {
		page.Issues = []*types.Issue{}
	}
	return page, nil
}

func pageCount(total int, all bool) int {
	switch {
	case total == 0:
		return 0
	case all:
		return 1
	default:
		return (total + PageSize - 1) / PageSize
	}
}
