package issues

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mesh-intelligence/tracker/pkg/types"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore is an in-memory IssueStore that records every call.
type fakeStore struct {
	mu      sync.Mutex
	issues  map[int64]*types.Issue
	nextID  int64
	calls   map[string]int
	queries []types.IssueQuery
	counts  []types.IssueFilter

	// fail makes the named operation return errStoreDown.
	fail map[string]bool
	// vanish deletes the row right before UpdateIssue/DeleteIssue run.
	vanish bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		issues: make(map[int64]*types.Issue),
		calls:  make(map[string]int),
		fail:   make(map[string]bool),
	}
}

func (f *fakeStore) seed(title string, status types.Status) *types.Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	created := time.Date(2024, 1, 1, 0, 0, int(f.nextID), 0, time.UTC)
	is := &types.Issue{
		ID:        f.nextID,
		Title:     title,
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
	f.issues[is.ID] = is
	cp := *is
	return &cp
}

func (f *fakeStore) record(op string) error {
	f.calls[op]++
	if f.fail[op] {
		return errStoreDown
	}
	return nil
}

func (f *fakeStore) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeStore) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls["create"] + f.calls["update"] + f.calls["delete"]
}

func (f *fakeStore) FindIssue(_ context.Context, id int64) (*types.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("find"); err != nil {
		return nil, err
	}
	is, ok := f.issues[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	cp := *is
	return &cp, nil
}

func (f *fakeStore) matching(filter types.IssueFilter) []*types.Issue {
	var out []*types.Issue
	for _, is := range f.issues {
		if filter.Status == "" || is.Status == filter.Status {
			cp := *is
			out = append(out, &cp)
		}
	}
	return out
}

func (f *fakeStore) FindIssues(_ context.Context, q types.IssueQuery) ([]*types.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if err := f.record("list"); err != nil {
		return nil, err
	}
	out := f.matching(q.Filter)
	sort.Slice(out, func(i, j int) bool {
		var less, equal bool
		switch q.OrderBy {
		case types.SortTitle:
			less, equal = out[i].Title < out[j].Title, out[i].Title == out[j].Title
		case types.SortStatus:
			less, equal = out[i].Status < out[j].Status, out[i].Status == out[j].Status
		default:
			less, equal = out[i].CreatedAt.Before(out[j].CreatedAt), out[i].CreatedAt.Equal(out[j].CreatedAt)
		}
		if equal {
			return out[i].ID < out[j].ID
		}
		return less
	})
	if q.Skip >= len(out) {
		return []*types.Issue{}, nil
	}
	out = out[q.Skip:]
	if q.Take > 0 && q.Take < len(out) {
		out = out[:q.Take]
	}
	return out, nil
}

func (f *fakeStore) CountIssues(_ context.Context, filter types.IssueFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = append(f.counts, filter)
	if err := f.record("count"); err != nil {
		return 0, err
	}
	return len(f.matching(filter)), nil
}

func (f *fakeStore) CreateIssue(_ context.Context, title, description string) (*types.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create"); err != nil {
		return nil, err
	}
	f.nextID++
	now := time.Now().UTC()
	is := &types.Issue{ID: f.nextID, Title: title, Description: description, Status: types.DefaultStatus, CreatedAt: now, UpdatedAt: now}
	f.issues[is.ID] = is
	cp := *is
	return &cp, nil
}

func (f *fakeStore) UpdateIssue(_ context.Context, id int64, u types.IssueUpdate) (*types.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update"); err != nil {
		return nil, err
	}
	if f.vanish {
		delete(f.issues, id)
	}
	is, ok := f.issues[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	is.Title = u.Title
	is.Description = u.Description
	is.UpdatedAt = is.UpdatedAt.Add(time.Minute)
	cp := *is
	return &cp, nil
}

func (f *fakeStore) DeleteIssue(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete"); err != nil {
		return err
	}
	if f.vanish {
		delete(f.issues, id)
	}
	if _, ok := f.issues[id]; !ok {
		return types.ErrNotFound
	}
	delete(f.issues, id)
	return nil
}

// staticSessions is a Sessions capability with a fixed answer.
type staticSessions struct {
	session *types.Session
	err     error
	calls   int
}

func (s *staticSessions) CurrentSession(context.Context) (*types.Session, error) {
	s.calls++
	return s.session, s.err
}

func signedIn() *staticSessions {
	return &staticSessions{session: &types.Session{Token: "tok", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}}
}

func anonymous() *staticSessions {
	return &staticSessions{}
}
