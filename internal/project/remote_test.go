package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ghsql/internal/github"
	"github.com/mesh-intelligence/ghsql/pkg/types"
)

const testProjectID = "PVT_kwDOAx1"

// Column positions of the fixture project's items table.
const (
	colID = iota
	colRepository
	colIssue
	colTitle
	colAssignees
	colLabels
	colStatus
	colPoints
	colDue
	colSprint
	colParent
	colNotes
	itemsWidth
)

// mutation records one write sent to fakeRemote.
type mutation struct {
	op      string
	itemID  string
	fieldID string
	value   github.FieldValue
}

// fakeRemote serves the fixture project from testdata and records calls.
type fakeRemote struct {
	mu sync.Mutex

	project     *github.ProjectFields
	projectErrs github.Errors
	pages       []*github.ItemConnection

	// failOn makes the n-th mutation (1-based) fail; 0 never fails.
	failOn int

	fieldCalls int
	afters     []string
	mutations  []mutation
	projectIDs []string
}

var errRemoteDown = errors.New("remote unavailable")

func loadJSON[T any](t *testing.T, name string) *T {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return &v
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	return &fakeRemote{
		project: loadJSON[github.ProjectFields](t, "fields.json"),
		pages: []*github.ItemConnection{
			loadJSON[github.ItemConnection](t, "items_page1.json"),
			loadJSON[github.ItemConnection](t, "items_page2.json"),
		},
	}
}

func newTestBackend(t *testing.T, r *fakeRemote, opts ...func(*types.Config)) *Backend {
	t.Helper()
	cfg := types.Config{Owner: "octo", ProjectNumber: 1}
	for _, o := range opts {
		o(&cfg)
	}
	return NewBackend(cfg, r, nil)
}

func (r *fakeRemote) ListFields(_ context.Context, _ string, _ int) (*github.ProjectFields, github.Errors, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fieldCalls++
	return r.project, r.projectErrs, nil
}

func (r *fakeRemote) ListItems(_ context.Context, projectID string, after *string) (*github.ItemConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projectIDs = append(r.projectIDs, projectID)
	if after == nil {
		r.afters = append(r.afters, "")
		return r.pages[0], nil
	}
	r.afters = append(r.afters, *after)
	for i, p := range r.pages[:len(r.pages)-1] {
		if c := p.PageInfo.EndCursor; c != nil && *c == *after {
			return r.pages[i+1], nil
		}
	}
	return nil, errors.New("unknown cursor " + *after)
}

func (r *fakeRemote) record(projectID string, m mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projectIDs = append(r.projectIDs, projectID)
	r.mutations = append(r.mutations, m)
	if r.failOn > 0 && len(r.mutations) == r.failOn {
		return errRemoteDown
	}
	return nil
}

func (r *fakeRemote) UpdateItemField(_ context.Context, projectID, itemID, fieldID string, value github.FieldValue) error {
	return r.record(projectID, mutation{op: "update", itemID: itemID, fieldID: fieldID, value: value})
}

func (r *fakeRemote) ClearItemField(_ context.Context, projectID, itemID, fieldID string) error {
	return r.record(projectID, mutation{op: "clear", itemID: itemID, fieldID: fieldID})
}

func (r *fakeRemote) DeleteItem(_ context.Context, projectID, itemID string) error {
	return r.record(projectID, mutation{op: "delete", itemID: itemID})
}

func ptr[T any](v T) *T { return &v }
