// Package project implements types.Storage over one GitHub Projects v2
// project. The project is fetched in full on first use and cached; writes
// are translated into per-field mutations and invalidate the cache.
package project

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/ghsql/internal/github"
	"github.com/mesh-intelligence/ghsql/pkg/types"
)

// Remote is the set of GitHub operations the backend depends on.
// *github.Client implements it.
type Remote interface {
	ListFields(ctx context.Context, owner string, number int) (*github.ProjectFields, github.Errors, error)
	ListItems(ctx context.Context, projectID string, after *string) (*github.ItemConnection, error)
	UpdateItemField(ctx context.Context, projectID, itemID, fieldID string, value github.FieldValue) error
	ClearItemField(ctx context.Context, projectID, itemID, fieldID string) error
	DeleteItem(ctx context.Context, projectID, itemID string) error
}

// Backend serves the items, options and iterations tables of one project.
// It is safe for concurrent use.
type Backend struct {
	owner    string
	number   int
	maxPages int
	remote   Remote
	cache    *cache
	log      *zap.SugaredLogger
}

var _ types.Storage = (*Backend)(nil)

// NewBackend returns a Backend for the project named by cfg. Nothing is
// fetched until the first call. A nil logger disables logging.
func NewBackend(cfg types.Config, remote Remote, log *zap.SugaredLogger) *Backend {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.With("owner", cfg.Owner, "project_number", cfg.ProjectNumber)
	return &Backend{
		owner:    cfg.Owner,
		number:   cfg.ProjectNumber,
		maxPages: cfg.MaxPages,
		remote:   remote,
		cache:    newCache(log),
		log:      log,
	}
}

// FetchSchema returns the schema of table, or nil for an unknown table.
func (b *Backend) FetchSchema(ctx context.Context, table string) (*types.Schema, error) {
	if !isTable(table) {
		return nil, nil
	}
	snap, err := b.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	switch table {
	case types.TableItems:
		return ItemsSchema(snap.fields), nil
	case types.TableOptions:
		return OptionsSchema(), nil
	default:
		return IterationsSchema(), nil
	}
}

// Scan returns every row of table. The rows are copies; callers may modify
// them freely.
func (b *Backend) Scan(ctx context.Context, table string) ([]types.KeyedRow, error) {
	if !isTable(table) {
		return nil, fmt.Errorf("%w: %s", types.ErrTableNotFound, table)
	}
	snap, err := b.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	switch table {
	case types.TableItems:
		rows := make([]types.KeyedRow, len(snap.items))
		for i, it := range snap.items {
			rows[i] = types.KeyedRow{Key: it.Key, Row: it.Row.Clone()}
		}
		return rows, nil
	case types.TableOptions:
		return optionRows(snap.fields), nil
	default:
		return iterationRows(snap.fields), nil
	}
}

// Update writes the changed field cells of rows back to the project. All
// rows are validated against the cached copy before the first mutation is
// sent; a rejected row aborts the batch with nothing written and the cache
// intact. Once validation passes the cache is dropped, so a mutation that
// fails part way still leads to a refetch.
func (b *Backend) Update(ctx context.Context, table string, rows []types.KeyedRow) error {
	if table != types.TableItems {
		return fmt.Errorf("%w: %s", types.ErrReadonlyTable, table)
	}

	var plan []fieldUpdate
	snap, err := b.cache.drain(ctx, b.fill, func(s *snapshot) error {
		var perr error
		plan, perr = planUpdates(s, rows)
		return perr
	})
	if err != nil {
		return err
	}

	b.log.Debugw("updating items", "rows", len(rows), "mutations", len(plan))
	for _, u := range plan {
		if u.value == nil {
			err = b.remote.ClearItemField(ctx, snap.projectID, u.itemID, u.field.ID)
		} else {
			err = b.remote.UpdateItemField(ctx, snap.projectID, u.itemID, u.field.ID, *u.value)
		}
		if err != nil {
			return fmt.Errorf("update item %s field %s: %w", u.itemID, u.field.Name, err)
		}
	}
	return nil
}

// Delete removes the items identified by keys from the project. The items
// themselves (issues, pull requests) are left untouched.
func (b *Backend) Delete(ctx context.Context, table string, keys []string) error {
	if table != types.TableItems {
		return fmt.Errorf("%w: %s", types.ErrReadonlyTable, table)
	}

	snap, err := b.cache.drain(ctx, b.fill, func(*snapshot) error { return nil })
	if err != nil {
		return err
	}

	b.log.Debugw("deleting items", "items", len(keys))
	for _, key := range keys {
		if err := b.remote.DeleteItem(ctx, snap.projectID, key); err != nil {
			return fmt.Errorf("delete item %s: %w", key, err)
		}
	}
	return nil
}

// Invalidate drops the cached project; the next call refetches it.
func (b *Backend) Invalidate(ctx context.Context) error {
	return b.cache.invalidate(ctx)
}

// CacheState reports the cache state: empty, populating or populated.
func (b *Backend) CacheState() string {
	return b.cache.state()
}

func (b *Backend) snapshot(ctx context.Context) (*snapshot, error) {
	snap, err := b.cache.get(ctx, b.fill)
	if err != nil {
		return nil, fmt.Errorf("fetch project data: %w", err)
	}
	return snap, nil
}

func (b *Backend) fill(ctx context.Context) (*snapshot, error) {
	projectID, fields, err := b.listFields(ctx)
	if err != nil {
		return nil, err
	}
	items, err := b.fetchItems(ctx, projectID, fields)
	if err != nil {
		return nil, err
	}
	b.log.Infow("project loaded", "project", projectID, "fields", len(fields), "items", len(items))
	return newSnapshot(projectID, fields, items), nil
}

func isTable(name string) bool {
	for _, t := range types.StandardTableNames {
		if t == name {
			return true
		}
	}
	return false
}
