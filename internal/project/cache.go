package project

import (
	"context"
	"fmt"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/ghsql/pkg/types"
)

// Cache states.
const (
	stateEmpty      = "empty"
	statePopulating = "populating"
	statePopulated  = "populated"
)

// Cache events.
const (
	eventFill       = "fill"
	eventFilled     = "filled"
	eventFail       = "fail"
	eventInvalidate = "invalidate"
)

// snapshot is one fully materialized copy of the remote project.
// It is never modified after construction.
type snapshot struct {
	projectID string
	fields    []types.Field
	items     []types.KeyedRow
	index     map[string]int
}

func newSnapshot(projectID string, fields []types.Field, items []types.KeyedRow) *snapshot {
	index := make(map[string]int, len(items))
	for i, it := range items {
		index[it.Key] = i
	}
	return &snapshot{
		projectID: projectID,
		fields:    fields,
		items:     items,
		index:     index,
	}
}

// row returns the cached row of the item with the given key.
func (s *snapshot) row(key string) (types.Row, bool) {
	i, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return s.items[i].Row, true
}

// fillFunc builds a snapshot from the remote service.
type fillFunc func(ctx context.Context) (*snapshot, error)

// cache holds at most one snapshot. All access is serialized by mu, so a
// caller observes either an empty cache or a fully populated one, and at
// most one fill runs at a time.
type cache struct {
	mu      sync.Mutex
	machine *fsm.FSM
	snap    *snapshot
}

func newCache(log *zap.SugaredLogger) *cache {
	c := &cache{}
	c.machine = fsm.NewFSM(
		stateEmpty,
		fsm.Events{
			{Name: eventFill, Src: []string{stateEmpty}, Dst: statePopulating},
			{Name: eventFilled, Src: []string{statePopulating}, Dst: statePopulated},
			{Name: eventFail, Src: []string{statePopulating}, Dst: stateEmpty},
			{Name: eventInvalidate, Src: []string{statePopulated}, Dst: stateEmpty},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Debugw("cache transition", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
	return c
}

// state returns the current cache state.
func (c *cache) state() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Current()
}

// get returns the snapshot, running fill first when the cache is empty.
func (c *cache) get(ctx context.Context, fill fillFunc) (*snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.populateLocked(ctx, fill)
}

// drain returns the snapshot after plan accepted it and empties the cache.
// When plan fails the cache is left as it was.
func (c *cache) drain(ctx context.Context, fill fillFunc, plan func(*snapshot) error) (*snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, err := c.populateLocked(ctx, fill)
	if err != nil {
		return nil, err
	}
	if err := plan(snap); err != nil {
		return nil, err
	}
	if err := c.invalidateLocked(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

// invalidate empties the cache; the next get refills it.
func (c *cache) invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidateLocked(ctx)
}

func (c *cache) populateLocked(ctx context.Context, fill fillFunc) (*snapshot, error) {
	if c.machine.Current() == statePopulated {
		return c.snap, nil
	}

	// Transitions must land even when ctx is already cancelled, otherwise
	// the machine would stay in populating.
	tctx := context.WithoutCancel(ctx)
	if err := c.machine.Event(tctx, eventFill); err != nil {
		return nil, fmt.Errorf("cache %s: %w", eventFill, err)
	}

	snap, err := fill(ctx)
	if err != nil {
		if ferr := c.machine.Event(tctx, eventFail); ferr != nil {
			return nil, fmt.Errorf("cache %s: %w (after %v)", eventFail, ferr, err)
		}
		return nil, err
	}

	c.snap = snap
	if err := c.machine.Event(tctx, eventFilled); err != nil {
		return nil, fmt.Errorf("cache %s: %w", eventFilled, err)
	}
	return snap, nil
}

func (c *cache) invalidateLocked(ctx context.Context) error {
	if c.machine.Current() != statePopulated {
		return nil
	}
	c.snap = nil
	if err := c.machine.Event(context.WithoutCancel(ctx), eventInvalidate); err != nil {
		return fmt.Errorf("cache %s: %w", eventInvalidate, err)
	}
	return nil
}
