package cache

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jacentio/dojo/store"
)

// Source is the backing table of a column. *store.Table satisfies it.
type Source[T store.Record] interface {
	Name() string
	KeyAttribute() string
	ScanAll(ctx context.Context) ([]T, error)
	Get(ctx context.Context, key string) (T, bool, error)
	Put(ctx context.Context, key string, v T) error
	Delete(ctx context.Context, key string) error
}

var _ Source[store.Record] = (*store.Table[store.Record])(nil)

type entry[T any] struct {
	value    T
	cachedAt time.Time
}

// Column caches the records of one table.
type Column[T store.Record] struct {
	src    Source[T]
	config Config[T]
	logger *slog.Logger

	mu         sync.Mutex
	entries    map[string]entry[T]
	fullScanAt time.Time
}

// New returns an empty column over src.
func New[T store.Record](src Source[T], config Config[T]) *Column[T] {
	config.validate()
	return &Column[T]{
		src:     src,
		config:  config,
		logger:  config.Logger.With("table", src.Name()),
		entries: make(map[string]entry[T]),
	}
}

// Table returns the backing table name.
func (c *Column[T]) Table() string { return c.src.Name() }

// KeyAttribute returns the backing table's hash key attribute.
func (c *Column[T]) KeyAttribute() string { return c.src.KeyAttribute() }

func (c *Column[T]) fresh(at time.Time, now time.Time) bool {
	return !at.IsZero() && now.Sub(at) < c.config.TTL
}

// Values returns every record in the table, ordered by key when served from
// memory. A full scan younger than the TTL is reused; otherwise the table is
// scanned again and the cache rebuilt from the result.
func (c *Column[T]) Values(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.config.Now()
	if c.fresh(c.fullScanAt, now) {
		c.logger.Debug("serving cached scan", "entries", len(c.entries))
		out := make([]T, 0, len(c.entries))
		for _, k := range slices.Sorted(maps.Keys(c.entries)) {
			v, err := c.clone(k, c.entries[k].value)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	records, err := c.src.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]entry[T], len(records))
	out := make([]T, 0, len(records))
	for _, r := range records {
		cached, err := c.clone(r.PrimaryKey(), r)
		if err != nil {
			return nil, err
		}
		entries[r.PrimaryKey()] = entry[T]{value: cached, cachedAt: now}
		out = append(out, r)
	}
	c.entries = entries
	c.fullScanAt = now
	c.logger.Debug("refreshed scan", "entries", len(entries))
	return out, nil
}

// Get returns the record stored under key. The boolean is false when the
// store has no such record.
func (c *Column[T]) Get(ctx context.Context, key string) (T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(ctx, key)
}

func (c *Column[T]) get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	now := c.config.Now()
	if e, ok := c.entries[key]; ok && c.fresh(e.cachedAt, now) {
		v, err := c.clone(key, e.value)
		return v, err == nil, err
	}

	v, ok, err := c.src.Get(ctx, key)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		delete(c.entries, key)
		return zero, false, nil
	}

	cached, err := c.clone(key, v)
	if err != nil {
		return zero, false, err
	}
	c.entries[key] = entry[T]{value: cached, cachedAt: now}
	return v, true, nil
}

// Put writes v to the store and, on success, caches it.
func (c *Column[T]) Put(ctx context.Context, key string, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.put(ctx, key, v)
}

func (c *Column[T]) put(ctx context.Context, key string, v T) error {
	cached, err := c.clone(key, v)
	if err != nil {
		return err
	}
	if err := c.src.Put(ctx, key, v); err != nil {
		return err
	}
	c.entries[key] = entry[T]{value: cached, cachedAt: c.config.Now()}
	return nil
}

// Delete removes key from the store and, on success, from the cache.
func (c *Column[T]) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.src.Delete(ctx, key); err != nil {
		return err
	}
	delete(c.entries, key)
	return nil
}

// GetUpdate reads the current record, applies mutate to a copy, and writes it
// back. It reports false without writing when no record exists.
func (c *Column[T]) GetUpdate(ctx context.Context, key string, mutate func(*T)) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok, err := c.get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	mutate(&v)
	if err := c.put(ctx, key, v); err != nil {
		return false, err
	}
	return true, nil
}

// DiffUpdate applies mutate to a copy of known and persists it through the
// column's Updater. The stored value is not re-read: with the default updater
// a concurrent write from another process since known was read is overwritten.
func (c *Column[T]) DiffUpdate(ctx context.Context, key string, known T, mutate func(*T)) error {
	_, err := c.DiffUpdateValue(ctx, key, known, mutate)
	return err
}

// DiffUpdateValue is DiffUpdate that also returns the record the Updater
// wrote last. If the Updater wrote nothing it returns the unmutated copy of
// known.
func (c *Column[T]) DiffUpdateValue(ctx context.Context, key string, known T, mutate func(*T)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, err := c.clone(key, known)
	if err != nil {
		return v, err
	}
	w := &lockedWriter[T]{c: c, last: v}
	if err := c.config.Updater.Update(ctx, w, key, v, mutate); err != nil {
		var zero T
		return zero, err
	}
	return w.last, nil
}

// Evict drops key from the cache and forgets the last full scan.
func (c *Column[T]) Evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.fullScanAt = time.Time{}
}

// Invalidate drops every cached entry.
func (c *Column[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[T])
	c.fullScanAt = time.Time{}
}

func (c *Column[T]) clone(key string, v T) (T, error) {
	out, err := store.Clone(v)
	if err != nil {
		var zero T
		return zero, &store.OpError{Op: "clone", Table: c.src.Name(), Key: key, Err: fmt.Errorf("%w: %v", store.ErrEncoding, err)}
	}
	return out, nil
}

// lockedWriter is the column's put path for use while mu is held. It keeps
// the last value it wrote.
type lockedWriter[T store.Record] struct {
	c    *Column[T]
	last T
}

func (w *lockedWriter[T]) Put(ctx context.Context, key string, v T) error {
	if err := w.c.put(ctx, key, v); err != nil {
		return err
	}
	w.last = v
	return nil
}
