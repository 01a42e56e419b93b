package cache

import "context"

// Writer is the write path an Updater persists through. It is only valid for
// the duration of the Update call, while the column lock is held.
type Writer[T any] interface {
	Put(ctx context.Context, key string, v T) error
}

// Updater applies a mutation to a record and persists the result.
// v is a private copy the updater may modify freely. An Updater may call
// mutate more than once, for example when retrying a conditional write, so
// mutate must only change the record it is given.
type Updater[T any] interface {
	Update(ctx context.Context, w Writer[T], key string, v T, mutate func(*T)) error
}

// LastWriterWins mutates the caller's copy and writes it unconditionally.
type LastWriterWins[T any] struct{}

func (LastWriterWins[T]) Update(ctx context.Context, w Writer[T], key string, v T, mutate func(*T)) error {
	mutate(&v)
	return w.Put(ctx, key, v)
}

// UpdaterFunc adapts a function to the Updater interface.
type UpdaterFunc[T any] func(ctx context.Context, w Writer[T], key string, v T, mutate func(*T)) error

func (f UpdaterFunc[T]) Update(ctx context.Context, w Writer[T], key string, v T, mutate func(*T)) error {
	return f(ctx, w, key, v, mutate)
}
