package cache

import (
	"log/slog"
	"time"
)

// DefaultTTL is how long a cached entry or full scan is served without a remote read.
const DefaultTTL = 30 * time.Minute

// Config holds column settings.
type Config[T any] struct {
	// TTL bounds the age of served entries (default 30m).
	TTL time.Duration

	// Now is the clock (default time.Now).
	Now func() time.Time

	Logger *slog.Logger

	// Updater persists DiffUpdate mutations (default LastWriterWins).
	Updater Updater[T]
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig[T any]() Config[T] {
	return Config[T]{
		TTL:     DefaultTTL,
		Now:     time.Now,
		Logger:  slog.Default(),
		Updater: LastWriterWins[T]{},
	}
}

func (c *Config[T]) validate() {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Updater == nil {
		c.Updater = LastWriterWins[T]{}
	}
}
