// Package portal implements the dojo notes portal's operations on top of the
// cached users, students, and imported tables.
package portal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/jacentio/dojo/cache"
	"github.com/jacentio/dojo/internal/model"
	"github.com/jacentio/dojo/store"
	"github.com/jacentio/dojo/stream"
)

// Config holds service settings.
type Config struct {
	// CacheTTL is passed to every column (default 30m).
	CacheTTL time.Duration

	// SessionLifetime bounds a login (default 4h).
	SessionLifetime time.Duration

	// Now is the clock (default time.Now).
	Now func() time.Time

	// NewToken generates invite and session tokens (default uuid.NewString).
	NewToken func() string

	Logger *slog.Logger
}

func (c *Config) validate() {
	if c.CacheTTL <= 0 {
		c.CacheTTL = cache.DefaultTTL
	}
	if c.SessionLifetime <= 0 {
		c.SessionLifetime = 4 * time.Hour
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewToken == nil {
		c.NewToken = uuid.NewString
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Service owns the portal's cache columns and its in-memory invite and
// session registries.
type Service struct {
	users    *cache.Column[model.User]
	students *cache.Column[model.Student]
	imported *cache.Column[model.StudentImportedInfo]
	tables   []provisioner
	changes  *stream.Handler

	config Config
	logger *slog.Logger

	mu       sync.Mutex
	invites  map[string]model.Role
	sessions map[string]model.Session
}

type provisioner interface {
	Provision(ctx context.Context)
}

// New builds a service over st.
func New(st *store.Store, config Config) *Service {
	config.validate()

	users := store.NewTable[model.User](st)
	students := store.NewTable[model.Student](st)
	imported := store.NewTable[model.StudentImportedInfo](st)

	s := &Service{
		users:    newColumn[model.User](users, config),
		students: newColumn[model.Student](students, config),
		imported: newColumn[model.StudentImportedInfo](imported, config),
		tables:   []provisioner{users, students, imported},
		config:   config,
		logger:   config.Logger,
		invites:  make(map[string]model.Role),
		sessions: make(map[string]model.Session),
	}
	s.changes = stream.NewHandler(config.Logger, s.users, s.students, s.imported)
	return s
}

func newColumn[T store.Record](t *store.Table[T], config Config) *cache.Column[T] {
	return cache.New[T](t, cache.Config[T]{
		TTL:    config.CacheTTL,
		Now:    config.Now,
		Logger: config.Logger,
	})
}

// Provision ensures the users, students, and imported tables exist.
// Failures are logged by the store.
func (s *Service) Provision(ctx context.Context) {
	for _, t := range s.tables {
		t.Provision(ctx)
	}
}

// ApplyChanges evicts records changed by other processes, as reported by
// DynamoDB Streams.
func (s *Service) ApplyChanges(ctx context.Context, event events.DynamoDBEvent) error {
	return s.changes.HandleChanges(ctx, event)
}
