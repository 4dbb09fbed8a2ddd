// Package docservice holds the business rules for documents and ideas on top of the store.
package docservice

import (
	"log/slog"
	"time"

	"github.com/starford/agentnote/internal/store"
)

// Event kinds published through a Notifier.
const (
	EventDocCreated  = "doc.created"
	EventDocUpdated  = "doc.updated"
	EventDocDeleted  = "doc.deleted"
	EventIdeaCreated = "idea.created"
	EventIdeaUpdated = "idea.updated"
	EventIdeaDeleted = "idea.deleted"
)

// Notifier receives change events after a write commits.
type Notifier interface {
	Notify(kind string, id int64)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, int64) {}

// Service coordinates store operations for the API, MCP and importer layers.
type Service struct {
	db     store.Store
	notify Notifier
	log    *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the change event sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notify = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides the time source used for generated slugs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a service backed by db.
func New(db store.Store, opts ...Option) *Service {
	s := &Service{db: db, notify: nopNotifier{}, log: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping() error {
	return s.db.Ping()
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
