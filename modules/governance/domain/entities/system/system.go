package system

import (
	"time"

	"github.com/google/uuid"
)

// UndefinedName is the bucket for imports that carry no system name at
// all, neither in the rows nor as an import-level override.
const UndefinedName = "Undefined System"

// System is a registry entry describing one platform users hold access
// to. Entries are derived from imports, never deleted by them.
type System interface {
	ID() string
	Name() string
	UserCount() int
	LastImport() time.Time
	WithStats(userCount int, lastImport time.Time) System
}

type system struct {
	id         string
	name       string
	userCount  int
	lastImport time.Time
}

func New(name string, opts ...Option) System {
	s := &system{
		id:   uuid.NewString(),
		name: name,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Option func(*system)

// WithID keeps the stable id of a previously registered system.
func WithID(id string) Option {
	return func(s *system) {
		if id != "" {
			s.id = id
		}
	}
}

func WithStats(userCount int, lastImport time.Time) Option {
	return func(s *system) {
		s.userCount = userCount
		s.lastImport = lastImport
	}
}

func (s *system) ID() string            { return s.id }
func (s *system) Name() string          { return s.name }
func (s *system) UserCount() int        { return s.userCount }
func (s *system) LastImport() time.Time { return s.lastImport }

func (s *system) WithStats(userCount int, lastImport time.Time) System {
	return &system{
		id:         s.id,
		name:       s.name,
		userCount:  userCount,
		lastImport: lastImport,
	}
}
