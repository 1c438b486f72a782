package snapshot

import (
	"context"

	"github.com/accessinsight/accessinsight/modules/governance/domain/aggregates/user"
	"github.com/accessinsight/accessinsight/modules/governance/domain/entities/system"
)

// Snapshot is the whole workspace state: every known user with their
// cross-system accesses, plus the derived system registry. It is always
// replaced as a unit.
type Snapshot struct {
	Users   []user.User
	Systems []system.System
}

func Empty() Snapshot {
	return Snapshot{Users: []user.User{}, Systems: []system.System{}}
}

// Clone copies the slice headers; users and systems themselves are
// value-semantic via their With* methods.
func (s Snapshot) Clone() Snapshot {
	users := make([]user.User, len(s.Users))
	copy(users, s.Users)
	systems := make([]system.System, len(s.Systems))
	copy(systems, s.Systems)
	return Snapshot{Users: users, Systems: systems}
}

// Repository persists the workspace snapshot as one unit. Load reports
// absence (no stored snapshot yet) separately from failure.
type Repository interface {
	Load(ctx context.Context) (Snapshot, bool, error)
	Save(ctx context.Context, s Snapshot) error
	Delete(ctx context.Context) error
}
