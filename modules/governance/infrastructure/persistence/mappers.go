package persistence

import (
	"github.com/accessinsight/accessinsight/modules/governance/domain/aggregates/user"
	"github.com/accessinsight/accessinsight/modules/governance/domain/entities/system"
	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
	"github.com/accessinsight/accessinsight/modules/governance/infrastructure/persistence/models"
)

func ToModel(s snapshot.Snapshot) models.Workspace {
	out := models.Workspace{
		Users:   make([]models.User, 0, len(s.Users)),
		Systems: make([]models.System, 0, len(s.Systems)),
	}
	for _, u := range s.Users {
		accesses := make([]models.Access, 0, len(u.Accesses()))
		for _, a := range u.Accesses() {
			accesses = append(accesses, models.Access{
				SystemName: a.SystemName(),
				Profile:    a.Profile(),
				ImportedAt: a.ImportedAt(),
			})
		}
		out.Users = append(out.Users, models.User{
			Email:    u.Identifier(),
			Name:     u.DisplayName(),
			Company:  u.Company(),
			Accesses: accesses,
		})
	}
	for _, sys := range s.Systems {
		out.Systems = append(out.Systems, models.System{
			ID:         sys.ID(),
			Name:       sys.Name(),
			UserCount:  sys.UserCount(),
			LastImport: sys.LastImport(),
		})
	}
	return out
}

func ToDomain(w models.Workspace) snapshot.Snapshot {
	out := snapshot.Snapshot{
		Users:   make([]user.User, 0, len(w.Users)),
		Systems: make([]system.System, 0, len(w.Systems)),
	}
	for _, u := range w.Users {
		accesses := make([]user.Access, 0, len(u.Accesses))
		for _, a := range u.Accesses {
			accesses = append(accesses, user.NewAccess(a.SystemName, a.Profile, a.ImportedAt))
		}
		out.Users = append(out.Users, user.New(u.Email,
			user.WithDisplayName(u.Name),
			user.WithCompany(u.Company),
			user.WithAccesses(accesses),
		))
	}
	for _, s := range w.Systems {
		out.Systems = append(out.Systems, system.New(s.Name,
			system.WithID(s.ID),
			system.WithStats(s.UserCount, s.LastImport),
		))
	}
	return out
}
