package reconcile

import (
	"strings"
	"time"

	"github.com/accessinsight/accessinsight/modules/governance/domain/aggregates/user"
	"github.com/accessinsight/accessinsight/modules/governance/domain/entities/system"
	"github.com/accessinsight/accessinsight/modules/governance/domain/identity"
	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
)

// Row is one normalized spreadsheet row, ready to be merged. Rows with
// an empty identifier must be filtered out before calling Reconcile.
type Row struct {
	Identifier  string
	DisplayName string
	Profile     string
	SystemName  string
	Company     string
}

func meaningful(value string) bool {
	v := strings.TrimSpace(value)
	return v != "" && !strings.EqualFold(v, identity.NotApplicable)
}

// Reconcile folds a batch of rows into the prior snapshot and returns
// the replacement state. Existing users are matched by canonical key;
// for each row the access on the row's system is replaced, so re-running
// the same batch is a no-op and the last row wins within a batch.
// Display names and companies never regress to placeholders. New users
// store the lowercased identifier; API keys keep their original casing.
func Reconcile(
	prior snapshot.Snapshot,
	rows []Row,
	importedAt time.Time,
	fallbackSystem string,
	policy identity.Policy,
) snapshot.Snapshot {
	users := make([]user.User, len(prior.Users))
	copy(users, prior.Users)

	index := make(map[string]int, len(users))
	for i, u := range users {
		index[u.CanonicalKey()] = i
	}

	for _, row := range rows {
		key := identity.CanonicalKey(row.Identifier)
		if key == "" {
			continue
		}

		systemName := strings.TrimSpace(row.SystemName)
		if systemName == "" {
			systemName = strings.TrimSpace(fallbackSystem)
		}
		if systemName == "" {
			systemName = system.UndefinedName
		}

		grant := user.NewAccess(systemName, strings.TrimSpace(row.Profile), importedAt)

		if i, ok := index[key]; ok {
			u := users[i].WithAccess(grant)
			if meaningful(row.DisplayName) && u.HasPlaceholderName() {
				u = u.WithDisplayName(strings.TrimSpace(row.DisplayName))
			}
			if meaningful(row.Company) {
				u = u.WithCompany(strings.TrimSpace(row.Company))
			}
			users[i] = u
			continue
		}

		displayName := strings.TrimSpace(row.DisplayName)
		if !meaningful(displayName) {
			displayName = policy.DisplayName(row.Identifier)
		}
		company := strings.TrimSpace(row.Company)
		if !meaningful(company) {
			company = policy.CompanyFromIdentifier(row.Identifier)
		}

		identifier := strings.TrimSpace(row.Identifier)
		if !policy.IsAPIKey(identifier) {
			identifier = key
		}

		u := user.New(identifier,
			user.WithDisplayName(displayName),
			user.WithCompany(company),
			user.WithAccesses([]user.Access{grant}),
		)
		index[u.CanonicalKey()] = len(users)
		users = append(users, u)
	}

	return snapshot.Snapshot{
		Users:   users,
		Systems: RebuildRegistry(users, prior.Systems),
	}
}

type systemStats struct {
	name       string
	userCount  int
	lastImport time.Time
}

// RebuildRegistry recomputes per-system user counts and last-import
// times from the user set. Ids of previously registered systems are
// preserved by case-insensitive name match; systems absent from the
// current accesses stay registered with a count of zero.
func RebuildRegistry(users []user.User, prior []system.System) []system.System {
	stats := make(map[string]*systemStats)
	var order []string

	for _, u := range users {
		for _, a := range u.Accesses() {
			key := strings.ToLower(a.SystemName())
			st, ok := stats[key]
			if !ok {
				st = &systemStats{name: a.SystemName()}
				stats[key] = st
				order = append(order, key)
			}
			st.userCount++
			if a.ImportedAt().After(st.lastImport) {
				st.lastImport = a.ImportedAt()
			}
		}
	}

	out := make([]system.System, 0, len(prior)+len(order))
	seen := make(map[string]bool, len(prior))

	for _, s := range prior {
		key := strings.ToLower(s.Name())
		seen[key] = true
		if st, ok := stats[key]; ok {
			lastImport := st.lastImport
			if lastImport.IsZero() {
				lastImport = s.LastImport()
			}
			out = append(out, s.WithStats(st.userCount, lastImport))
		} else {
			out = append(out, s.WithStats(0, s.LastImport()))
		}
	}

	for _, key := range order {
		if seen[key] {
			continue
		}
		st := stats[key]
		out = append(out, system.New(st.name, system.WithStats(st.userCount, st.lastImport)))
	}

	return out
}
