package user

import (
	"strings"
	"time"

	"github.com/accessinsight/accessinsight/modules/governance/domain/identity"
)

// NoProfile is assigned when a source row grants access without naming
// a permission profile.
const NoProfile = "No Profile"

// Access is one user's permission grant on one system. A user holds at
// most one Access per system name (case-insensitive).
type Access interface {
	SystemName() string
	Profile() string
	ImportedAt() time.Time
}

type User interface {
	Identifier() string
	CanonicalKey() string
	DisplayName() string
	Company() string
	Accesses() []Access
	AccessTo(systemName string) (Access, bool)
	// HasPlaceholderName reports whether the display name carries no real
	// information (empty, the identifier itself, or the N/A marker).
	HasPlaceholderName() bool

	WithDisplayName(name string) User
	WithCompany(company string) User
	// WithAccess replaces the access whose system name matches
	// case-insensitively, or appends when none does.
	WithAccess(a Access) User
	WithoutAccess(systemName string) User
}

type access struct {
	systemName string
	profile    string
	importedAt time.Time
}

func NewAccess(systemName, profile string, importedAt time.Time) Access {
	if strings.TrimSpace(profile) == "" {
		profile = NoProfile
	}
	return &access{
		systemName: systemName,
		profile:    profile,
		importedAt: importedAt,
	}
}

func (a *access) SystemName() string    { return a.systemName }
func (a *access) Profile() string       { return a.profile }
func (a *access) ImportedAt() time.Time { return a.importedAt }

type user struct {
	identifier  string
	displayName string
	company     string
	accesses    []Access
}

func New(identifier string, opts ...Option) User {
	u := &user{
		identifier: strings.TrimSpace(identifier),
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.displayName == "" {
		u.displayName = u.identifier
	}
	return u
}

type Option func(*user)

func WithDisplayName(name string) Option {
	return func(u *user) {
		if strings.TrimSpace(name) != "" {
			u.displayName = strings.TrimSpace(name)
		}
	}
}

func WithCompany(company string) Option {
	return func(u *user) {
		u.company = strings.TrimSpace(company)
	}
}

func WithAccesses(accesses []Access) Option {
	return func(u *user) {
		u.accesses = accesses
	}
}

func (u *user) Identifier() string {
	return u.identifier
}

func (u *user) CanonicalKey() string {
	return identity.CanonicalKey(u.identifier)
}

func (u *user) DisplayName() string {
	return u.displayName
}

func (u *user) Company() string {
	return u.company
}

func (u *user) Accesses() []Access {
	return u.accesses
}

func (u *user) AccessTo(systemName string) (Access, bool) {
	for _, a := range u.accesses {
		if strings.EqualFold(a.SystemName(), systemName) {
			return a, true
		}
	}
	return nil, false
}

func (u *user) HasPlaceholderName() bool {
	name := strings.TrimSpace(u.displayName)
	if name == "" {
		return true
	}
	if strings.EqualFold(name, identity.NotApplicable) {
		return true
	}
	return strings.EqualFold(name, u.identifier)
}

func (u *user) clone() *user {
	accesses := make([]Access, len(u.accesses))
	copy(accesses, u.accesses)
	return &user{
		identifier:  u.identifier,
		displayName: u.displayName,
		company:     u.company,
		accesses:    accesses,
	}
}

func (u *user) WithDisplayName(name string) User {
	out := u.clone()
	out.displayName = strings.TrimSpace(name)
	return out
}

func (u *user) WithCompany(company string) User {
	out := u.clone()
	out.company = strings.TrimSpace(company)
	return out
}

func (u *user) WithAccess(a Access) User {
	out := u.clone()
	for i, existing := range out.accesses {
		if strings.EqualFold(existing.SystemName(), a.SystemName()) {
			out.accesses[i] = a
			return out
		}
	}
	out.accesses = append(out.accesses, a)
	return out
}

func (u *user) WithoutAccess(systemName string) User {
	out := u.clone()
	kept := out.accesses[:0]
	for _, a := range out.accesses {
		if !strings.EqualFold(a.SystemName(), systemName) {
			kept = append(kept, a)
		}
	}
	out.accesses = kept
	return out
}
