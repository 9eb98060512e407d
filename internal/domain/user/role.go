package user

import (
	"sort"
	"strings"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/match"
)

// Role is a capability granted to a user.
type Role string

const (
	RoleUser          Role = "user"
	RoleMatchVerifier Role = "matchverifier"
	RoleAdmin         Role = "admin"
	RoleSystem        Role = "system"
)

// ParseRole normalizes a stored or claimed role name. Unknown names are kept lower-cased.
func ParseRole(raw string) Role {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "verifier", "match_verifier", "match-verifier":
		return RoleMatchVerifier
	default:
		return Role(value)
	}
}

// RoleSet is an unordered set of roles.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	out := make(RoleSet, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		out[r] = struct{}{}
	}
	return out
}

// ParseRoleSet reads the comma delimited form stored on users.
func ParseRoleSet(raw string) RoleSet {
	parts := strings.Split(raw, ",")
	roles := make([]Role, 0, len(parts))
	for _, part := range parts {
		roles = append(roles, ParseRole(part))
	}
	return NewRoleSet(roles...)
}

func (s RoleSet) Has(role Role) bool {
	_, ok := s[role]
	return ok
}

// HasAny reports whether s holds at least one of roles.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// CanVerify reports whether the holder may submit pre-verified data or rule on duplicates.
func (s RoleSet) CanVerify() bool {
	return s.HasAny(RoleMatchVerifier, RoleAdmin, RoleSystem)
}

// IsPrivileged is admin or system.
func (s RoleSet) IsPrivileged() bool {
	return s.HasAny(RoleAdmin, RoleSystem)
}

// Strings returns the sorted role names.
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

func (s RoleSet) String() string {
	return strings.Join(s.Strings(), ",")
}

// VerificationSourceFor maps a role set onto the source stamped on verified matches.
// System outranks admin, admin outranks a plain verifier.
func VerificationSourceFor(roles RoleSet) match.VerificationSource {
	source := match.SourceMatchVerifier
	if roles.Has(RoleAdmin) {
		source = match.SourceAdmin
	}
	if roles.Has(RoleSystem) {
		source = match.SourceSystem
	}
	return source
}
