package config

import (
	"sort"
	"strings"
)

// RoleSet is a parsed set of LMS role shortnames. Configured role lists are
// parsed into RoleSet values once at load time, never re-split per lookup.
type RoleSet map[string]struct{}

// NewRoleSet builds a RoleSet from role shortnames. Names are trimmed and
// lower-cased; empties dropped.
func NewRoleSet(roles []string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			set[role] = struct{}{}
		}
	}
	return set
}

// ParseRoleSet builds a RoleSet from a comma-separated list.
func ParseRoleSet(list string) RoleSet {
	return NewRoleSet(strings.Split(list, ","))
}

// Contains reports whether the set holds a role.
func (s RoleSet) Contains(role string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(role))]
	return ok
}

// ContainsAny reports whether the set holds any of the given roles.
func (s RoleSet) ContainsAny(roles []string) bool {
	for _, role := range roles {
		if s.Contains(role) {
			return true
		}
	}
	return false
}

// List returns the roles in sorted order.
func (s RoleSet) List() []string {
	roles := make([]string, 0, len(s))
	for role := range s {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}
