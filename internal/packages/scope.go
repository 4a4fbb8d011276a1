package packages

import "strings"

// Scope is the installation scope reported by a manager. Managers disagree on
// naming, so each value has two names; code compares scopes by value only.
type Scope int

const (
	ScopeLocal Scope = 0
	ScopeUser  Scope = 0

	ScopeGlobal  Scope = 1
	ScopeMachine Scope = 1
)

// String returns the manager-neutral name used in serialized options.
func (s Scope) String() string {
	if s == ScopeMachine {
		return "Machine"
	}
	return "User"
}

// ParseScope accepts any of the four aliases, case-insensitively.
func ParseScope(s string) (Scope, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "local":
		return ScopeUser, true
	case "machine", "global":
		return ScopeMachine, true
	}
	return ScopeUser, false
}
