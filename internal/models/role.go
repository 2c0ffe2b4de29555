package models

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleLearner Role = "learner"
	RoleTutor   Role = "tutor"
)

// Roles returns every valid role.
func Roles() []Role {
	return []Role{RoleLearner, RoleTutor}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleLearner, RoleTutor:
		return true
	}
	return false
}

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q (must be 'learner' or 'tutor')", s)
	}
	return r, nil
}
