package utils

import (
	"strings"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var ValidUserRoles = map[string]bool{
	RoleAdmin: true,
	RoleUser:  true,
}

// ValidateAndNormalizeRole validates and normalizes a role string.
// Returns the normalized role (lowercase) and a boolean indicating if it's valid.
func ValidateAndNormalizeRole(role string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(role))
	return normalized, ValidUserRoles[normalized]
}

// HasRole reports whether role is present in roles, ignoring case.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
