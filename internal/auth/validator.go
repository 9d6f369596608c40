// Package auth provides credential validation, token issuance, and token
// verification for the stock API.
package auth

import (
	"strings"

	"londonstock/internal/config"
)

// Validator checks submitted credentials against the configured demo users.
type Validator struct {
	users []config.DemoUser
}

// NewValidator creates a Validator over the configured demo directory.
func NewValidator(users []config.DemoUser) *Validator {
	return &Validator{users: users}
}

// Validate matches a username/password pair against the demo directory.
// Username matching is case-insensitive; the password is compared by exact
// equality. This is a placeholder scheme for the demo tier, not a hashed
// credential check.
func (v *Validator) Validate(username, password string) (config.DemoUser, bool) {
	for _, u := range v.users {
		if strings.EqualFold(u.Username, username) && u.Password == password {
			return u, true
		}
	}
	return config.DemoUser{}, false
}
