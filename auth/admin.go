package auth

import (
	"errors"
	"strings"
)

var ErrInvalidGoogleToken = errors.New("unable to verify Google token")

// Allowlist grants admin access by email. Matching is case-insensitive.
type Allowlist struct {
	emails map[string]struct{}
}

func NewAllowlist(emails []string) *Allowlist {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			set[email] = struct{}{}
		}
	}
	return &Allowlist{emails: set}
}

func (a *Allowlist) IsAdmin(email string) bool {
	_, ok := a.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
