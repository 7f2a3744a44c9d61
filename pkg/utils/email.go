package utils

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ValidateEmail checks the address has the rough shape of an email.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	if !emailRegex.MatchString(email) {
		return &ValidationError{Field: "email", Message: "Please use a valid email address"}
	}
	return nil
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
// Email uniqueness is case-insensitive, so every address is normalized
// before it touches the database.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeEmails normalizes a batch, dropping empties and duplicates.
func NormalizeEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = NormalizeEmail(e)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
