// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"
)

var (
	usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

const (
	MaxUsernameLen = 150
	MinPasswordLen = 8
	MaxPasswordLen = 128
	MaxSlugLen     = 50
)

// ValidateUsername checks if a username meets requirements: letters, digits and @ . + - _ only.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers and @/./+/-/_ characters")
	}
	return nil
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must not exceed %d characters", MaxPasswordLen)
	}

	allDigits := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return fmt.Errorf("password cannot be entirely numeric")
	}

	if _, common := commonPasswords[password]; common {
		return fmt.Errorf("password is too common")
	}
	return nil
}

var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"qwertyuiop": {},
	"iloveyou":   {},
	"sunshine":   {},
	"princess":   {},
	"football":   {},
	"baseball":   {},
	"welcome1":   {},
	"abc12345":   {},
}

// ValidateEmail checks basic email format. An empty email is allowed.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateSlug validates a group slug: latin letters, digits, hyphens and underscores.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug is required")
	}
	if len(slug) > MaxSlugLen {
		return fmt.Errorf("slug must not exceed %d characters", MaxSlugLen)
	}
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("slug can only contain latin letters, numbers, underscores and hyphens")
	}
	return nil
}
