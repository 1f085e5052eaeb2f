package sanitize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxEmailLength is the longest address ValidateEmail accepts.
const MaxEmailLength = 254

var emailPattern = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_\x60{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

var (
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	specialPattern = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

var commonPasswords = map[string]struct{}{
	"password": {}, "123456": {}, "password123": {}, "admin": {}, "qwerty": {},
	"letmein": {}, "welcome": {}, "monkey": {}, "dragon": {},
}

// Strength grades a password.
type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

// EmailResult reports the outcome of ValidateEmail.
type EmailResult struct {
	Valid     bool     `json:"valid"`
	Sanitized string   `json:"sanitized"`
	Errors    []string `json:"errors,omitempty"`
}

// PasswordResult reports the outcome of ValidatePassword.
type PasswordResult struct {
	Valid       bool     `json:"valid"`
	Strength    Strength `json:"strength"`
	Errors      []string `json:"errors,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ValidateEmail lower-cases and trims an address, then checks length, format
// and consecutive dots.
func ValidateEmail(email string) EmailResult {
	if strings.TrimSpace(email) == "" {
		return EmailResult{Errors: []string{"Email is required"}}
	}

	sanitized := strings.ToLower(strings.TrimSpace(email))
	var errs []string
	if len(sanitized) > MaxEmailLength {
		errs = append(errs, "Email is too long")
	}
	if !emailPattern.MatchString(sanitized) {
		errs = append(errs, "Invalid email format")
	}
	if strings.Contains(sanitized, "..") {
		errs = append(errs, "Email contains invalid characters")
	}
	return EmailResult{Valid: len(errs) == 0, Sanitized: sanitized, Errors: errs}
}

// ValidatePassword scores length and character variety. Common passwords
// always score zero.
func ValidatePassword(password string) PasswordResult {
	if password == "" {
		return PasswordResult{Strength: StrengthWeak, Errors: []string{"Password is required"}}
	}

	var (
		errs        []string
		suggestions []string
		score       int
	)

	switch n := utf8.RuneCountInString(password); {
	case n < 8:
		errs = append(errs, "Password must be at least 8 characters long")
	case n >= 12:
		score += 2
	default:
		score++
	}

	checks := []struct {
		pattern    *regexp.Regexp
		suggestion string
	}{
		{lowerPattern, "Add lowercase letters"},
		{upperPattern, "Add uppercase letters"},
		{digitPattern, "Add numbers"},
		{specialPattern, "Add special characters"},
	}
	for _, check := range checks {
		if check.pattern.MatchString(password) {
			score++
		} else {
			suggestions = append(suggestions, check.suggestion)
		}
	}

	if _, common := commonPasswords[strings.ToLower(password)]; common {
		errs = append(errs, "Password is too common")
		score = 0
	}

	strength := StrengthWeak
	switch {
	case score >= 5:
		strength = StrengthStrong
	case score >= 3:
		strength = StrengthMedium
	}

	return PasswordResult{
		Valid:       len(errs) == 0 && score >= 3,
		Strength:    strength,
		Errors:      errs,
		Suggestions: suggestions,
	}
}

// ValidateInputLength allows empty input; required checks live elsewhere.
func ValidateInputLength(input string, maxLength int, field string) (bool, string) {
	if input == "" {
		return true, ""
	}
	if utf8.RuneCountInString(input) > maxLength {
		return false, fmt.Sprintf("%s must be no more than %d characters", field, maxLength)
	}
	return true, ""
}

// ValidateFileName rejects names that Path would alter.
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name is required")
	}
	if Path(name) != name {
		return fmt.Errorf("file name contains invalid characters")
	}
	return nil
}
