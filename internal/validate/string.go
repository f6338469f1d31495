// Package validate provides input validation and sanitization utilities for
// request fields that the JSON schema layer cannot express.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooShort    = errors.New("string is too short")
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrReservedName      = errors.New("string is a reserved name")
	ErrEmpty             = errors.New("string is empty")
)

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MinLength      int            // Minimum length in runes (0 = no minimum)
	MaxLength      int            // Maximum length in runes (0 = no maximum)
	AllowedPattern *regexp.Regexp // Optional regex pattern for allowed characters
	Reserved       []string       // Exact values that are not allowed
	AllowControl   bool           // Whether control characters are allowed
	AllowEmpty     bool           // Whether empty strings are allowed
	TrimSpace      bool           // Whether to trim whitespace before validation
}

// String validates a string against the given constraints.
// Returns the validated (and optionally trimmed) string and an error if validation fails.
func String(s string, constraints StringConstraints) (string, error) {
	if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidCharacters)
	}

	// Character count, not byte count
	length := utf8.RuneCountInString(s)

	if constraints.MinLength > 0 && length < constraints.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, constraints.MinLength)
	}

	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}

	if !constraints.AllowControl && strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return "", fmt.Errorf("%w: control characters are not allowed", ErrInvalidCharacters)
	}

	if constraints.AllowedPattern != nil && !constraints.AllowedPattern.MatchString(s) {
		return "", fmt.Errorf("%w: does not match required pattern", ErrInvalidCharacters)
	}

	if slices.Contains(constraints.Reserved, s) {
		return "", fmt.Errorf("%w: %q", ErrReservedName, s)
	}

	return s, nil
}

// CriterionTitle validates a criterion title:
// - 1-100 characters after trimming
// - no control characters
// - not "score", which the ranking result adds to every alternative
func CriterionTitle(title string) (string, error) {
	return String(title, StringConstraints{
		MinLength:  1,
		MaxLength:  100,
		Reserved:   []string{"score"},
		AllowEmpty: false,
		TrimSpace:  true,
	})
}
