package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxChildIDLength bounds the opaque child identifiers sent by clients
const MaxChildIDLength = 128

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateChildID checks that a child identifier is present and bounded
func ValidateChildID(childID string) error {
	childID = strings.TrimSpace(childID)
	if childID == "" {
		return ValidationError{Field: "child_id", Message: "child_id is required"}
	}
	if utf8.RuneCountInString(childID) > MaxChildIDLength {
		return ValidationError{Field: "child_id", Message: fmt.Sprintf("child_id must be at most %d characters", MaxChildIDLength)}
	}
	return nil
}

// ValidateSeverity checks a hidden comment severity
func ValidateSeverity(severity int) error {
	if severity < 0 || severity > 2 {
		return ValidationError{Field: "severity", Message: "severity must be between 0 and 2"}
	}
	return nil
}
