package domain

import (
	"errors"
	"strings"
)

var (
	// ErrChallengeNotFound is returned when a challenge id does not resolve.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrUserNotFound is returned when a user record no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrSubmissionNotFound indicates the submission id is unknown.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrSubmissionFinalized is returned when an evaluated submission would be mutated again.
	ErrSubmissionFinalized = errors.New("submission already evaluated")
	// ErrInvalidChallenge indicates a challenge that cannot be evaluated (no test cases).
	ErrInvalidChallenge = errors.New("challenge has no test cases")
	// ErrUnsupportedLanguage indicates no executor is registered for the declared language.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrVersionConflict is returned by stores when a compare-and-set update lost a race.
	ErrVersionConflict = errors.New("version conflict")
	// ErrConflict indicates a uniqueness violation (username or email taken).
	ErrConflict = errors.New("resource conflict")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden indicates the caller may not access the resource.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries the list of messages produced by request validation.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}
