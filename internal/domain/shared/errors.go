// Package shared contains common domain types, errors and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState = errors.New("invalid state")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "point", "mark", "achievement"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// ValidationError builds a validation error with a formatted message.
func ValidationError(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrValidation, fmt.Sprintf(format, args...))
}

// User domain errors
var (
	ErrUserNotFound      = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists = NewDomainError("user", "Create", ErrAlreadyExists, "user with the same username or email already exists")
	ErrInvalidCredential = NewDomainError("user", "Authenticate", ErrUnauthorized, "invalid credentials")
)

// Industry domain errors
var (
	ErrIndustryNotFound         = NewDomainError("industry", "Find", ErrNotFound, "industry not found")
	ErrIndustryAlreadyExists    = NewDomainError("industry", "Create", ErrAlreadyExists, "industry with this name already exists")
	ErrIndustryInUse            = NewDomainError("industry", "Delete", ErrAlreadyExists, "industry is referenced by points")
	ErrSubIndustryNotFound      = NewDomainError("sub_industry", "Find", ErrNotFound, "sub-industry not found")
	ErrSubIndustryAlreadyExists = NewDomainError("sub_industry", "Create", ErrAlreadyExists, "sub-industry with this name already exists in the industry")
	ErrSubIndustryInUse         = NewDomainError("sub_industry", "Delete", ErrAlreadyExists, "sub-industry is referenced by points")
	ErrSubIndustryMismatch      = NewDomainError("sub_industry", "Validate", ErrValidation, "sub-industry does not belong to the selected industry")
	ErrCriteriaNotFound         = NewDomainError("criteria", "Find", ErrNotFound, "criteria not found")
	ErrCriteriaAlreadyExists    = NewDomainError("criteria", "Create", ErrAlreadyExists, "criteria with this text already exists in the industry")
	ErrCriteriaMismatch         = NewDomainError("criteria", "Validate", ErrValidation, "provided criteria do not belong to the same industry as the point")
)

// Point and mark domain errors
var (
	ErrPointNotFound   = NewDomainError("point", "Find", ErrNotFound, "point not found")
	ErrMarkNotFound    = NewDomainError("mark", "Find", ErrNotFound, "mark not found")
	ErrLengthMismatch  = NewDomainError("mark", "Score", ErrValidation, "answers and weights must have the same length")
	ErrZeroWeightSum   = NewDomainError("mark", "Score", ErrValidation, "sum of weights is zero")
	ErrNegativeWeight  = NewDomainError("mark", "Score", ErrNegativeValue, "weights must be non-negative")
	ErrCommentTooLong  = NewDomainError("mark", "Validate", ErrValueOutOfRange, "comment is longer than 2000 characters")
	ErrQuestionsLength = NewDomainError("mark", "Validate", ErrValidation, "question_ids and answers must have the same length")
)

// Achievement domain errors
var (
	ErrAchievementNotFound     = NewDomainError("achievement", "Find", ErrNotFound, "achievement not found")
	ErrUserAchievementNotFound = NewDomainError("achievement", "FindProgress", ErrNotFound, "user achievement not found")
	ErrAchievementExists       = NewDomainError("achievement", "Create", ErrAlreadyExists, "achievement with this name already exists")
	ErrUnknownAchievementType  = NewDomainError("achievement", "Validate", ErrInvalidInput, "unknown achievement type")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" (conflict) error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsUnauthorized checks if the error is an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
