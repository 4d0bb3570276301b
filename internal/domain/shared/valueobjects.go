package shared

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// ═══════════════════════════════════════════════════════════════════════════
// Coordinates Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that coordinates are within the valid geographic range.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return NewDomainError("point", "Validate", ErrValueOutOfRange, "latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return NewDomainError("point", "Validate", ErrValueOutOfRange, "longitude must be between -180 and 180")
	}
	return nil
}

// String returns "lat,lon".
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// ═══════════════════════════════════════════════════════════════════════════
// Text constraints
// ═══════════════════════════════════════════════════════════════════════════

// TextLength validates that s has between min and max runes after trimming.
// max <= 0 means no upper bound.
func TextLength(domain, field, s string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n < min {
		if min == 1 {
			return NewDomainError(domain, "Validate", ErrEmptyValue, field+" cannot be empty")
		}
		return ValidationError(domain, "Validate", "%s must be at least %d characters", field, min)
	}
	if max > 0 && n > max {
		return NewDomainError(domain, "Validate", ErrValueOutOfRange, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}

// ValidateEmail checks that s is a syntactically valid email address.
func ValidateEmail(s string) error {
	if strings.TrimSpace(s) == "" {
		return NewDomainError("user", "Validate", ErrEmptyValue, "email cannot be empty")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return ValidationError("user", "Validate", "invalid email address %q", s)
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination
// ═══════════════════════════════════════════════════════════════════════════

// Page bounds for list endpoints.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// Page describes an offset-based page.
type Page struct {
	Skip  int
	Limit int
}

// NewPage normalizes skip/limit into a valid page.
func NewPage(skip, limit int) Page {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Skip: skip, Limit: limit}
}
