package domain

import (
	"fmt"
	"strings"
)

// EventFilter is the read-side filter offered to API clients. Empty fields match everything.
type EventFilter struct {
	Category   Category
	Difficulty Difficulty
	Status     Status
	Query      string
}

// Match reports whether e satisfies every set criterion. Query is a
// case-insensitive substring match on the name.
func (f EventFilter) Match(e *Event) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Difficulty != "" && e.Difficulty != f.Difficulty {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		return strings.Contains(strings.ToLower(e.Name), strings.ToLower(q))
	}
	return true
}

// IsZero reports whether the filter has no criteria.
func (f EventFilter) IsZero() bool {
	return f == EventFilter{}
}

// EventOrdering returns the comparison for a sort key: "date", "name",
// "createdAt" or "fee", optionally prefixed with "-" for descending order.
// The empty key returns nil, which keeps the persisted order.
func EventOrdering(key string) (func(a, b *Event) bool, error) {
	if key == "" {
		return nil, nil
	}
	desc := strings.HasPrefix(key, "-")
	field := strings.TrimPrefix(key, "-")

	var less func(a, b *Event) bool
	switch field {
	case "date":
		less = func(a, b *Event) bool {
			if !a.Date.Equal(b.Date.Time) {
				return a.Date.Before(b.Date.Time)
			}
			return normalizeClock(a.Time) < normalizeClock(b.Time)
		}
	case "name":
		less = func(a, b *Event) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "createdAt":
		less = func(a, b *Event) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "fee":
		less = func(a, b *Event) bool { return a.RegistrationFee < b.RegistrationFee }
	default:
		return nil, NewValidationError(FieldError{
			Field:   "sort",
			Message: fmt.Sprintf("unknown sort key %q", key),
		})
	}
	if desc {
		return func(a, b *Event) bool { return less(b, a) }, nil
	}
	return less, nil
}
