package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// clockRegex matches HH:MM in 24-hour form. A single-digit hour is accepted
// and padded by normalizeClock.
var clockRegex = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// normalizeClock trims s and zero-pads the hour of a valid clock value, so
// "9:30" becomes "09:30". Invalid values are returned trimmed for validation
// to report.
func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == len("9:30") && clockRegex.MatchString(s) {
		return "0" + s
	}
	return s
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockRegex.MatchString(fl.Field().String())
	})
	return v
}

// EventRules are the checks that depend on configuration or on the clock.
type EventRules struct {
	MaxParticipantsLimit int
	Now                  time.Time
}

// ValidateDraft checks every field of d and returns a *ValidationError listing all
// violations, or nil.
func ValidateDraft(d EventDraft, rules EventRules) error {
	var fields []FieldError
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate event: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
		}
	}
	switch {
	case d.Date.IsZero():
		fields = append(fields, FieldError{Field: "date", Message: "date is required"})
	case !d.Date.AfterDay(rules.Now):
		fields = append(fields, FieldError{Field: "date", Message: "date must be in the future"})
	}
	if d.MaxParticipants != nil && rules.MaxParticipantsLimit > 0 && *d.MaxParticipants > rules.MaxParticipantsLimit {
		fields = append(fields, FieldError{
			Field:   "maxParticipants",
			Message: fmt.Sprintf("maxParticipants cannot exceed %d", rules.MaxParticipantsLimit),
		})
	}
	if len(fields) == 0 {
		return nil
	}
	return NewValidationError(fields...)
}

// ValidatePatch validates the event that results from applying p to current and
// reports only violations of the fields p sets. Fields left untouched are not
// re-checked, so an event that became past-dated can still be renamed.
func ValidatePatch(current *Event, p EventPatch, rules EventRules) error {
	merged := current.Draft()
	p.ApplyTo(&merged)
	err := ValidateDraft(merged, rules)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	patched := make(map[string]struct{})
	for _, f := range p.Fields() {
		patched[f] = struct{}{}
	}
	var kept []FieldError
	for _, f := range verr.Fields {
		top, _, _ := strings.Cut(f.Field, ".")
		if _, ok := patched[top]; ok {
			kept = append(kept, f)
		}
	}
	if p.MaxParticipants != nil && *p.MaxParticipants < len(current.Participants) {
		kept = append(kept, FieldError{
			Field:   "maxParticipants",
			Message: fmt.Sprintf("maxParticipants cannot be lower than the %d current participants", len(current.Participants)),
		})
	}
	if len(kept) == 0 {
		return nil
	}
	return NewValidationError(kept...)
}

// fieldPath drops the root struct name: "EventDraft.location.city" -> "location.city".
func fieldPath(fe validator.FieldError) string {
	_, path, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return path
}

func fieldMessage(fe validator.FieldError) string {
	name := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s cannot exceed %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s cannot be negative", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "clock":
		return "invalid time format, use HH:MM"
	default:
		return fmt.Sprintf("%s is invalid (%s)", name, fe.Tag())
	}
}
