/*
Package validate implements field-level input validation.

PURPOSE:
  Everything a form submission must pass before it is allowed to touch
  the catalog or the ledger: string length, numeric and decimal parsing,
  year ranges, and required dropdown selections. One actionable,
  field-specific message per failed attempt.

TWO LAYERS:
  1. Field helpers (String, Year, Int, Decimal): parse raw text input and
     return typed values, for callers assembling inputs field by field.
  2. Struct(v): tag-driven validation via go-playground/validator for
     already-typed input structs. Tags are translated into the same
     user-facing wording the field helpers produce.

MESSAGES:
  Messages are part of the contract: the presentation layer shows them
  verbatim. Keep the wording stable.

USAGE:
  year, err := validate.Year("vintage year", "2019")
  if err := validate.Struct(input); err != nil { ... }
*/
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MinStringLength is the shortest accepted user-entered name.
const MinStringLength = 2

// =============================================================================
// ERRORS
// =============================================================================

// ErrValidation is the sentinel all validation failures unwrap to.
var ErrValidation = errors.New("validation failed")

// FieldError is a single user-facing validation failure.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func (e *FieldError) Unwrap() error { return ErrValidation }

func fieldErrorf(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// FIELD HELPERS
// =============================================================================

// String trims whitespace and enforces the minimum length.
func String(field, value string) (string, error) {
	cleaned := strings.TrimSpace(value)
	if len(cleaned) < MinStringLength {
		return "", fieldErrorf(field,
			"The field '%s' should have at least %d characters.", title(field), MinStringLength)
	}
	return cleaned, nil
}

// Selection enforces that a dropdown option was chosen and returns it
// trimmed and lowercased.
func Selection(field, value string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	if cleaned == "" {
		return "", fieldErrorf(field,
			"You haven't selected an option for the field '%s'.", title(field))
	}
	return cleaned, nil
}

// Year parses a year between 0 and the current year.
func Year(field, value string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fieldErrorf(field,
			"The field '%s' should contain only numbers.", title(field))
	}

	end := time.Now().Year()
	if year < 0 || year > end {
		return 0, fieldErrorf(field,
			"The field '%s' should be between 0 and %d.", title(field), end)
	}
	return year, nil
}

// Sign constrains the accepted range of Int.
type Sign int

const (
	AnySign Sign = iota
	Positive
	Negative
)

// Int parses an integer with an optional sign constraint.
func Int(field, value string, sign Sign) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fieldErrorf(field,
			"The field '%s' should contain only numbers.", title(field))
	}

	switch {
	case sign == Positive && n < 0:
		return 0, fieldErrorf(field,
			"The field '%s' should contain a number bigger than 0.", title(field))
	case sign == Negative && n > 0:
		return 0, fieldErrorf(field,
			"The field '%s' should contain a number lower than 0.", title(field))
	}
	return n, nil
}

// Decimal parses a decimal amount. A bare "." is treated as 0.
func Decimal(field, value string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "." {
		cleaned = "0"
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fieldErrorf(field,
			"The field '%s' should contain a price separated by dot.", title(field))
	}
	return d, nil
}

// Price parses a non-negative decimal and rounds it to two places.
func Price(field, value string) (decimal.Decimal, error) {
	d, err := Decimal(field, value)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fieldErrorf(field,
			"The field '%s' should not be negative.", title(field))
	}
	return d.Round(2), nil
}

// =============================================================================
// STRUCT VALIDATION - go-playground/validator with translated messages
// =============================================================================

var instance = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use the `label` tag as the user-facing field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})

	// Let numeric tags (gte etc.) apply to decimal.Decimal fields.
	// Precision loss is acceptable for range checks only.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// pastyear: value must not exceed the current year.
	_ = v.RegisterValidation("pastyear", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(time.Now().Year())
	})

	return v
}

// Struct validates a tagged input struct and returns the first failure
// as a *FieldError, matching the one-message-per-attempt policy.
func Struct(v any) error {
	err := instance.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		// Malformed input struct, not a user error.
		return err
	}
	return translate(verrs[0])
}

func translate(fe validator.FieldError) error {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.String {
			return fieldErrorf(field,
				"The field '%s' should have at least %d characters.", title(field), MinStringLength)
		}
		return fieldErrorf(field,
			"You haven't selected an option for the field '%s'.", title(field))
	case "min":
		return fieldErrorf(field,
			"The field '%s' should have at least %s characters.", title(field), fe.Param())
	case "max":
		return fieldErrorf(field,
			"The field '%s' should have at most %s characters.", title(field), fe.Param())
	case "gte":
		if fe.Kind() == reflect.Float64 {
			return fieldErrorf(field,
				"The field '%s' should not be negative.", title(field))
		}
		return fieldErrorf(field,
			"The field '%s' should contain a number bigger than 0.", title(field))
	case "pastyear":
		return fieldErrorf(field,
			"The field '%s' should be between 0 and %d.", title(field), time.Now().Year())
	}
	return fieldErrorf(field, "The field '%s' is not valid.", title(field))
}

// title uppercases the first letter of each word, mirroring how field
// names appear in the UI.
func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
