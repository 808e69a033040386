// src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fundledger/backend/src/logger"
	"github.com/shopspring/decimal"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxCompanyNameLength   = 255
	MaxNotesLength         = 1024
)

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateOneOf checks that value is one of the allowed values.
func ValidateOneOf[T ~string](value T, allowed []T, fieldName string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return fmt.Errorf("%w: %s must be one of [%s], got %q", ErrValidationFailed, fieldName, strings.Join(names, ", "), string(value))
}

// --- Numeric Validators ---

// ValidateDecimalPositive checks that d is strictly greater than zero.
func ValidateDecimalPositive(d decimal.Decimal, fieldName string) error {
	if !d.IsPositive() {
		logger.L.Debug("Non-positive value rejected", "field", fieldName, "value", d.String())
		return fmt.Errorf("%w: %s must be greater than 0", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateDecimalNonNegative checks that d is zero or greater.
func ValidateDecimalNonNegative(d decimal.Decimal, fieldName string) error {
	if d.IsNegative() {
		logger.L.Debug("Negative value rejected", "field", fieldName, "value", d.String())
		return fmt.Errorf("%w: %s cannot be negative", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateDecimalRange checks that minVal <= d <= maxVal.
func ValidateDecimalRange(d decimal.Decimal, fieldName string, minVal, maxVal decimal.Decimal) error {
	if d.LessThan(minVal) || d.GreaterThan(maxVal) {
		logger.L.Debug("Decimal value out of range", "field", fieldName, "value", d.String(), "min", minVal.String(), "max", maxVal.String())
		return fmt.Errorf("%w: %s must be between %s and %s, got %s", ErrValidationFailed, fieldName, minVal.String(), maxVal.String(), d.String())
	}
	return nil
}

// ParseDecimalString parses a user-entered decimal, accepting thousands separators.
// An empty string yields ok=false and no error so callers can treat the field as absent.
func ParseDecimalString(s, fieldName string) (d decimal.Decimal, ok bool, err error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if trimmed == "" {
		return decimal.Zero, false, nil
	}
	d, err = decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: %s ('%s') is not a valid number", ErrValidationFailed, fieldName, s)
	}
	return d, true, nil
}
