// Package norm holds the free-function normalization helpers shared by
// the Reference Data Loaders, Query Layer, and Label Data Builder.
// They are intentionally static, stateless, and idempotent.
package norm

import (
	"strconv"
	"strings"

	"github.com/wms-platform/labeltagctl/internal/apperr"
)

// Trim trims leading/trailing whitespace.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// UpperTrim uppercases s (ASCII-stable, locale-independent) after
// trimming.
func UpperTrim(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// IsBlank reports whether s is empty after trimming.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IntOrDefault parses s as an int, returning def on blank or invalid
// input.
func IntOrDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// FloatOrDefault parses s as a float64, returning def on blank or
// invalid input.
func FloatOrDefault(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// RequireNonEmpty trims s and fails with apperr.ValidationError if the
// result is blank. field names the offending field in the error.
func RequireNonEmpty(field, s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", apperr.ValidationError(field + " is required").WithDetail("field", field)
	}
	return trimmed, nil
}

// SKU normalises an internal or short SKU: uppercase and required.
func SKU(field, s string) (string, error) {
	trimmed, err := RequireNonEmpty(field, s)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(trimmed), nil
}

// StagingLocation normalises a required staging-location value:
// uppercase and required.
func StagingLocation(s string) (string, error) {
	trimmed, err := RequireNonEmpty("stagingLocation", s)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(trimmed), nil
}

// OptionalStagingLocation normalises an optional staging-location
// value: nil on blank, else uppercased.
func OptionalStagingLocation(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	upper := strings.ToUpper(trimmed)
	return &upper
}

// Barcode normalises a barcode value: trim and required.
func Barcode(field, s string) (string, error) {
	return RequireNonEmpty(field, s)
}

// CarrierCode normalises a carrier SCAC: uppercase and required.
func CarrierCode(s string) (string, error) {
	trimmed, err := RequireNonEmpty("carrierCode", s)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(trimmed), nil
}

// DigitsOnly returns only the ASCII digit characters of s, in order.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripLeadingZeros removes leading '0' characters from s, collapsing
// an all-zero string to "0".
func StripLeadingZeros(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
