// Package convert provides type conversion utilities.
package convert

import (
	"strconv"
	"strings"
)

// ToFloat64 parses an exchange-provided decimal string.
// Returns 0 for empty strings or parse failures.
func ToFloat64(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}

// ToInt64 parses an integer string, returning 0 on failure.
func ToInt64(v string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	return n
}
