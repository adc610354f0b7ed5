// Package core provides the expense ledger and its balance arithmetic.
//
// This file contains the parsing of amounts typed into forms.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts user input into a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// empty input, non-numeric text, NaN, infinities and values <= 0 are
// rejected with a *ValidationError wrapping ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount(" 12,5 ") -> 12.5, nil
//	ParseAmount("-3")     -> 0, error
func ParseAmount(s string) (float64, error) {
	invalid := &ValidationError{Field: "amount", Value: s, Err: ErrInvalidAmount}

	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalid
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, invalid
	}
	if strings.Count(s, ",") > 1 || (strings.Contains(s, ",") && strings.Contains(s, ".")) {
		return 0, invalid
	}
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, invalid
	}
	return v, nil
}
