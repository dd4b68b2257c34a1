package utils

import (
	"strconv"
	"strings"
)

// ParseInt parses a query value, returning def when it is empty or malformed.
func ParseInt(s string, def int) int {
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

// ParseIntPtr parses an optional integer query value.
func ParseIntPtr(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &v
}

// ParseFloatPtr parses an optional decimal query value; a comma is accepted
// as the decimal separator.
func ParseFloatPtr(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
