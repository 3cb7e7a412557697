package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var dateFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate tries the accepted date formats in turn.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, format := range dateFormats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ParseSaleDate parses s and keeps only its calendar day, at UTC midnight.
func ParseSaleDate(s string) (time.Time, error) {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseBoundedInt parses a query value, using fallback when it is empty and
// rejecting values outside [lo, hi].
func ParseBoundedInt(raw string, fallback, lo, hi int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("must be between %d and %d", lo, hi)
	}
	return n, nil
}

// ClampLimit keeps a page size within [1, upper], using fallback for non-positive values.
func ClampLimit(limit, fallback, upper int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > upper {
		return upper
	}
	return limit
}
