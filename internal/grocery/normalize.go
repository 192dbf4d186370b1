package grocery

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// DateLayout is the on-disk format of LOGDATE and EXPDATE.
const DateLayout = "2006-01-02"

// ErrEmptyName is returned when a name is empty after normalization.
var ErrEmptyName = errors.New("name must not be empty")

// NormalizeName trims surrounding whitespace and NFC-normalizes s, so that
// visually identical names typed on different keyboards share one key.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// RequireName normalizes s and fails when the result is empty. field names
// the argument in the error.
func RequireName(field, s string) (string, error) {
	n := NormalizeName(s)
	if n == "" {
		return "", fmt.Errorf("%s: %w", field, ErrEmptyName)
	}
	return n, nil
}

// Day truncates t to midnight UTC of its calendar date in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
