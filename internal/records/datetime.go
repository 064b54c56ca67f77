package records

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	clockLayout    = "15:04"
	clockSecLayout = "15:04:05"
)

// ValidDate checks a calendar date in YYYY-MM-DD form.
func ValidDate(value string) error {
	if _, err := time.Parse(dateLayout, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD, got %q", value)
	}
	return nil
}

// ValidTime checks a time of day in HH:MM or HH:MM:SS form.
func ValidTime(value string) error {
	value = strings.TrimSpace(value)
	if _, err := time.Parse(clockLayout, value); err == nil {
		return nil
	}
	if _, err := time.Parse(clockSecLayout, value); err == nil {
		return nil
	}
	return fmt.Errorf("time must be HH:MM, got %q", value)
}

// FormatDate renders t as a calendar date in its own location.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
