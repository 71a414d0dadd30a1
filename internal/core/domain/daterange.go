package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDate parses an absolute or relative date expression.
// Accepted forms: RFC 3339 ("2026-03-01T09:00:00Z"), plain dates
// ("2026-03-01"), "today", "tomorrow", and signed day offsets such as
// "+7 days" or "-1 day". Relative forms resolve against now in UTC,
// truncated to midnight.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidInput)
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch strings.ToLower(s) {
	case "today":
		return midnight, nil
	case "tomorrow":
		return midnight.AddDate(0, 0, 1), nil
	case "yesterday":
		return midnight.AddDate(0, 0, -1), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}

	// Signed offsets: "+7 days", "-1 day", "+2 weeks"
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		fields := strings.Fields(s)
		if len(fields) == 2 {
			n, err := strconv.Atoi(fields[0])
			if err == nil {
				switch strings.TrimSuffix(strings.ToLower(fields[1]), "s") {
				case "day":
					return midnight.AddDate(0, 0, n), nil
				case "week":
					return midnight.AddDate(0, 0, 7*n), nil
				case "month":
					return midnight.AddDate(0, n, 0), nil
				}
			}
		}
	}

	return time.Time{}, fmt.Errorf("%w: unrecognised date %q", ErrInvalidInput, s)
}

// ValidateRange rejects malformed date ranges before any network call.
func ValidateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end date must be after start date", ErrInvalidInput)
	}
	return nil
}
