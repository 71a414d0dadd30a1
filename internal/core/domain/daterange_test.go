package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	midnight := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-03-01T09:00:00Z", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		{"2026-03-01", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"today", midnight},
		{"Today", midnight},
		{"tomorrow", midnight.AddDate(0, 0, 1)},
		{"yesterday", midnight.AddDate(0, 0, -1)},
		{"+7 days", midnight.AddDate(0, 0, 7)},
		{"-1 day", midnight.AddDate(0, 0, -1)},
		{"+2 weeks", midnight.AddDate(0, 0, 14)},
		{"-2 weeks", midnight.AddDate(0, 0, -14)},
		{"+1 month", midnight.AddDate(0, 1, 0)},
		{"  +7 days  ", midnight.AddDate(0, 0, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input, now)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	for _, input := range []string{"", "next thursday", "+7", "+7 fortnights", "seven days", "03/01/2026"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseDate(input, now)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestValidateRange(t *testing.T) {
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateRange(start, start.AddDate(0, 0, 30)))
	assert.ErrorIs(t, ValidateRange(start, start), ErrInvalidInput)
	assert.ErrorIs(t, ValidateRange(start.AddDate(0, 0, 1), start), ErrInvalidInput)
	assert.ErrorIs(t, ValidateRange(time.Time{}, start), ErrInvalidInput)
	assert.ErrorIs(t, ValidateRange(start, time.Time{}), ErrInvalidInput)
}
