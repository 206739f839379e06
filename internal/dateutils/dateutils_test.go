package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"ISO date", "2025-03-15", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"ISO with time", "2025-03-15 14:30:00", time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC), false},
		{"European dotted", "15.03.2025", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"US slashed", "03/15/2025", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"month name", "Mar 15, 2025", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"extra whitespace", "  2025-03-15  ", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"empty", "", time.Time{}, true},
		{"garbage", "not a date", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.expected), "got %v, expected %v", got, tt.expected)
		})
	}
}

func TestParseOptionalDate(t *testing.T) {
	t.Run("empty yields nil without error", func(t *testing.T) {
		got, err := ParseOptionalDate("   ")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unparseable yields nil with error", func(t *testing.T) {
		got, err := ParseOptionalDate("???")
		assert.Error(t, err)
		assert.Nil(t, got)
	})

	t.Run("valid yields pointer", func(t *testing.T) {
		got, err := ParseOptionalDate("2024-12-31")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 2024, got.Year())
	})
}

func TestDaysApart(t *testing.T) {
	a := time.Date(2025, 6, 10, 23, 59, 0, 0, time.UTC)
	b := time.Date(2025, 6, 12, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 2, DaysApart(a, b))
	assert.Equal(t, 2, DaysApart(b, a))
	assert.Equal(t, 0, DaysApart(a, a))
}

func TestWithinDays(t *testing.T) {
	day := func(d int) *time.Time {
		t := time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
		return &t
	}

	assert.True(t, WithinDays(day(10), day(11), 1))
	assert.False(t, WithinDays(day(10), day(12), 1))
	assert.True(t, WithinDays(day(10), day(17), 7))
	assert.False(t, WithinDays(nil, day(10), 7))
	assert.False(t, WithinDays(day(10), nil, 7))
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 1, 1, 22, 0, 0, 0, time.UTC)
	nextDay := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(morning, evening))
	assert.False(t, SameDay(evening, nextDay))
}
