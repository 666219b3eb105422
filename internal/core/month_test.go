package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthKeyOf(t *testing.T) {
	assert.Equal(t, MonthKey("2024-05"), MonthKeyOf(time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, MonthKey("2024-05"), NewDate(2024, 5, 10).MonthKey())
}

func TestParseMonthKey(t *testing.T) {
	k, err := ParseMonthKey("2024-05")
	require.NoError(t, err)
	assert.Equal(t, MonthKey("2024-05"), k)

	for _, bad := range []string{"", "2024-5", "2024-13", "24-05", "2024-05-01", "abcd-ef"} {
		_, err := ParseMonthKey(bad)
		assert.ErrorIs(t, err, ErrInvalidMonthKey, bad)
	}
}

func TestMonthKeyNavigation(t *testing.T) {
	tests := []struct {
		key  MonthKey
		next MonthKey
		prev MonthKey
	}{
		{"2024-05", "2024-06", "2024-04"},
		{"2024-12", "2025-01", "2024-11"},
		{"2024-01", "2024-02", "2023-12"},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.next, tt.key.Next())
			assert.Equal(t, tt.prev, tt.key.Prev())
		})
	}
}

func TestMonthKeyDaysIn(t *testing.T) {
	assert.Equal(t, 29, MonthKey("2024-02").DaysIn())
	assert.Equal(t, 28, MonthKey("2023-02").DaysIn())
	assert.Equal(t, 31, MonthKey("2024-12").DaysIn())
}

func TestMonthKeyContains(t *testing.T) {
	k := MonthKey("2024-05")
	assert.True(t, k.Contains(NewDate(2024, 5, 1)))
	assert.False(t, k.Contains(NewDate(2024, 6, 1)))
	assert.False(t, k.Contains(Date{}))
}
