package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryDate(t *testing.T) {
	tests := []struct {
		name     string
		purchase string
		months   int
		want     string
	}{
		{"eighteen months", "2024-01-01", 18, "2025-06-30"},
		{"twelve months", "2024-03-15", 12, "2025-03-14"},
		{"one month", "2024-06-01", 1, "2024-06-30"},
		{"month-end overflow leap year", "2024-01-31", 1, "2024-03-01"},
		{"month-end overflow non-leap", "2023-01-31", 1, "2023-03-02"},
		{"empty purchase date", "", 12, ""},
		{"zero months", "2024-01-01", 0, ""},
		{"negative months", "2024-01-01", -3, ""},
		{"unparseable date", "31/01/2024", 12, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpiryDate(tt.purchase, tt.months))
		})
	}
}

func TestReminderDate(t *testing.T) {
	assert.Equal(t, "2024-12-01", ReminderDate("2024-12-31", 30))
	assert.Equal(t, "2024-12-16", ReminderDate("2024-12-31", 15))
	assert.Equal(t, "2024-12-30", ReminderDate("2024-12-31", 1))
	assert.Equal(t, "", ReminderDate("", 30))
}

func TestNextServiceDate(t *testing.T) {
	assert.Equal(t, "2024-07-29", NextServiceDate("2024-01-31", 180))
	assert.Equal(t, "", NextServiceDate("", 180))
	assert.Equal(t, "", NextServiceDate("2024-01-31", 0))
}

func TestDaysUntil(t *testing.T) {
	today := time.Date(2024, 12, 1, 14, 35, 12, 0, time.UTC)

	days, ok := DaysUntil(today, "2024-12-31")
	require.True(t, ok)
	assert.Equal(t, 30, days)

	days, ok = DaysUntil(today, "2024-12-01")
	require.True(t, ok)
	assert.Equal(t, 0, days)

	days, ok = DaysUntil(today, "2024-11-28")
	require.True(t, ok)
	assert.Equal(t, -3, days)

	_, ok = DaysUntil(today, "")
	assert.False(t, ok)

	_, ok = DaysUntil(today, "not-a-date")
	assert.False(t, ok)
}

func TestDaysUntilIgnoresTimeOfDay(t *testing.T) {
	// 23:59 on the same calendar day must count whole days identically to
	// midnight.
	late := time.Date(2024, 12, 1, 23, 59, 59, 0, time.UTC)
	early := time.Date(2024, 12, 1, 0, 0, 1, 0, time.UTC)

	d1, ok := DaysUntil(late, "2024-12-31")
	require.True(t, ok)
	d2, ok := DaysUntil(early, "2024-12-31")
	require.True(t, ok)
	assert.Equal(t, d1, d2)
	assert.Equal(t, 30, d1)
}

func TestFormatDisplayDate(t *testing.T) {
	assert.Equal(t, "31/01/2024", FormatDisplayDate("2024-01-31"))
	assert.Equal(t, "N/A", FormatDisplayDate(""))
	assert.Equal(t, "Invalid Date", FormatDisplayDate("garbage"))
	assert.Equal(t, "Invalid Date", FormatDisplayDate("2024-13-45"))
}

func TestParseISODate(t *testing.T) {
	got, ok := ParseISODate("2024-02-29")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)

	_, ok = ParseISODate("2023-02-29")
	assert.False(t, ok)
}
