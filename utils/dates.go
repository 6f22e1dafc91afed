// utils/dates.go
package utils

import "time"

// ISODate is the wire format for all business dates ("2024-01-31").
const ISODate = "2006-01-02"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}

// TodayISO returns the current date in ISO form.
func TodayISO() string {
	return BeginningOfDay(time.Now()).Format(ISODate)
}

// ParseISODate parses an ISO business date. The zero time and false are
// returned for empty or unparseable input.
func ParseISODate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ExpiryDate computes the warranty expiry: purchase date + months calendar
// months, then back one day. Day-of-month overflow follows time.AddDate
// normalization (Jan 31 + 1 month lands in early March before the one-day
// step back). Returns "" if either input is absent.
func ExpiryDate(purchaseDate string, warrantyMonths int) string {
	t, ok := ParseISODate(purchaseDate)
	if !ok || warrantyMonths <= 0 {
		return ""
	}
	return t.AddDate(0, warrantyMonths, 0).AddDate(0, 0, -1).Format(ISODate)
}

// ReminderDate computes the trigger date a fixed number of days before
// expiry. Returns "" if the expiry date is absent.
func ReminderDate(expiryDate string, daysBefore int) string {
	t, ok := ParseISODate(expiryDate)
	if !ok {
		return ""
	}
	return t.AddDate(0, 0, -daysBefore).Format(ISODate)
}

// NextServiceDate computes the next due date from the last service date and
// the product's service cycle. Returns "" if either input is absent.
func NextServiceDate(serviceDate string, cycleDays int) string {
	t, ok := ParseISODate(serviceDate)
	if !ok || cycleDays <= 0 {
		return ""
	}
	return t.AddDate(0, 0, cycleDays).Format(ISODate)
}

// DaysUntil counts whole calendar days from today to the given ISO date.
// Negative when the date has passed. The second return is false when the
// date is absent or unparseable.
func DaysUntil(today time.Time, date string) (int, bool) {
	t, ok := ParseISODate(date)
	if !ok {
		return 0, false
	}
	return DaysBetween(today, t), true
}

// FormatDisplayDate renders an ISO date as DD/MM/YYYY for display. Absent
// values render as "N/A", unparseable ones as "Invalid Date". Never panics.
func FormatDisplayDate(value string) string {
	if value == "" {
		return "N/A"
	}
	t, ok := ParseISODate(value)
	if !ok {
		return "Invalid Date"
	}
	return t.Format("02/01/2006")
}
