package models

import "time"

const (
	LogTypeWarrantySales = "Warranty/Sales"
	LogTypeService       = "Service"
	LogTypeReminder      = "Reminder"
)

// LogEntry is an append-only activity record. Entries are created as a side
// effect of mapping/service creation and reminder dispatch and are never
// edited or deleted.
type LogEntry struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	ProductID  string `json:"product_id,omitempty"`

	Action  string `json:"action"`
	Date    string `json:"date"`
	Notes   string `json:"notes,omitempty"`
	LogType string `json:"log_type"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
