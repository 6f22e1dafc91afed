package models

import "time"

const (
	ServiceTypeRegular   = "Regular"
	ServiceTypeWarranty  = "Warranty"
	ServiceTypeComplaint = "Complaint"
	ServiceTypeEmergency = "Emergency"

	ServiceStatusCompleted = "Completed"
	ServiceStatusPending   = "Pending"
	ServiceStatusCancelled = "Cancelled"
)

// Service is one service visit for a customer's kit.
type Service struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	ProductID  string `json:"product_id,omitempty"`

	ServiceDate     string `json:"service_date"`
	ServiceType     string `json:"service_type"`
	ServiceStatus   string `json:"service_status"`
	ServiceNotes    string `json:"service_notes,omitempty"`
	NextServiceDate string `json:"next_service_date,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
