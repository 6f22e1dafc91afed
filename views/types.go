package views

import "cngcrm-backend/models"

// Reminder urgency levels and the tier keys a dispatcher flips after
// sending. Tier keys match the reminder_status field names on the mapping.
const (
	LevelCritical = "critical"
	LevelWarning  = "warning"
	LevelInfo     = "info"

	TierRem1 = "rem_1_sent"
	TierRem2 = "rem_2_sent"
	TierRem3 = "rem_3_sent"
)

// MappingSummary is a mapping annotated with its product's details, as
// attached to the customers view.
type MappingSummary struct {
	models.Mapping
	ProductName string `json:"product_name"`
	ProductType string `json:"product_type,omitempty"`
}

// AssignmentSummary is a mapping annotated with its customer's details, as
// attached to the products view.
type AssignmentSummary struct {
	models.Mapping
	CustomerName  string `json:"customer_name"`
	VehicleNumber string `json:"vehicle_number,omitempty"`
}

type CustomerView struct {
	models.Customer
	FullName     string            `json:"full_name"`
	Products     []MappingSummary  `json:"products"`
	Services     []models.Service  `json:"services"`
	Logs         []models.LogEntry `json:"logs"`
	ProductCount int               `json:"product_count"`
	ServiceCount int               `json:"service_count"`
}

type ProductView struct {
	models.Product
	Assignments     []AssignmentSummary `json:"assignments"`
	Services        []models.Service    `json:"services"`
	AssignmentCount int                 `json:"assignment_count"`
	ServiceCount    int                 `json:"service_count"`
}

// AssignmentView joins a mapping with its customer and product. When a
// foreign key dangles the joined record is a zero-value placeholder, never
// an error.
type AssignmentView struct {
	models.Mapping
	Customer        models.Customer `json:"customer"`
	Product         models.Product  `json:"product"`
	CustomerName    string          `json:"customer_name"`
	ProductName     string          `json:"product_name"`
	DaysUntilExpiry *int            `json:"days_until_expiry,omitempty"`
	IsExpired       bool            `json:"is_expired"`
	IsExpiringSoon  bool            `json:"is_expiring_soon"`
}

type ServiceHistoryView struct {
	models.Service
	CustomerName  string `json:"customer_name"`
	VehicleNumber string `json:"vehicle_number,omitempty"`
	ProductName   string `json:"product_name,omitempty"`
}

// ReminderView is one mapping due for warranty follow-up. ReminderToSend
// names the tier to dispatch today, or is empty when no tier is due.
type ReminderView struct {
	models.Mapping
	CustomerName    string `json:"customer_name"`
	MobileNumber    string `json:"mobile_number,omitempty"`
	WhatsappNumber  string `json:"whatsapp_number,omitempty"`
	ProductName     string `json:"product_name"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
	ReminderLevel   string `json:"reminder_level"`
	ReminderToSend  string `json:"reminder_to_send,omitempty"`
}

type ActivityView struct {
	models.LogEntry
	CustomerName string `json:"customer_name"`
	ProductName  string `json:"product_name,omitempty"`
}

type Stats struct {
	TotalCustomers    int `json:"totalCustomers"`
	TotalProducts     int `json:"totalProducts"`
	TotalAssignments  int `json:"totalAssignments"`
	TotalServices     int `json:"totalServices"`
	TotalLogs         int `json:"totalLogs"`
	ExpiringThisWeek  int `json:"expiringThisWeek"`
	ExpiringThisMonth int `json:"expiringThisMonth"`
	PendingServices   int `json:"pendingServices"`
	ActiveWarranties  int `json:"activeWarranties"`
	RenewedWarranties int `json:"renewedWarranties"`
}

// Data is the full set of derived views plus aggregate statistics,
// recomputed in full from the raw record sets on every change.
type Data struct {
	Customers      []CustomerView       `json:"customers"`
	Products       []ProductView        `json:"products"`
	Assignments    []AssignmentView     `json:"assignments"`
	ServiceHistory []ServiceHistoryView `json:"serviceHistory"`
	Reminders      []ReminderView       `json:"reminders"`
	ActivityLogs   []ActivityView       `json:"activityLogs"`
	Stats          Stats                `json:"stats"`
}
