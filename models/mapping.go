package models

import "time"

// ReminderStatus tracks which one-time warranty notifications have already
// gone out for a mapping. WarrantyRenewed permanently suppresses all
// further reminder computation.
type ReminderStatus struct {
	Rem1Sent        bool `json:"rem_1_sent"`
	Rem2Sent        bool `json:"rem_2_sent"`
	Rem3Sent        bool `json:"rem_3_sent"`
	RenewalSent     bool `json:"renewal_sent"`
	WarrantyRenewed bool `json:"warranty_renewed"`
}

// Mapping is a warranty assignment linking one customer to one purchased
// product. The warranty period is copied from the product at sale time and
// stays editable on the mapping; the expiry date is derived from purchase
// date + period and must never be stored stale relative to those inputs.
type Mapping struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	ProductID  string `json:"product_id"`

	PurchaseDate         string         `json:"product_purchase_date"`
	FittingDate          string         `json:"product_fitting_date,omitempty"`
	WarrantyPeriodMonths int            `json:"product_warranty_period"`
	WarrantyExpiryDate   string         `json:"warranty_expiry_date,omitempty"`
	Notes                string         `json:"notes,omitempty"`
	ReminderStatus       ReminderStatus `json:"reminder_status"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
