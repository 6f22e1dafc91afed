package models

import (
	"strings"
	"time"
)

type Customer struct {
	ID string `json:"id"`

	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	MobileNumber   string `json:"mobile_number"`
	WhatsappNumber string `json:"whatsapp_number,omitempty"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	VehicleNumber  string `json:"vehicle_number"`
	VehicleModel   string `json:"vehicle_model,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// FullName joins first and last name, tolerating either being empty.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
