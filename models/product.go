package models

import "time"

type Product struct {
	ID string `json:"id"`

	// Code is the catalog identifier printed on the kit (distinct from the
	// store-assigned document id).
	Code                    string `json:"product_id"`
	ProductName             string `json:"product_name"`
	ProductType             string `json:"product_type"`
	Manufacturer            string `json:"manufacturer,omitempty"`
	WarrantyPeriodMonths    int    `json:"warranty_period_months"`
	DefaultServiceCycleDays int    `json:"default_service_cycle_days"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
