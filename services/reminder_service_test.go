package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cngcrm-backend/models"
	"cngcrm-backend/views"
)

func TestComposeMessagePerTier(t *testing.T) {
	s := &ReminderService{}
	base := views.ReminderView{
		Mapping:      models.Mapping{WarrantyExpiryDate: "2024-12-31"},
		CustomerName: "Ramesh Patel",
		ProductName:  "Sequential CNG Kit",
	}

	base.ReminderToSend = views.TierRem1
	assert.Equal(t,
		"Hello Ramesh Patel, the warranty on your Sequential CNG Kit expires in 30 days, on 31/12/2024.",
		s.composeMessage(base))

	base.ReminderToSend = views.TierRem2
	assert.Equal(t,
		"Hello Ramesh Patel, the warranty on your Sequential CNG Kit expires in 15 days, on 31/12/2024.",
		s.composeMessage(base))

	base.ReminderToSend = views.TierRem3
	assert.Equal(t,
		"Hello Ramesh Patel, the warranty on your Sequential CNG Kit expires tomorrow (31/12/2024). Please visit us to renew.",
		s.composeMessage(base))
}
