// controllers/reminder.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cngcrm-backend/services"
	"cngcrm-backend/store"
	"cngcrm-backend/utils"
)

// ReminderController exposes the warranty reminder queue and manual
// dispatch triggers.
type ReminderController struct {
	Store     *store.UnifiedStore
	Reminders *services.ReminderService
}

// GetReminders returns the reminder queue: mappings with a future expiry
// and warranty not renewed, sorted soonest first.
func (rc *ReminderController) GetReminders(c *gin.Context) {
	c.JSON(http.StatusOK, rc.Store.Data().Reminders)
}

// DispatchReminders runs the daily sweep on demand.
func (rc *ReminderController) DispatchReminders(c *gin.Context) {
	sent, failed := rc.Reminders.DispatchDue(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"sent": sent, "failed": failed})
}

// SendRenewalOffer dispatches a renewal offer for one expiring mapping.
func (rc *ReminderController) SendRenewalOffer(c *gin.Context) {
	id := c.Param("id")
	for _, r := range rc.Store.Data().Reminders {
		if r.ID == id {
			if err := rc.Reminders.SendRenewalOffer(c.Request.Context(), r); err != nil {
				utils.RespondWithError(c, http.StatusInternalServerError, "Failed to send renewal offer: "+err.Error())
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Renewal offer sent"})
			return
		}
	}
	utils.RespondWithError(c, http.StatusNotFound, "No active reminder for this assignment")
}
