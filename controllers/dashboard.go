package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cngcrm-backend/store"
	"cngcrm-backend/utils"
)

// DashboardController serves the aggregate statistics, the activity log
// and the connectivity surface.
type DashboardController struct {
	Store *store.UnifiedStore
}

// ConnectivityInput signals an online/offline transition from the exterior.
type ConnectivityInput struct {
	Online *bool `json:"online" binding:"required"`
}

// GetDashboardOverview returns the stats object plus the most urgent
// reminders for the dashboard cards.
func (dc *DashboardController) GetDashboardOverview(c *gin.Context) {
	data := dc.Store.Data()
	upcoming := data.Reminders
	if len(upcoming) > 7 {
		upcoming = upcoming[:7]
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":             data.Stats,
		"upcomingReminders": upcoming,
		"meta":              dc.Store.Meta(),
	})
}

func (dc *DashboardController) GetActivityLogs(c *gin.Context) {
	c.JSON(http.StatusOK, dc.Store.Data().ActivityLogs)
}

func (dc *DashboardController) GetMeta(c *gin.Context) {
	c.JSON(http.StatusOK, dc.Store.Meta())
}

// SetConnectivity records an online/offline transition; coming back online
// drains the offline queue and reconciles with the remote store.
func (dc *DashboardController) SetConnectivity(c *gin.Context) {
	var input ConnectivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	dc.Store.SetOnline(c.Request.Context(), *input.Online)
	c.JSON(http.StatusOK, dc.Store.Meta())
}
