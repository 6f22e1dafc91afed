package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cngcrm-backend/models"
	"cngcrm-backend/store"
	"cngcrm-backend/utils"
)

// fallbackServiceCycleDays applies when the serviced product carries no
// default cycle.
const fallbackServiceCycleDays = 180

// ServiceController serves the service-history view and the Service Master
// mutations.
type ServiceController struct {
	Store *store.UnifiedStore
}

// CreateServiceInput defines the expected JSON structure for creating a service record
type CreateServiceInput struct {
	CustomerID    string `json:"customer_id" binding:"required"`
	ProductID     string `json:"product_id"`
	ServiceDate   string `json:"service_date" binding:"required"`
	ServiceType   string `json:"service_type" binding:"required,oneof=Regular Warranty Complaint Emergency"`
	ServiceStatus string `json:"service_status" binding:"required,oneof=Completed Pending Cancelled"`
	ServiceNotes  string `json:"service_notes"`
}

// UpdateServiceInput defines the expected JSON structure for updating a service record
type UpdateServiceInput struct {
	ServiceDate   *string `json:"service_date"`
	ServiceType   *string `json:"service_type" binding:"omitempty,oneof=Regular Warranty Complaint Emergency"`
	ServiceStatus *string `json:"service_status" binding:"omitempty,oneof=Completed Pending Cancelled"`
	ServiceNotes  *string `json:"service_notes"`
}

// serviceCycleDays looks up the product's service cycle for the
// next-service-due derivation.
func (sc *ServiceController) serviceCycleDays(productID string) int {
	if productID != "" {
		for _, p := range sc.Store.Raw().Products {
			if p.ID == productID && p.DefaultServiceCycleDays > 0 {
				return p.DefaultServiceCycleDays
			}
		}
	}
	return fallbackServiceCycleDays
}

func (sc *ServiceController) CreateService(c *gin.Context) {
	var input CreateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if _, ok := utils.ParseISODate(input.ServiceDate); !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid service date")
		return
	}

	service := models.Service{
		CustomerID:      input.CustomerID,
		ProductID:       input.ProductID,
		ServiceDate:     input.ServiceDate,
		ServiceType:     input.ServiceType,
		ServiceStatus:   input.ServiceStatus,
		ServiceNotes:    input.ServiceNotes,
		NextServiceDate: utils.NextServiceDate(input.ServiceDate, sc.serviceCycleDays(input.ProductID)),
	}

	result, err := sc.Store.AddItem(c.Request.Context(), models.CollectionServices, service)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create service record: "+err.Error())
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (sc *ServiceController) GetServices(c *gin.Context) {
	c.JSON(http.StatusOK, sc.Store.Data().ServiceHistory)
}

func (sc *ServiceController) GetService(c *gin.Context) {
	id := c.Param("id")
	for _, sv := range sc.Store.Data().ServiceHistory {
		if sv.ID == id {
			c.JSON(http.StatusOK, sv)
			return
		}
	}
	utils.RespondWithError(c, http.StatusNotFound, "Service record not found")
}

func (sc *ServiceController) UpdateService(c *gin.Context) {
	id := c.Param("id")
	var input UpdateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var existing *models.Service
	for _, s := range sc.Store.Raw().Services {
		if s.ID == id {
			ss := s
			existing = &ss
			break
		}
	}
	if existing == nil {
		utils.RespondWithError(c, http.StatusNotFound, "Service record not found")
		return
	}

	patch := map[string]any{}
	if input.ServiceDate != nil {
		if _, ok := utils.ParseISODate(*input.ServiceDate); !ok {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid service date")
			return
		}
		patch["service_date"] = *input.ServiceDate
		patch["next_service_date"] = utils.NextServiceDate(*input.ServiceDate, sc.serviceCycleDays(existing.ProductID))
	}
	if input.ServiceType != nil {
		patch["service_type"] = *input.ServiceType
	}
	if input.ServiceStatus != nil {
		patch["service_status"] = *input.ServiceStatus
	}
	if input.ServiceNotes != nil {
		patch["service_notes"] = *input.ServiceNotes
	}
	if len(patch) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "No fields to update")
		return
	}

	result, err := sc.Store.UpdateItem(c.Request.Context(), models.CollectionServices, id, patch)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update service record: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (sc *ServiceController) DeleteService(c *gin.Context) {
	id := c.Param("id")
	result, err := sc.Store.DeleteItem(c.Request.Context(), models.CollectionServices, id)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete service record: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}
