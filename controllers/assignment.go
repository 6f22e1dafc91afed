package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cngcrm-backend/models"
	"cngcrm-backend/store"
	"cngcrm-backend/utils"
)

// AssignmentController implements the Sales Assignment flow: register a
// new or existing customer together with a product warranty mapping.
type AssignmentController struct {
	Store *store.UnifiedStore
}

// CreateAssignmentInput carries either an existing customer_id or an
// inline new-customer block, plus the warranty setup.
type CreateAssignmentInput struct {
	CustomerID string               `json:"customer_id"`
	Customer   *CreateCustomerInput `json:"customer"`

	ProductID            string `json:"product_id" binding:"required"`
	PurchaseDate         string `json:"product_purchase_date" binding:"required"`
	FittingDate          string `json:"product_fitting_date"`
	WarrantyPeriodMonths int    `json:"product_warranty_period"`
	Notes                string `json:"notes"`
}

func (ac *AssignmentController) CreateAssignment(c *gin.Context) {
	var input CreateAssignmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if _, ok := utils.ParseISODate(input.PurchaseDate); !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid purchase date")
		return
	}

	var product *models.Product
	for _, p := range ac.Store.Raw().Products {
		if p.ID == input.ProductID {
			prod := p
			product = &prod
			break
		}
	}
	if product == nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Unknown product")
		return
	}
	// The warranty period defaults from the product but stays editable on
	// the mapping.
	warrantyMonths := input.WarrantyPeriodMonths
	if warrantyMonths <= 0 {
		warrantyMonths = product.WarrantyPeriodMonths
	}

	ctx := c.Request.Context()
	customerID := input.CustomerID
	customerOffline := false
	if customerID == "" {
		if input.Customer == nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Either customer_id or customer details are required")
			return
		}
		if !utils.ValidatePhone(input.Customer.MobileNumber) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid mobile number format")
			return
		}
		customer := models.Customer{
			FirstName:      input.Customer.FirstName,
			LastName:       input.Customer.LastName,
			MobileNumber:   input.Customer.MobileNumber,
			WhatsappNumber: input.Customer.WhatsappNumber,
			Address:        input.Customer.Address,
			City:           input.Customer.City,
			State:          input.Customer.State,
			VehicleNumber:  input.Customer.VehicleNumber,
			VehicleModel:   input.Customer.VehicleModel,
		}
		result, err := ac.Store.AddItem(ctx, models.CollectionCustomers, customer)
		if err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create customer: "+err.Error())
			return
		}
		customerID = result.ID
		customerOffline = result.Offline
	}

	mapping := models.Mapping{
		CustomerID:           customerID,
		ProductID:            input.ProductID,
		PurchaseDate:         input.PurchaseDate,
		FittingDate:          input.FittingDate,
		WarrantyPeriodMonths: warrantyMonths,
		Notes:                input.Notes,
	}
	result, err := ac.Store.AddItem(ctx, models.CollectionMappings, mapping)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create assignment: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":                   result.ID,
		"customer_id":          customerID,
		"offline":              result.Offline || customerOffline,
		"warranty_expiry_date": utils.ExpiryDate(input.PurchaseDate, warrantyMonths),
	})
}

// GetAssignments returns the assignments view: every mapping joined with
// its customer and product plus expiry annotations.
func (ac *AssignmentController) GetAssignments(c *gin.Context) {
	c.JSON(http.StatusOK, ac.Store.Data().Assignments)
}

func (ac *AssignmentController) GetAssignment(c *gin.Context) {
	id := c.Param("id")
	for _, av := range ac.Store.Data().Assignments {
		if av.ID == id {
			c.JSON(http.StatusOK, av)
			return
		}
	}
	utils.RespondWithError(c, http.StatusNotFound, "Assignment not found")
}

// RenewWarranty marks a mapping as renewed, permanently suppressing its
// reminders, and records the renewal in the activity log.
func (ac *AssignmentController) RenewWarranty(c *gin.Context) {
	id := c.Param("id")

	var mapping *models.Mapping
	for _, m := range ac.Store.Raw().Mappings {
		if m.ID == id {
			mm := m
			mapping = &mm
			break
		}
	}
	if mapping == nil {
		utils.RespondWithError(c, http.StatusNotFound, "Assignment not found")
		return
	}

	status := mapping.ReminderStatus
	status.WarrantyRenewed = true
	patch := map[string]any{"reminder_status": status}

	ctx := c.Request.Context()
	result, err := ac.Store.UpdateItem(ctx, models.CollectionMappings, id, patch)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to renew warranty: "+err.Error())
		return
	}

	entry := models.LogEntry{
		CustomerID: mapping.CustomerID,
		ProductID:  mapping.ProductID,
		Action:     "Warranty renewed",
		Date:       utils.TodayISO(),
		LogType:    models.LogTypeWarrantySales,
	}
	if _, err := ac.Store.AppendLog(ctx, entry); err != nil {
		// The renewal itself succeeded; surface only in the response body.
		c.JSON(http.StatusOK, gin.H{"id": result.ID, "offline": result.Offline, "log_error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
