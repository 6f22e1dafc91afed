package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cngcrm-backend/models"
	"cngcrm-backend/store"
	"cngcrm-backend/utils"
)

// CustomerController serves the customers view and the Customer Management
// mutations.
type CustomerController struct {
	Store *store.UnifiedStore
}

// CreateCustomerInput defines the expected JSON structure for creating a customer
type CreateCustomerInput struct {
	FirstName      string `json:"first_name" binding:"required"`
	LastName       string `json:"last_name" binding:"required"`
	MobileNumber   string `json:"mobile_number" binding:"required"`
	WhatsappNumber string `json:"whatsapp_number"`
	Address        string `json:"address"`
	City           string `json:"city"`
	State          string `json:"state"`
	VehicleNumber  string `json:"vehicle_number" binding:"required"`
	VehicleModel   string `json:"vehicle_model"`
}

// UpdateCustomerInput defines the expected JSON structure for updating a customer
type UpdateCustomerInput struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	MobileNumber   *string `json:"mobile_number"`
	WhatsappNumber *string `json:"whatsapp_number"`
	Address        *string `json:"address"`
	City           *string `json:"city"`
	State          *string `json:"state"`
	VehicleNumber  *string `json:"vehicle_number"`
	VehicleModel   *string `json:"vehicle_model"`
}

func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var input CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !utils.ValidatePhone(input.MobileNumber) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid mobile number format")
		return
	}
	if !utils.ValidateVehicleNumber(input.VehicleNumber) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid vehicle number format")
		return
	}

	customer := models.Customer{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		MobileNumber:   input.MobileNumber,
		WhatsappNumber: input.WhatsappNumber,
		Address:        input.Address,
		City:           input.City,
		State:          input.State,
		VehicleNumber:  input.VehicleNumber,
		VehicleModel:   input.VehicleModel,
	}

	result, err := cc.Store.AddItem(c.Request.Context(), models.CollectionCustomers, customer)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create customer: "+err.Error())
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetCustomers returns the customers view: every customer with attached
// warranties, services and activity.
func (cc *CustomerController) GetCustomers(c *gin.Context) {
	c.JSON(http.StatusOK, cc.Store.Data().Customers)
}

func (cc *CustomerController) GetCustomer(c *gin.Context) {
	id := c.Param("id")
	for _, cv := range cc.Store.Data().Customers {
		if cv.ID == id {
			c.JSON(http.StatusOK, cv)
			return
		}
	}
	utils.RespondWithError(c, http.StatusNotFound, "Customer not found")
}

func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	id := c.Param("id")
	var input UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	patch := map[string]any{}
	if input.FirstName != nil {
		patch["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		patch["last_name"] = *input.LastName
	}
	if input.MobileNumber != nil {
		if !utils.ValidatePhone(*input.MobileNumber) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid mobile number format")
			return
		}
		patch["mobile_number"] = *input.MobileNumber
	}
	if input.WhatsappNumber != nil {
		patch["whatsapp_number"] = *input.WhatsappNumber
	}
	if input.Address != nil {
		patch["address"] = *input.Address
	}
	if input.City != nil {
		patch["city"] = *input.City
	}
	if input.State != nil {
		patch["state"] = *input.State
	}
	if input.VehicleNumber != nil {
		if !utils.ValidateVehicleNumber(*input.VehicleNumber) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid vehicle number format")
			return
		}
		patch["vehicle_number"] = *input.VehicleNumber
	}
	if input.VehicleModel != nil {
		patch["vehicle_model"] = *input.VehicleModel
	}
	if len(patch) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "No fields to update")
		return
	}

	result, err := cc.Store.UpdateItem(c.Request.Context(), models.CollectionCustomers, id, patch)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update customer: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteCustomer removes a customer. Dependent mappings, services and logs
// are kept; the views mask the dangling references with placeholders.
func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	id := c.Param("id")
	result, err := cc.Store.DeleteItem(c.Request.Context(), models.CollectionCustomers, id)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete customer: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}
