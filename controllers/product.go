package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cngcrm-backend/models"
	"cngcrm-backend/store"
	"cngcrm-backend/utils"
)

// ProductController serves the products view and the Product Master
// mutations.
type ProductController struct {
	Store *store.UnifiedStore
}

// CreateProductInput defines the expected JSON structure for creating a product
type CreateProductInput struct {
	Code                    string `json:"product_id" binding:"required"`
	ProductName             string `json:"product_name" binding:"required"`
	ProductType             string `json:"product_type" binding:"required"`
	Manufacturer            string `json:"manufacturer"`
	WarrantyPeriodMonths    int    `json:"warranty_period_months" binding:"required,min=1"`
	DefaultServiceCycleDays int    `json:"default_service_cycle_days" binding:"min=0"`
}

// UpdateProductInput defines the expected JSON structure for updating a product
type UpdateProductInput struct {
	Code                    *string `json:"product_id"`
	ProductName             *string `json:"product_name"`
	ProductType             *string `json:"product_type"`
	Manufacturer            *string `json:"manufacturer"`
	WarrantyPeriodMonths    *int    `json:"warranty_period_months"`
	DefaultServiceCycleDays *int    `json:"default_service_cycle_days"`
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	product := models.Product{
		Code:                    input.Code,
		ProductName:             input.ProductName,
		ProductType:             input.ProductType,
		Manufacturer:            input.Manufacturer,
		WarrantyPeriodMonths:    input.WarrantyPeriodMonths,
		DefaultServiceCycleDays: input.DefaultServiceCycleDays,
	}
	if product.DefaultServiceCycleDays == 0 {
		product.DefaultServiceCycleDays = 180
	}

	result, err := pc.Store.AddItem(c.Request.Context(), models.CollectionProducts, product)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create product: "+err.Error())
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (pc *ProductController) GetProducts(c *gin.Context) {
	c.JSON(http.StatusOK, pc.Store.Data().Products)
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	id := c.Param("id")
	for _, pv := range pc.Store.Data().Products {
		if pv.ID == id {
			c.JSON(http.StatusOK, pv)
			return
		}
	}
	utils.RespondWithError(c, http.StatusNotFound, "Product not found")
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id := c.Param("id")
	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	patch := map[string]any{}
	if input.Code != nil {
		patch["product_id"] = *input.Code
	}
	if input.ProductName != nil {
		patch["product_name"] = *input.ProductName
	}
	if input.ProductType != nil {
		patch["product_type"] = *input.ProductType
	}
	if input.Manufacturer != nil {
		patch["manufacturer"] = *input.Manufacturer
	}
	if input.WarrantyPeriodMonths != nil {
		if *input.WarrantyPeriodMonths < 1 {
			utils.RespondWithError(c, http.StatusBadRequest, "Warranty period must be at least 1 month")
			return
		}
		patch["warranty_period_months"] = *input.WarrantyPeriodMonths
	}
	if input.DefaultServiceCycleDays != nil {
		patch["default_service_cycle_days"] = *input.DefaultServiceCycleDays
	}
	if len(patch) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "No fields to update")
		return
	}

	result, err := pc.Store.UpdateItem(c.Request.Context(), models.CollectionProducts, id, patch)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update product: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	result, err := pc.Store.DeleteItem(c.Request.Context(), models.CollectionProducts, id)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete product: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}
