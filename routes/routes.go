package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"cngcrm-backend/config"
	"cngcrm-backend/controllers"
	"cngcrm-backend/services"
	"cngcrm-backend/store"
)

func SetupRouter(st *store.UnifiedStore, reminders *services.ReminderService, settings config.Settings, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     settings.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Use(config.RequestLogger(logger))

	customerController := &controllers.CustomerController{Store: st}
	productController := &controllers.ProductController{Store: st}
	assignmentController := &controllers.AssignmentController{Store: st}
	serviceController := &controllers.ServiceController{Store: st}
	reminderController := &controllers.ReminderController{Store: st, Reminders: reminders}
	dashboardController := &controllers.DashboardController{Store: st}
	reportController := &controllers.ReportController{Store: st}

	api := r.Group("/api")
	{
		// Customer routes
		customers := api.Group("/customers")
		{
			customers.POST("", customerController.CreateCustomer)
			customers.GET("", customerController.GetCustomers)
			customers.GET("/:id", customerController.GetCustomer)
			customers.PUT("/:id", customerController.UpdateCustomer)
			customers.DELETE("/:id", customerController.DeleteCustomer)
		}

		// Product routes
		products := api.Group("/products")
		{
			products.POST("", productController.CreateProduct)
			products.GET("", productController.GetProducts)
			products.GET("/:id", productController.GetProduct)
			products.PUT("/:id", productController.UpdateProduct)
			products.DELETE("/:id", productController.DeleteProduct)
		}

		// Assignment (warranty mapping) routes
		assignments := api.Group("/assignments")
		{
			assignments.POST("", assignmentController.CreateAssignment)
			assignments.GET("", assignmentController.GetAssignments)
			assignments.GET("/:id", assignmentController.GetAssignment)
			assignments.POST("/:id/renew", assignmentController.RenewWarranty)
		}

		// Service routes
		svc := api.Group("/services")
		{
			svc.POST("", serviceController.CreateService)
			svc.GET("", serviceController.GetServices)
			svc.GET("/:id", serviceController.GetService)
			svc.PUT("/:id", serviceController.UpdateService)
			svc.DELETE("/:id", serviceController.DeleteService)
		}

		// Reminder routes
		rem := api.Group("/reminders")
		{
			rem.GET("", reminderController.GetReminders)
			rem.POST("/dispatch", reminderController.DispatchReminders)
			rem.POST("/:id/renewal-offer", reminderController.SendRenewalOffer)
		}

		// Reports routes
		api.GET("/reports", reportController.ExportReport)

		// Dashboard routes
		api.GET("/dashboard", dashboardController.GetDashboardOverview)
		api.GET("/activity", dashboardController.GetActivityLogs)
		api.GET("/meta", dashboardController.GetMeta)
		api.POST("/connectivity", dashboardController.SetConnectivity)
	}

	return r
}
