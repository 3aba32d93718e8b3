package routes

import (
	"visa-management-api/controllers"
	"visa-management-api/middleware"
	"visa-management-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)
			public.POST("/forgot-password", controllers.ForgotPassword)
			public.POST("/reset-password", controllers.ResetPassword)

			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Visa Management API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Reference data (all authenticated users)
			protected.GET("/countries", controllers.GetCountries)
			protected.GET("/visa-types", controllers.GetVisaTypes)

			// Visa applications
			applications := protected.Group("/applications")
			{
				applications.GET("", controllers.GetApplications)
				applications.GET("/:id", controllers.GetApplication)

				// Customers create, edit and submit their own applications
				applications.POST("", middleware.RequireRole(models.RoleCustomer), controllers.CreateApplication)
				applications.PUT("/:id", middleware.RequireRole(models.RoleCustomer), controllers.UpdateApplication)
				applications.POST("/:id/submit", middleware.RequireRole(models.RoleCustomer), controllers.SubmitApplication)

				// Employees review
				applications.POST("/:id/decision",
					middleware.RequireRole(models.RoleEmployee, models.RoleAdmin),
					controllers.ReviewDecision)

				// Payment flow (the applicant pays)
				applications.POST("/:id/payment", middleware.RequireRole(models.RoleCustomer), controllers.InitiatePayment)
			}

			payments := protected.Group("/payments")
			{
				payments.POST("/:reference/confirm", controllers.ConfirmPayment)
				payments.POST("/:reference/cancel", controllers.CancelPayment)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
			}

			// Dashboard (employees)
			dashboard := protected.Group("/dashboard")
			dashboard.Use(middleware.RequireRole(models.RoleEmployee, models.RoleAdmin))
			{
				dashboard.GET("/stats", controllers.GetDashboardStats)
			}
		}
	}

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Route not found"})
	})
}
