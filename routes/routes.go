package routes

import (
	"os"
	"strings"

	"beautybiz-backend/config"
	"beautybiz-backend/controllers"
	"beautybiz-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		allowedOrigins = strings.Split(env, ",")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Customer routes
		customers := api.Group("/customers")
		{
			customers.POST("", controllers.CreateCustomer)
			customers.GET("", controllers.GetCustomers)
			customers.GET("/:id", controllers.GetCustomer)
			customers.PUT("/:id", controllers.UpdateCustomer)
			customers.DELETE("/:id", controllers.DeleteCustomer)
		}

		// Catalog service routes
		services := api.Group("/services")
		{
			services.POST("", controllers.CreateService)
			services.GET("", controllers.GetServices)
			services.GET("/:id", controllers.GetService)
			services.PUT("/:id", controllers.UpdateService)
			services.DELETE("/:id", controllers.DeleteService)
		}

		// Bill and payment ledger routes
		bills := api.Group("/bills")
		{
			bills.POST("", controllers.CreateBill)
			bills.GET("", controllers.GetBills)
			bills.GET("/:id", controllers.GetBill)
			bills.POST("/:id/void", controllers.VoidBill)
			bills.POST("/:id/reallocate", controllers.ReallocateBill)
			bills.POST("/:id/payments", controllers.RecordPayment)
			bills.GET("/:id/payments", controllers.GetPayments)
		}

		// Split rule routes
		splitRules := api.Group("/split-rules")
		{
			splitRules.POST("", controllers.CreateSplitRule)
			splitRules.GET("", controllers.GetSplitRules)
			splitRules.DELETE("/:id", controllers.DeleteSplitRule)
		}

		// Earnings routes
		earningsController := controllers.EarningsController{}
		api.GET("/earnings", earningsController.GetEarnings)

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardOverview)

		// Notification log routes
		api.GET("/notifications", controllers.GetNotificationLogs)

		// Branch profile routes
		profile := api.Group("/profile")
		{
			profile.GET("", controllers.GetProfile)
			profile.PUT("/update-branch", controllers.UpdateBranchProfile)
			profile.PUT("/update-hours", controllers.UpdateWorkingHours)
			profile.PUT("/update-notifications", controllers.UpdateNotifications)
		}

		// Staff routes
		staff := api.Group("/staff")
		{
			staff.GET("", controllers.GetStaff)
			staff.POST("", controllers.AddStaff)
			staff.PUT("/:id", controllers.UpdateStaff)
			staff.DELETE("/:id", controllers.DeleteStaff)
		}
	}

	return r
}
