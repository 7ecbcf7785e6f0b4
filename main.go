package main

import (
	"fmt"
	"log"
	"os"

	"beautybiz-backend/config"
	"beautybiz-backend/models"
	"beautybiz-backend/routes"
	"beautybiz-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.Customer{},
		&models.Service{},
		&models.Bill{},
		&models.BillItem{},
		&models.Payment{},
		&models.PaymentAllocation{},
		&models.SplitRule{},
		&models.NotificationLog{},
	)
}

func main() {
	services.NewNotifyService(config.DB).StartScheduler()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
