package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/nhbao/truongtin-backend/internal/database"
	"github.com/nhbao/truongtin-backend/internal/handlers"
	"github.com/nhbao/truongtin-backend/internal/payos"
	"github.com/nhbao/truongtin-backend/internal/routes"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// 1. --- Database Connection ---
	db, err := database.OpenDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 2. --- Payment Gateway Client ---
	// Constructed exactly once and injected; the order handlers never
	// build their own gateway client.
	payments, err := payos.NewClient(
		os.Getenv("PAYOS_CLIENT_ID"),
		os.Getenv("PAYOS_API_KEY"),
		os.Getenv("PAYOS_CHECKSUM_KEY"),
	)
	if err != nil {
		log.Fatalf("Failed to configure payment gateway: %v", err)
	}

	// 3. --- Application Setup ---
	app := &handlers.Handlers{
		DB:       db,
		Payments: payments,
	}

	router := routes.SetupRouter(app)

	// 4. --- Start Server ---
	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}
	log.Printf("Starting Trường Tín API server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
