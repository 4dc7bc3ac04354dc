package handlers

import (
	"database/sql"
	"os"

	"github.com/nhbao/truongtin-backend/internal/payos"
)

// Handlers holds all dependencies for the request handlers. The payment
// client is an interface so tests can swap in a fake gateway.
type Handlers struct {
	DB       *sql.DB
	Payments payos.Client
}

// frontendURL is where the checkout page sends customers back to.
func frontendURL() string {
	if url := os.Getenv("FRONTEND_URL"); url != "" {
		return url
	}
	return "http://localhost:3000"
}
