package routes

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/nhbao/truongtin-backend/internal/handlers"
	"github.com/nhbao/truongtin-backend/internal/middleware"
)

// CORSMiddleware allows the storefront origin to talk to the API.
func CORSMiddleware() gin.HandlerFunc {
	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:3000"
	}

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", frontend)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()
	router.Use(CORSMiddleware())

	api := router.Group("/api")
	{
		// --- Health check ---
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "Backend Trường Tín đang chạy!"})
		})

		// --- Auth (public) ---
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		// --- Catalog (public reads) ---
		api.GET("/categories", h.GetCategories)
		api.GET("/search/suggest", h.SuggestProducts)
		api.GET("/products", h.GetProducts)
		api.GET("/products/:slug", h.GetProductBySlug)

		// --- Reviews (public read, login required to post) ---
		api.GET("/reviews/:productId", h.GetProductReviews)
		api.POST("/reviews", middleware.RequireAuth(), h.CreateReview)

		// --- Contact form (public submit) ---
		api.POST("/contact", h.SubmitContact)

		// --- Orders ---
		orders := api.Group("/orders")
		{
			// Guest checkout is allowed: OptionalAuth only attaches the
			// user when a valid token comes along.
			orders.POST("", middleware.OptionalAuth(), h.CreateOrder)
			orders.POST("/track", h.TrackOrder)
			// Protected by signature verification, not by auth
			orders.POST("/webhook", h.PayOSWebhook)
		}

		// --- Admin only ---
		admin := api.Group("/")
		admin.Use(middleware.RequireAuth(), middleware.RequireAdmin())
		{
			admin.POST("/categories", h.CreateCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)

			admin.POST("/products", h.CreateProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)

			// Bulk Excel import lives under /import to keep the static
			// segments out of the /products/:slug wildcard tree.
			admin.GET("/import/products/template", h.DownloadProductTemplate)
			admin.POST("/import/products", h.ImportProducts)

			admin.GET("/orders/admin/all", h.GetAllOrdersAdmin)
			admin.GET("/orders/export", h.ExportOrders)
			admin.PATCH("/orders/approve/:orderId", h.ApproveOrder)
			admin.PATCH("/orders/cancel/:orderId", h.CancelOrder)

			admin.GET("/contact", h.GetAllContacts)
			admin.PATCH("/contact/:id", h.ResolveContact)

			admin.GET("/notifications", h.GetAdminNotifications)
			admin.GET("/reports/dashboard", h.GetDashboardStats)
		}
	}

	return router
}
