package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nhbao/truongtin-backend/internal/models"
)

// ReviewInput is the create request body.
type ReviewInput struct {
	ProductID int64  `json:"productId" binding:"required"`
	Rating    int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment   string `json:"comment"`
}

// GetProductReviews is the handler for GET /api/reviews/:productId
// (public, newest first).
func (h *Handlers) GetProductReviews(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product id"})
		return
	}

	rows, err := h.DB.Query(`
		SELECT r.id, r.product_id, r.user_id, r.rating, r.comment, r.created_at, u.name
		FROM reviews r
		JOIN users u ON r.user_id = u.id
		WHERE r.product_id = ?
		ORDER BY r.created_at DESC`, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.ProductID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UserName); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
			return
		}
		reviews = append(reviews, r)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": reviews})
}

// CreateReview is the handler for POST /api/reviews (login required).
func (h *Handlers) CreateReview(c *gin.Context) {
	userIDRaw, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Vui lòng đăng nhập để đánh giá"})
		return
	}
	userID := userIDRaw.(int64)

	var input ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Thiếu thông tin đánh giá"})
		return
	}

	now := time.Now()
	res, err := h.DB.Exec(
		"INSERT INTO reviews (product_id, user_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?)",
		input.ProductID, userID, input.Rating, input.Comment, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server khi gửi đánh giá"})
		return
	}

	id, _ := res.LastInsertId()
	review := models.Review{
		ID:        id,
		ProductID: input.ProductID,
		UserID:    userID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: now,
	}
	// Attach the reviewer name so the UI can render without a refetch
	_ = h.DB.QueryRow("SELECT name FROM users WHERE id = ?", userID).Scan(&review.UserName)

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": review})
}
