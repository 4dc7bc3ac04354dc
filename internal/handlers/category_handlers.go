package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/nhbao/truongtin-backend/internal/models"
)

// CategoryInput is the create request body. Slug is optional and derived
// from the name when absent.
type CategoryInput struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
}

// GetCategories is the handler for GET /api/categories.
// Each category carries its live product count for the admin table.
func (h *Handlers) GetCategories(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))
	if limit < 1 {
		limit = 12
	}
	offset := (page - 1) * limit

	var totalItems int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM categories").Scan(&totalItems); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}

	rows, err := h.DB.Query(`
		SELECT c.id, c.name, c.slug, c.created_at, c.updated_at, COUNT(p.id)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name ASC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.CreatedAt, &cat.UpdatedAt, &cat.ProductCount); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
			return
		}
		categories = append(categories, cat)
	}

	totalPages := (totalItems + limit - 1) / limit
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    categories,
		"pagination": gin.H{
			"currentPage": page,
			"totalPages":  totalPages,
			"totalItems":  totalItems,
			"limit":       limit,
		},
	})
}

// CreateCategory is the handler for POST /api/categories (admin only)
func (h *Handlers) CreateCategory(c *gin.Context) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Vui lòng nhập tên danh mục"})
		return
	}
	if input.Slug == "" {
		input.Slug = slug.Make(input.Name)
	}

	now := time.Now()
	res, err := h.DB.Exec(
		"INSERT INTO categories (name, slug, created_at, updated_at) VALUES (?, ?, ?, ?)",
		input.Name, input.Slug, now, now)
	if err != nil {
		// UNIQUE violation on slug is by far the common cause
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Lỗi server hoặc slug bị trùng"})
		return
	}

	id, _ := res.LastInsertId()
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Tạo danh mục thành công",
		"data":    models.Category{ID: id, Name: input.Name, Slug: input.Slug, CreatedAt: now, UpdatedAt: now},
	})
}

// DeleteCategory is the handler for DELETE /api/categories/:id (admin only).
// A category still referenced by products cannot be deleted.
func (h *Handlers) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid category id"})
		return
	}

	var productCount int
	err = h.DB.QueryRow(`
		SELECT COUNT(p.id)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		WHERE c.id = ?
		GROUP BY c.id`, id).Scan(&productCount)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Không tìm thấy"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}

	if productCount > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": fmt.Sprintf("Không thể xóa danh mục đang có %d sản phẩm!", productCount),
		})
		return
	}

	if _, err := h.DB.Exec("DELETE FROM categories WHERE id = ?", id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Xóa thành công"})
}
