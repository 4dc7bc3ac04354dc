package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nhbao/truongtin-backend/internal/models"
)

// ContactInput is the public contact-form body.
type ContactInput struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// SubmitContact is the handler for POST /api/contact (public)
func (h *Handlers) SubmitContact(c *gin.Context) {
	var input ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Vui lòng điền đầy đủ họ tên, số điện thoại và nội dung."})
		return
	}

	now := time.Now()
	res, err := h.DB.Exec(
		"INSERT INTO contacts (name, phone, message, status, created_at) VALUES (?, ?, ?, ?, ?)",
		strings.TrimSpace(input.Name), strings.TrimSpace(input.Phone), strings.TrimSpace(input.Message),
		models.ContactPending, now)
	if err != nil {
		log.Printf("[Contact] Insert failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi hệ thống, vui lòng thử lại sau."})
		return
	}

	id, _ := res.LastInsertId()
	log.Printf("[Contact] New message from %s (%s)", input.Name, input.Phone)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Gửi liên hệ thành công!",
		"data": models.Contact{
			ID: id, Name: input.Name, Phone: input.Phone,
			Message: input.Message, Status: models.ContactPending, CreatedAt: now,
		},
	})
}

// GetAllContacts is the handler for GET /api/contact (admin only)
func (h *Handlers) GetAllContacts(c *gin.Context) {
	rows, err := h.DB.Query("SELECT id, name, phone, message, status, created_at FROM contacts ORDER BY created_at DESC")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không tải được danh sách liên hệ."})
		return
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		var ct models.Contact
		if err := rows.Scan(&ct.ID, &ct.Name, &ct.Phone, &ct.Message, &ct.Status, &ct.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không tải được danh sách liên hệ."})
			return
		}
		contacts = append(contacts, ct)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": contacts})
}

// ResolveContact is the handler for PATCH /api/contact/:id (admin only).
// It marks a message as handled.
func (h *Handlers) ResolveContact(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid contact id"})
		return
	}

	res, err := h.DB.Exec("UPDATE contacts SET status = ? WHERE id = ?", models.ContactResolved, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Không tìm thấy"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Đã xử lý liên hệ"})
}
