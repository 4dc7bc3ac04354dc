package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nhbao/truongtin-backend/internal/auth"
	"github.com/nhbao/truongtin-backend/internal/models"
)

// RegisterInput is the signup request body. The phone number is the login
// identity.
type RegisterInput struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

// Register is the handler for POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	phone := strings.TrimSpace(input.Phone)

	// Uniqueness check on phone
	var exists int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM users WHERE phone = ?", phone).Scan(&exists); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}
	if exists > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Số điện thoại này đã được đăng ký!"})
		return
	}

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}

	_, err := h.DB.Exec(
		"INSERT INTO users (phone, password_hash, name, role, created_at) VALUES (?, ?, ?, ?, ?)",
		phone, password.Hash, input.Name, models.RoleUser, time.Now())
	if err != nil {
		log.Printf("[Auth] Register failed for %s: %v", phone, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Đăng ký thành công!"})
}

// LoginInput is the login request body.
type LoginInput struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /api/auth/login.
// A successful login issues a 7-day token embedding the user's ID and role.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var user models.User
	err := h.DB.QueryRow(
		"SELECT id, phone, password_hash, name, role, created_at FROM users WHERE phone = ?",
		strings.TrimSpace(input.Phone),
	).Scan(&user.ID, &user.Phone, &user.PasswordHash, &user.Name, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// Same message as a bad password so callers cannot probe for
			// registered numbers.
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Số điện thoại hoặc mật khẩu không đúng!"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}

	password := models.Password{Hash: user.PasswordHash}
	match, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}
	if !match {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Số điện thoại hoặc mật khẩu không đúng!"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}

	// PasswordHash carries json:"-" so the user object is safe to return
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Đăng nhập thành công!",
		"token":   token,
		"data":    user,
	})
}
