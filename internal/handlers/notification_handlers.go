package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nhbao/truongtin-backend/internal/models"
)

// GetAdminNotifications is the handler for GET /api/notifications
// (admin only). The bell merges unprocessed orders and unread contact
// messages, newest first, capped at 10 of each.
func (h *Handlers) GetAdminNotifications(c *gin.Context) {
	notifications := []models.Notification{}

	// 1. Orders still waiting on an admin action
	orderRows, err := h.DB.Query(`
		SELECT id, order_code, customer_name, phone, total, created_at
		FROM orders
		WHERE status IN (?, ?, ?)
		ORDER BY created_at DESC
		LIMIT 10`,
		models.StatusPendingCOD, models.StatusPendingPayOS, models.StatusPaidPendingConfirm)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi lấy thông báo."})
		return
	}
	defer orderRows.Close()

	for orderRows.Next() {
		var o models.Order
		if err := orderRows.Scan(&o.ID, &o.OrderCode, &o.CustomerName, &o.Phone, &o.Total, &o.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi lấy thông báo."})
			return
		}
		notifications = append(notifications, models.Notification{
			ID:      fmt.Sprintf("order_%d", o.ID),
			Type:    models.NotificationOrder,
			Title:   "Đơn hàng mới!",
			Message: fmt.Sprintf("Khách hàng %s vừa đặt đơn #%d.", o.CustomerName, o.OrderCode),
			Time:    o.CreatedAt,
			Details: map[string]any{
				"name":      o.CustomerName,
				"phone":     o.Phone,
				"orderCode": strconv.FormatInt(o.OrderCode, 10),
				"total":     o.Total,
			},
		})
	}
	orderRows.Close()

	// 2. Contact messages nobody has read yet
	contactRows, err := h.DB.Query(`
		SELECT id, name, phone, message, created_at
		FROM contacts
		WHERE status = ?
		ORDER BY created_at DESC
		LIMIT 10`, models.ContactPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi lấy thông báo."})
		return
	}
	defer contactRows.Close()

	for contactRows.Next() {
		var ct models.Contact
		if err := contactRows.Scan(&ct.ID, &ct.Name, &ct.Phone, &ct.Message, &ct.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi lấy thông báo."})
			return
		}
		notifications = append(notifications, models.Notification{
			ID:      fmt.Sprintf("contact_%d", ct.ID),
			Type:    models.NotificationContact,
			Title:   "Tin nhắn liên hệ",
			Message: fmt.Sprintf("Có lời nhắn mới từ %s.", ct.Name),
			Time:    ct.CreatedAt,
			Details: map[string]any{
				"name":    ct.Name,
				"phone":   ct.Phone,
				"content": ct.Message,
			},
		})
	}

	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].Time.After(notifications[j].Time)
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "data": notifications})
}
