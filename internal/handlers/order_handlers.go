package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nhbao/truongtin-backend/internal/models"
	"github.com/nhbao/truongtin-backend/internal/payos"
)

// orderDebounceWindow is the spam guard: the same phone number may not
// create two orders inside this window. Best effort only: two requests
// racing inside the window can both pass, which is accepted.
const orderDebounceWindow = 15 * time.Second

// OrderItemInput is one cart line submitted at checkout.
type OrderItemInput struct {
	VariantID int64 `json:"variantId" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,gte=1"`
}

// CreateOrderInput is the checkout request body.
type CreateOrderInput struct {
	FullName      string           `json:"fullName" binding:"required"`
	Phone         string           `json:"phone" binding:"required"`
	Address       string           `json:"address" binding:"required"`
	PaymentMethod string           `json:"paymentMethod" binding:"required,oneof=COD PAYOS"`
	Items         []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// newOrderCode builds the gateway-facing order code: the last 9 digits of
// the current unix-millisecond clock followed by 3 random digits. The
// result stays below 10^12, well inside the float64-safe integer range
// that PayOS and JSON clients require.
func newOrderCode() int64 {
	return (time.Now().UnixMilli()%1_000_000_000)*1000 + rand.Int63n(1000)
}

// currentUserID reads the optional authenticated identity set by the
// middleware; guests come back as nil.
func currentUserID(c *gin.Context) *int64 {
	if raw, exists := c.Get("userID"); exists {
		id := raw.(int64)
		return &id
	}
	return nil
}

// CreateOrder is the handler for POST /api/orders.
//
// Stock is NOT touched here: the cart is only validated optimistically
// against live inventory, and the decrement happens later inside the
// admin-approval transaction. For PAYOS orders the checkout link is
// requested BEFORE anything is persisted, so a gateway failure never
// leaves an orphaned order behind.
func (h *Handlers) CreateOrder(c *gin.Context) {
	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	phone := strings.TrimSpace(input.Phone)
	log.Printf("[Order] New checkout from %s (%s)", input.FullName, phone)

	// 1. --- Spam guard: same phone within the debounce window ---
	var recent int
	err := h.DB.QueryRow(
		"SELECT COUNT(*) FROM orders WHERE phone = ? AND created_at >= ?",
		phone, time.Now().Add(-orderDebounceWindow),
	).Scan(&recent)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to check recent orders"})
		return
	}
	if recent > 0 {
		log.Printf("[Order] Debounce rejected phone %s", phone)
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Thao tác quá nhanh, vui lòng đợi 15 giây rồi thử lại."})
		return
	}

	// 2. --- Validate every cart line against live inventory ---
	// Prices always come from the database, never from the client.
	var total float64
	itemsToSave := make([]models.OrderItem, 0, len(input.Items))
	payosItems := make([]payos.CheckoutItem, 0, len(input.Items))

	for _, line := range input.Items {
		var (
			variantID   int64
			price       float64
			stock       int
			productName string
		)
		err := h.DB.QueryRow(`
			SELECT v.id, v.price, v.stock, p.name
			FROM product_variants v
			JOIN products p ON v.product_id = p.id
			WHERE v.id = ?`, line.VariantID,
		).Scan(&variantID, &price, &stock, &productName)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": fmt.Sprintf("Sản phẩm (ID: %d) không tồn tại trong hệ thống.", line.VariantID)})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load product variant"})
			return
		}

		if stock < line.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": fmt.Sprintf("Sản phẩm \"%s\" chỉ còn %d sản phẩm, không đủ cho đơn hàng của bạn.", productName, stock)})
			return
		}

		total += price * float64(line.Quantity)
		vid := variantID
		itemsToSave = append(itemsToSave, models.OrderItem{
			VariantID:   &vid,
			ProductName: productName,
			Quantity:    line.Quantity,
			Price:       price,
		})

		name := productName
		if len(name) > 200 {
			name = name[:200]
		}
		payosItems = append(payosItems, payos.CheckoutItem{
			Name:     name,
			Quantity: line.Quantity,
			Price:    int64(math.Round(price)),
		})
	}

	orderCode := newOrderCode()

	// 3. --- PAYOS: obtain the checkout link before writing anything ---
	var link *payos.CheckoutLink
	if input.PaymentMethod == models.PaymentMethodPayOS {
		var err error
		link, err = h.Payments.CreatePaymentLink(c, payos.CheckoutRequest{
			OrderCode:   orderCode,
			Amount:      int64(math.Round(total)),
			Description: fmt.Sprintf("TT Don Hang #%d", orderCode),
			ReturnURL:   frontendURL() + "/order/success",
			CancelURL:   frontendURL() + "/cart",
			Items:       payosItems,
		})
		if err != nil {
			log.Printf("[PayOS] Create payment link failed: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Không thể kết nối cổng thanh toán, vui lòng thử lại sau."})
			return
		}
		log.Printf("[PayOS] Checkout link created for order #%d", orderCode)
	}

	status := models.StatusPendingCOD
	if input.PaymentMethod == models.PaymentMethodPayOS {
		status = models.StatusPendingPayOS
	}

	// 4. --- Persist order + items in a single transaction ---
	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback() // safety net

	res, err := tx.Exec(`
		INSERT INTO orders (order_code, user_id, customer_name, phone, address, total, payment_method, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		orderCode, currentUserID(c), input.FullName, phone, input.Address, total, input.PaymentMethod, status, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create order"})
		return
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to get new order ID"})
		return
	}

	for _, item := range itemsToSave {
		_, err := tx.Exec(`
			INSERT INTO order_items (order_id, variant_id, product_name, quantity, price)
			VALUES (?, ?, ?, ?, ?)`,
			orderID, item.VariantID, item.ProductName, item.Quantity, item.Price)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save order item"})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to commit order"})
		return
	}
	log.Printf("[Order] Order #%d saved (status %s, total %.0f)", orderCode, status, total)

	// 5. --- Respond ---
	if link != nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "checkoutUrl": link.CheckoutURL})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Đặt hàng thành công. Trường Tín sẽ gọi điện xác nhận sớm nhất.",
		"orderCode": strconv.FormatInt(orderCode, 10),
	})
}

// ApproveOrder is the handler for PATCH /api/orders/approve/:orderId
// (admin only).
//
// This is the single place stock is ever decremented, and the whole
// re-check + decrement + status flip runs inside one transaction with the
// order and variant rows locked. Concurrent approvals of the same order
// serialize on the order row, so the decrement happens exactly once.
func (h *Handlers) ApproveOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid order id"})
		return
	}

	tx, err := h.DB.BeginTx(c, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	// 1. Lock the order row and check it is still actionable
	var status string
	err = tx.QueryRow("SELECT status FROM orders WHERE id = ? FOR UPDATE", orderID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Không tìm thấy đơn hàng!"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load order"})
		return
	}
	if status == models.StatusPaidAndConfirmed || status == models.StatusCancelled {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Đơn hàng này đã được xử lý xong hoặc đã bị hủy."})
		return
	}

	// 2. Collect the items (finish this result set before locking variants)
	type approveItem struct {
		VariantID   *int64
		ProductName string
		Quantity    int
	}
	rows, err := tx.Query("SELECT variant_id, product_name, quantity FROM order_items WHERE order_id = ?", orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load order items"})
		return
	}
	var items []approveItem
	for rows.Next() {
		var it approveItem
		if err := rows.Scan(&it.VariantID, &it.ProductName, &it.Quantity); err != nil {
			rows.Close()
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to scan order item"})
			return
		}
		items = append(items, it)
	}
	rows.Close()

	// 3. Authoritative stock re-check with the variant rows locked.
	// Items whose variant has since been deleted are skipped, matching the
	// snapshot semantics of order_items.
	for _, it := range items {
		if it.VariantID == nil {
			continue
		}
		var stock int
		err := tx.QueryRow("SELECT stock FROM product_variants WHERE id = ? FOR UPDATE", *it.VariantID).Scan(&stock)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to check stock"})
			return
		}
		if stock < it.Quantity {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": fmt.Sprintf("Sản phẩm \"%s\" không đủ tồn kho để duyệt!", it.ProductName)})
			return
		}
	}

	// 4. Decrement all items, then flip the status (same transaction)
	for _, it := range items {
		if it.VariantID == nil {
			continue
		}
		if _, err := tx.Exec("UPDATE product_variants SET stock = stock - ? WHERE id = ?", it.Quantity, *it.VariantID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update stock"})
			return
		}
	}

	if _, err := tx.Exec("UPDATE orders SET status = ? WHERE id = ?", models.StatusPaidAndConfirmed, orderID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update order status"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to commit approval"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Duyệt đơn hàng và cập nhật kho thành công!"})
}

// CancelOrder is the handler for PATCH /api/orders/cancel/:orderId
// (admin only). Cancellation never touches stock in either direction,
// and a fully confirmed order cannot be cancelled here.
func (h *Handlers) CancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid order id"})
		return
	}

	var status string
	err = h.DB.QueryRow("SELECT status FROM orders WHERE id = ?", orderID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Không tìm thấy đơn hàng để hủy."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load order"})
		return
	}

	if status == models.StatusPaidAndConfirmed {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Đơn hàng đã hoàn tất giao nhận, không thể hủy tự động."})
		return
	}

	if _, err := h.DB.Exec("UPDATE orders SET status = ? WHERE id = ?", models.StatusCancelled, orderID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to cancel order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Đơn hàng đã được chuyển sang trạng thái Hủy."})
}

// PayOSWebhook is the handler for POST /api/orders/webhook.
//
// The payload must verify against the checksum key before anything is
// trusted. After verification the handler always acknowledges with 200:
// the gateway retries on non-2xx, so "order not found" or "already
// settled" must not look like delivery failures. Redelivery of the same
// callback is a no-op because only PENDING_PAYOS orders transition.
func (h *Handlers) PayOSWebhook(c *gin.Context) {
	var payload payos.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	data, err := h.Payments.VerifyWebhook(payload)
	if err != nil {
		log.Printf("[Webhook] Verification failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	// Paid/failed is decided from the verified data only. The outer
	// envelope is not covered by the signature and cannot be trusted.
	if data.Paid() {
		var orderID int64
		var status string
		err := h.DB.QueryRow("SELECT id, status FROM orders WHERE order_code = ?", data.OrderCode).Scan(&orderID, &status)
		switch {
		case err == sql.ErrNoRows:
			log.Printf("[Webhook] No order found for code #%d", data.OrderCode)
		case err != nil:
			log.Printf("[Webhook] Lookup failed for code #%d: %v", data.OrderCode, err)
		case status == models.StatusPendingPayOS:
			if _, err := h.DB.Exec("UPDATE orders SET status = ? WHERE id = ?", models.StatusPaidPendingConfirm, orderID); err != nil {
				log.Printf("[Webhook] Status update failed for order #%d: %v", data.OrderCode, err)
			} else {
				log.Printf("[Webhook] Order #%d paid successfully", data.OrderCode)
			}
		default:
			// Already past PENDING_PAYOS: redelivery, nothing to do
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TrackOrderInput is the public lookup request. The order code arrives as
// a string because the frontend carries it that way to avoid precision
// loss.
type TrackOrderInput struct {
	OrderCode string `json:"orderCode" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
}

// TrackOrder is the handler for POST /api/orders/track (public).
// The phone number acts as a weak shared secret for guest orders.
func (h *Handlers) TrackOrder(c *gin.Context) {
	var input TrackOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Vui lòng nhập đủ Mã đơn hàng và Số điện thoại."})
		return
	}

	code, err := strconv.ParseInt(strings.TrimSpace(input.OrderCode), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Mã đơn hàng không hợp lệ."})
		return
	}

	var o models.Order
	err = h.DB.QueryRow(`
		SELECT id, order_code, user_id, customer_name, phone, address, total, payment_method, status, created_at
		FROM orders
		WHERE order_code = ? AND phone = ?`, code, strings.TrimSpace(input.Phone),
	).Scan(&o.ID, &o.OrderCode, &o.UserID, &o.CustomerName, &o.Phone, &o.Address, &o.Total, &o.PaymentMethod, &o.Status, &o.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Không tìm thấy đơn hàng với thông tin đã cung cấp."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi hệ thống tra cứu."})
		return
	}

	o.Items, err = h.loadOrderItems(o.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi hệ thống tra cứu."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": o})
}

// GetAllOrdersAdmin is the handler for GET /api/orders/admin/all.
func (h *Handlers) GetAllOrdersAdmin(c *gin.Context) {
	rows, err := h.DB.Query(`
		SELECT id, order_code, user_id, customer_name, phone, address, total, payment_method, status, created_at
		FROM orders
		ORDER BY created_at DESC`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể tải danh sách đơn hàng."})
		return
	}
	defer rows.Close()

	orders := []models.Order{}
	index := map[int64]int{}
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.OrderCode, &o.UserID, &o.CustomerName, &o.Phone, &o.Address, &o.Total, &o.PaymentMethod, &o.Status, &o.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể tải danh sách đơn hàng."})
			return
		}
		o.Items = []models.OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể tải danh sách đơn hàng."})
		return
	}
	rows.Close()

	// One pass over order_items instead of a query per order
	itemRows, err := h.DB.Query("SELECT id, order_id, variant_id, product_name, quantity, price FROM order_items")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể tải danh sách đơn hàng."})
		return
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it models.OrderItem
		if err := itemRows.Scan(&it.ID, &it.OrderID, &it.VariantID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể tải danh sách đơn hàng."})
			return
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	if err := itemRows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể tải danh sách đơn hàng."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": orders})
}

// loadOrderItems fetches the items of a single order.
func (h *Handlers) loadOrderItems(orderID int64) ([]models.OrderItem, error) {
	rows, err := h.DB.Query("SELECT id, order_id, variant_id, product_name, quantity, price FROM order_items WHERE order_id = ?", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.VariantID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
