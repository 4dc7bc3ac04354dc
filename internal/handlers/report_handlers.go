package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nhbao/truongtin-backend/internal/models"
)

// lowStockThreshold flags variants that are about to run out.
const lowStockThreshold = 10

// reportRange translates a named range into [start, end] bounds.
// Weeks start on Monday, matching the shop's bookkeeping.
func reportRange(name string, now time.Time) (time.Time, time.Time) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24*time.Hour - time.Nanosecond)

	switch name {
	case "today":
		return startOfDay, endOfDay
	case "thisWeek":
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return startOfDay.AddDate(0, 0, -(weekday - 1)), endOfDay
	case "lastMonth":
		start := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
		end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Add(-time.Nanosecond)
		return start, end
	case "thisYear":
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		end := time.Date(now.Year()+1, 1, 1, 0, 0, 0, 0, now.Location()).Add(-time.Nanosecond)
		return start, end
	default: // thisMonth
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location()).Add(-time.Nanosecond)
		return start, end
	}
}

// GetDashboardStats is the handler for GET /api/reports/dashboard
// (admin only). Cancelled orders are excluded everywhere; "pending"
// means the order has not yet been approved or paid.
func (h *Handlers) GetDashboardStats(c *gin.Context) {
	start, end := reportRange(c.DefaultQuery("range", "thisMonth"), time.Now())

	// 1. One pass over the orders in range builds the summary and the
	// per-day revenue chart.
	rows, err := h.DB.Query(`
		SELECT total, status, created_at
		FROM orders
		WHERE created_at BETWEEN ? AND ? AND status <> ?
		ORDER BY created_at ASC`, start, end, models.StatusCancelled)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi hệ thống khi tải báo cáo"})
		return
	}
	defer rows.Close()

	var (
		totalRevenue, approvedRevenue, pendingRevenue    float64
		totalOrders, approvedOrders, pendingOrdersCount  int
		chartLabels                                      []string
		chartData                                        []float64
		chartIndex                                       = map[string]int{}
	)
	for rows.Next() {
		var (
			total     float64
			status    string
			createdAt time.Time
		)
		if err := rows.Scan(&total, &status, &createdAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi hệ thống khi tải báo cáo"})
			return
		}

		totalOrders++
		totalRevenue += total
		if status == models.StatusPendingCOD || status == models.StatusPendingPayOS {
			pendingRevenue += total
			pendingOrdersCount++
		} else {
			approvedRevenue += total
			approvedOrders++
		}

		day := createdAt.Format("02/01")
		if i, ok := chartIndex[day]; ok {
			chartData[i] += total
		} else {
			chartIndex[day] = len(chartLabels)
			chartLabels = append(chartLabels, day)
			chartData = append(chartData, total)
		}
	}
	rows.Close()
	if chartLabels == nil {
		chartLabels = []string{}
		chartData = []float64{}
	}

	// 2. Top 5 products by quantity sold in range
	topRows, err := h.DB.Query(`
		SELECT oi.product_name, SUM(oi.quantity) AS sold
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		WHERE o.created_at BETWEEN ? AND ? AND o.status <> ?
		GROUP BY oi.product_name
		ORDER BY sold DESC
		LIMIT 5`, start, end, models.StatusCancelled)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi hệ thống khi tải báo cáo"})
		return
	}
	defer topRows.Close()

	topLabels := []string{}
	topData := []int{}
	for topRows.Next() {
		var name string
		var sold int
		if err := topRows.Scan(&name, &sold); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi hệ thống khi tải báo cáo"})
			return
		}
		topLabels = append(topLabels, name)
		topData = append(topData, sold)
	}
	topRows.Close()

	// 3. Variants about to run out
	lowRows, err := h.DB.Query(`
		SELECT p.name, v.name, c.name, v.stock
		FROM product_variants v
		JOIN products p ON v.product_id = p.id
		JOIN categories c ON p.category_id = c.id
		WHERE v.stock <= ?
		ORDER BY v.stock ASC
		LIMIT 10`, lowStockThreshold)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi hệ thống khi tải báo cáo"})
		return
	}
	defer lowRows.Close()

	type lowStockEntry struct {
		Name     string `json:"name"`
		Category string `json:"category"`
		Stock    int    `json:"stock"`
	}
	lowStock := []lowStockEntry{}
	for lowRows.Next() {
		var productName, variantName, categoryName string
		var stock int
		if err := lowRows.Scan(&productName, &variantName, &categoryName, &stock); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi hệ thống khi tải báo cáo"})
			return
		}
		name := productName
		if variantName != "Mặc định" {
			name += " (" + variantName + ")"
		}
		lowStock = append(lowStock, lowStockEntry{Name: name, Category: categoryName, Stock: stock})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"summary": gin.H{
				"totalRevenue":        totalRevenue,
				"approvedRevenue":     approvedRevenue,
				"pendingRevenue":      pendingRevenue,
				"totalOrdersCount":    totalOrders,
				"approvedOrdersCount": approvedOrders,
				"pendingOrdersCount":  pendingOrdersCount,
			},
			"revenueChart": gin.H{"labels": chartLabels, "data": chartData},
			"topProducts":  gin.H{"labels": topLabels, "data": topData},
			"lowStock":     lowStock,
		},
	})
}
