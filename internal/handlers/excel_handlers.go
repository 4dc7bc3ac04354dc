package handlers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/nhbao/truongtin-backend/internal/models"
	"github.com/xuri/excelize/v2"
)

// productImportHeader is the column layout of the bulk-import sheet.
var productImportHeader = []any{
	"Tên sản phẩm", "Danh mục (slug)", "Đơn vị", "Mô tả", "SKU", "Giá", "Tồn kho",
}

// writeWorkbook streams an xlsx file to the client with the right headers.
func writeWorkbook(c *gin.Context, f *excelize.File, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[Excel] Streaming workbook failed: %v", err)
	}
}

// DownloadProductTemplate is the handler for
// GET /api/import/products/template (admin only).
func (h *Handlers) DownloadProductTemplate(c *gin.Context) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	_ = f.SetSheetRow(sheet, "A1", &productImportHeader)
	_ = f.SetSheetRow(sheet, "A2", &[]any{
		"Bóng búp LED Hoàng Hải 20W", "bong-den", "Cái",
		"Sản phẩm chất lượng cao, phân phối chính hãng.", "HH-20W", 25000, 100,
	})
	_ = f.SetColWidth(sheet, "A", "D", 32)

	writeWorkbook(c, f, "mau-nhap-san-pham.xlsx")
}

// ImportProducts is the handler for POST /api/import/products (admin only).
// Each data row becomes a product with one default variant. Bad rows are
// reported individually; good rows still import.
func (h *Handlers) ImportProducts(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Vui lòng chọn file Excel để nhập."})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Không đọc được file."})
		return
	}
	defer file.Close()

	workbook, err := excelize.OpenReader(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File không phải định dạng Excel hợp lệ."})
		return
	}
	defer workbook.Close()

	rows, err := workbook.GetRows(workbook.GetSheetName(0))
	if err != nil || len(rows) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File không có dữ liệu sản phẩm."})
		return
	}

	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	imported := 0
	rowErrors := []string{}
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header

		name := cell(row, 0)
		categorySlug := cell(row, 1)
		unit := cell(row, 2)
		description := cell(row, 3)
		sku := cell(row, 4)

		if name == "" {
			continue // blank padding rows are common in hand-edited sheets
		}

		price, err := strconv.ParseFloat(cell(row, 5), 64)
		if err != nil || price <= 0 {
			rowErrors = append(rowErrors, fmt.Sprintf("Dòng %d: giá không hợp lệ", rowNum))
			continue
		}
		stock, err := strconv.Atoi(cell(row, 6))
		if err != nil || stock < 0 {
			rowErrors = append(rowErrors, fmt.Sprintf("Dòng %d: tồn kho không hợp lệ", rowNum))
			continue
		}

		var categoryID int64
		err = h.DB.QueryRow("SELECT id FROM categories WHERE slug = ?", categorySlug).Scan(&categoryID)
		if err == sql.ErrNoRows {
			rowErrors = append(rowErrors, fmt.Sprintf("Dòng %d: danh mục \"%s\" không tồn tại", rowNum, categorySlug))
			continue
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server khi nhập file"})
			return
		}

		productSlug := slug.Make(name)
		if sku == "" {
			sku = fallbackSKU(productSlug)
		}

		tx, err := h.DB.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server khi nhập file"})
			return
		}

		now := time.Now()
		res, err := tx.Exec(`
			INSERT INTO products (category_id, name, slug, description, unit, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			categoryID, name, productSlug, description, unitOrDefault(unit), now, now)
		if err != nil {
			tx.Rollback()
			rowErrors = append(rowErrors, fmt.Sprintf("Dòng %d: không tạo được sản phẩm (slug/SKU trùng?)", rowNum))
			continue
		}
		productID, _ := res.LastInsertId()
		_, err = tx.Exec(`
			INSERT INTO product_variants (product_id, name, sku, price, stock, created_at, updated_at)
			VALUES (?, 'Mặc định', ?, ?, ?, ?, ?)`,
			productID, sku, price, stock, now, now)
		if err != nil {
			tx.Rollback()
			rowErrors = append(rowErrors, fmt.Sprintf("Dòng %d: không tạo được sản phẩm (slug/SKU trùng?)", rowNum))
			continue
		}
		if err := tx.Commit(); err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("Dòng %d: không tạo được sản phẩm", rowNum))
			continue
		}
		imported++
	}

	log.Printf("[Excel] Imported %d products (%d row errors)", imported, len(rowErrors))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Đã nhập %d sản phẩm.", imported),
		"data":    gin.H{"imported": imported, "errors": rowErrors},
	})
}

func unitOrDefault(unit string) string {
	if unit == "" {
		return "Cái"
	}
	return unit
}

// ExportOrders is the handler for GET /api/orders/export (admin only).
func (h *Handlers) ExportOrders(c *gin.Context) {
	rows, err := h.DB.Query(`
		SELECT order_code, customer_name, phone, address, total, payment_method, status, created_at
		FROM orders
		ORDER BY created_at DESC`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể xuất danh sách đơn hàng."})
		return
	}
	defer rows.Close()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	_ = f.SetSheetRow(sheet, "A1", &[]any{
		"Mã đơn", "Khách hàng", "Số điện thoại", "Địa chỉ", "Tổng tiền", "Thanh toán", "Trạng thái", "Ngày tạo",
	})

	rowNum := 2
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.OrderCode, &o.CustomerName, &o.Phone, &o.Address, &o.Total, &o.PaymentMethod, &o.Status, &o.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Không thể xuất danh sách đơn hàng."})
			return
		}
		_ = f.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum), &[]any{
			strconv.FormatInt(o.OrderCode, 10), o.CustomerName, o.Phone, o.Address,
			o.Total, o.PaymentMethod, o.Status, o.CreatedAt.Format("02/01/2006 15:04"),
		})
		rowNum++
	}

	writeWorkbook(c, f, fmt.Sprintf("don-hang-%s.xlsx", time.Now().Format("2006-01-02")))
}
