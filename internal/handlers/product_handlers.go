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
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/nhbao/truongtin-backend/internal/models"
)

// VariantInput is one variant row on product create/update.
type VariantInput struct {
	Name  string  `json:"name"`
	SKU   string  `json:"sku"`
	Price float64 `json:"price" binding:"required,gt=0"`
	Stock int     `json:"stock" binding:"gte=0"`
}

// ProductInput is the create/update request body.
type ProductInput struct {
	Name        string         `json:"name" binding:"required"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Unit        string         `json:"unit"`
	CategoryID  int64          `json:"categoryId" binding:"required"`
	Variants    []VariantInput `json:"variants" binding:"required,min=1,dive"`
	Images      []string       `json:"images"`
}

// normalize fills the defaults the storefront relies on.
func (in *ProductInput) normalize() {
	if in.Slug == "" {
		in.Slug = slug.Make(in.Name)
	}
	if in.Unit == "" {
		in.Unit = "Cái"
	}
}

// fallbackSKU generates a SKU for variant rows that omit one.
func fallbackSKU(productSlug string) string {
	return fmt.Sprintf("%s-%s", productSlug, uuid.NewString()[:8])
}

// GetProducts is the handler for GET /api/products.
// Supports ?page, ?limit, ?category=<slug> and ?q=<name search>.
func (h *Handlers) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))
	if limit < 1 {
		limit = 12
	}
	offset := (page - 1) * limit

	// Dynamic filter: category slug and/or name keyword
	where := []string{}
	args := []any{}
	if category := c.Query("category"); category != "" {
		where = append(where, "c.slug = ?")
		args = append(args, category)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		where = append(where, "p.name LIKE ?")
		args = append(args, "%"+q+"%")
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var totalItems int
	countQuery := "SELECT COUNT(*) FROM products p JOIN categories c ON p.category_id = c.id" + whereSQL
	if err := h.DB.QueryRow(countQuery, args...).Scan(&totalItems); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}

	listQuery := `
		SELECT p.id, p.category_id, p.name, p.slug, p.description, p.unit, p.created_at, p.updated_at,
		       c.id, c.name, c.slug
		FROM products p
		JOIN categories c ON p.category_id = c.id` + whereSQL + `
		ORDER BY p.created_at DESC
		LIMIT ? OFFSET ?`
	rows, err := h.DB.Query(listQuery, append(args, limit, offset)...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		var cat models.Category
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.Unit, &p.CreatedAt, &p.UpdatedAt,
			&cat.ID, &cat.Name, &cat.Slug); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
			return
		}
		p.Category = &cat
		products = append(products, p)
	}
	rows.Close()

	for i := range products {
		if err := h.loadProductRelations(&products[i]); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
			return
		}
	}

	totalPages := (totalItems + limit - 1) / limit
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
		"pagination": gin.H{
			"currentPage": page,
			"totalPages":  totalPages,
			"totalItems":  totalItems,
			"limit":       limit,
		},
	})
}

// GetProductBySlug is the handler for GET /api/products/:slug
func (h *Handlers) GetProductBySlug(c *gin.Context) {
	var p models.Product
	var cat models.Category
	err := h.DB.QueryRow(`
		SELECT p.id, p.category_id, p.name, p.slug, p.description, p.unit, p.created_at, p.updated_at,
		       c.id, c.name, c.slug
		FROM products p
		JOIN categories c ON p.category_id = c.id
		WHERE p.slug = ?`, c.Param("slug"),
	).Scan(&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.Unit, &p.CreatedAt, &p.UpdatedAt,
		&cat.ID, &cat.Name, &cat.Slug)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Không tìm thấy"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}
	p.Category = &cat

	if err := h.loadProductRelations(&p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi server"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": p})
}

// CreateProduct is the handler for POST /api/products (admin only).
// Product, variants and images land in one transaction.
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	input.normalize()

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi tạo sản phẩm"})
		return
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.Exec(`
		INSERT INTO products (category_id, name, slug, description, unit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		input.CategoryID, input.Name, input.Slug, input.Description, input.Unit, now, now)
	if err != nil {
		// Most likely a duplicate slug or a missing category
		log.Printf("[Product] Create failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Lỗi tạo sản phẩm (slug trùng hoặc danh mục không tồn tại)"})
		return
	}
	productID, _ := res.LastInsertId()

	if err := insertVariantsAndImages(tx, productID, input, now); err != nil {
		log.Printf("[Product] Create variants/images failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Lỗi tạo sản phẩm (SKU trùng?)"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi tạo sản phẩm"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"id": productID, "slug": input.Slug}})
}

// UpdateProduct is the handler for PUT /api/products/:id (admin only).
// Variants and images are replaced wholesale; order items keep their
// snapshot and their variant_id nulls out via the FK.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product id"})
		return
	}

	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	input.normalize()

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi cập nhật sản phẩm"})
		return
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.Exec(`
		UPDATE products SET category_id = ?, name = ?, slug = ?, description = ?, unit = ?, updated_at = ?
		WHERE id = ?`,
		input.CategoryID, input.Name, input.Slug, input.Description, input.Unit, now, productID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Lỗi cập nhật sản phẩm"})
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Could also be an unchanged row, so double-check existence
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM products WHERE id = ?", productID).Scan(&exists); err != nil || exists == 0 {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Không tìm thấy"})
			return
		}
	}

	if _, err := tx.Exec("DELETE FROM product_variants WHERE product_id = ?", productID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi cập nhật sản phẩm"})
		return
	}
	if _, err := tx.Exec("DELETE FROM product_images WHERE product_id = ?", productID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi cập nhật sản phẩm"})
		return
	}

	if err := insertVariantsAndImages(tx, productID, input, now); err != nil {
		log.Printf("[Product] Update variants/images failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Lỗi cập nhật sản phẩm (SKU trùng?)"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi cập nhật sản phẩm"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cập nhật thành công"})
}

// DeleteProduct is the handler for DELETE /api/products/:id (admin only)
func (h *Handlers) DeleteProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product id"})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi khi xóa"})
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM product_variants WHERE product_id = ?", productID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi khi xóa"})
		return
	}
	if _, err := tx.Exec("DELETE FROM product_images WHERE product_id = ?", productID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi khi xóa"})
		return
	}
	if _, err := tx.Exec("DELETE FROM products WHERE id = ?", productID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi khi xóa"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Lỗi khi xóa"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Đã xóa"})
}

// SuggestProducts is the handler for GET /api/search/suggest?q=
// It returns a bare array of up to 6 product names, the shape the search
// box consumes directly.
func (h *Handlers) SuggestProducts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusOK, []string{})
		return
	}

	rows, err := h.DB.Query("SELECT name FROM products WHERE name LIKE ? LIMIT 6", "%"+q+"%")
	if err != nil {
		c.JSON(http.StatusInternalServerError, []string{})
		return
	}
	defer rows.Close()

	suggestions := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		suggestions = append(suggestions, name)
	}

	c.JSON(http.StatusOK, suggestions)
}

// insertVariantsAndImages writes the child rows for a product inside the
// caller's transaction.
func insertVariantsAndImages(tx *sql.Tx, productID int64, input ProductInput, now time.Time) error {
	for _, v := range input.Variants {
		name := v.Name
		if name == "" {
			name = "Mặc định"
		}
		sku := strings.TrimSpace(v.SKU)
		if sku == "" {
			sku = fallbackSKU(input.Slug)
		}
		if _, err := tx.Exec(`
			INSERT INTO product_variants (product_id, name, sku, price, stock, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			productID, name, sku, v.Price, v.Stock, now, now); err != nil {
			return err
		}
	}
	for _, url := range input.Images {
		if _, err := tx.Exec("INSERT INTO product_images (product_id, url) VALUES (?, ?)", productID, url); err != nil {
			return err
		}
	}
	return nil
}

// loadProductRelations attaches images and variants to a product.
func (h *Handlers) loadProductRelations(p *models.Product) error {
	imgRows, err := h.DB.Query("SELECT id, product_id, url FROM product_images WHERE product_id = ?", p.ID)
	if err != nil {
		return err
	}
	defer imgRows.Close()
	p.Images = []models.ProductImage{}
	for imgRows.Next() {
		var img models.ProductImage
		if err := imgRows.Scan(&img.ID, &img.ProductID, &img.URL); err != nil {
			return err
		}
		p.Images = append(p.Images, img)
	}
	imgRows.Close()

	varRows, err := h.DB.Query(
		"SELECT id, product_id, name, sku, price, stock, created_at, updated_at FROM product_variants WHERE product_id = ?", p.ID)
	if err != nil {
		return err
	}
	defer varRows.Close()
	p.Variants = []models.ProductVariant{}
	for varRows.Next() {
		var v models.ProductVariant
		if err := varRows.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.Price, &v.Stock, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return err
		}
		p.Variants = append(p.Variants, v)
	}
	return nil
}
