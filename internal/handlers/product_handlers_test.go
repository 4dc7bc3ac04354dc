package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/products", h.GetProducts)
	r.GET("/api/products/:slug", h.GetProductBySlug)
	r.GET("/api/search/suggest", h.SuggestProducts)
	r.POST("/api/products", h.CreateProduct)
	r.PUT("/api/products/:id", h.UpdateProduct)
	r.DELETE("/api/products/:id", h.DeleteProduct)
	return r
}

func productListRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "category_id", "name", "slug", "description", "unit", "created_at", "updated_at",
		"c_id", "c_name", "c_slug",
	}).AddRow(9, 3, "Bóng đèn LED 20W", "bong-den-led-20w", "Hàng chính hãng", "Cái", now, now,
		3, "Bóng đèn", "bong-den")
}

func expectProductRelations(mock sqlmock.Sqlmock, productID int64, now time.Time) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, product_id, url FROM product_images WHERE product_id = ?")).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "url"}).
			AddRow(1, productID, "https://cdn.example.com/led-20w.jpg"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM product_variants WHERE product_id = ?")).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "sku", "price", "stock", "created_at", "updated_at"}).
			AddRow(5, productID, "Mặc định", "HH-20W", 25000.0, 100, now, now))
}

func TestGetProducts_FilterByCategoryAndKeyword(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newProductRouter(h)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products p JOIN categories c ON p.category_id = c.id WHERE c.slug = ? AND p.name LIKE ?")).
		WithArgs("bong-den", "%led%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.slug = ? AND p.name LIKE ?")).
		WithArgs("bong-den", "%led%", 12, 0).
		WillReturnRows(productListRow(now))
	expectProductRelations(mock, 9, now)

	req := httptest.NewRequest(http.MethodGet, "/api/products?category=bong-den&q=led", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			Slug     string `json:"slug"`
			Category struct {
				Slug string `json:"slug"`
			} `json:"category"`
			Variants []struct {
				SKU string `json:"sku"`
			} `json:"variants"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "bong-den-led-20w", resp.Data[0].Slug)
	assert.Equal(t, "bong-den", resp.Data[0].Category.Slug)
	require.Len(t, resp.Data[0].Variants, 1)
	assert.Equal(t, "HH-20W", resp.Data[0].Variants[0].SKU)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductBySlug(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newProductRouter(h)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.slug = ?")).
		WithArgs("bong-den-led-20w").
		WillReturnRows(productListRow(now))
	expectProductRelations(mock, 9, now)

	req := httptest.NewRequest(http.MethodGet, "/api/products/bong-den-led-20w", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bóng đèn LED 20W")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductBySlug_NotFound(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newProductRouter(h)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.slug = ?")).
		WithArgs("khong-ton-tai").
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/api/products/khong-ton-tai", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProduct(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newProductRouter(h)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO products")).
		WithArgs(int64(3), "Bóng đèn LED 20W", "bong-den-led-20w", "Hàng chính hãng", "Cái",
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_variants")).
		WithArgs(int64(9), "Mặc định", "HH-20W", 25000.0, 100, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_images")).
		WithArgs(int64(9), "https://cdn.example.com/led-20w.jpg").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := doJSON(r, http.MethodPost, "/api/products", gin.H{
		"name":        "Bóng đèn LED 20W",
		"description": "Hàng chính hãng",
		"categoryId":  3,
		"variants":    []gin.H{{"sku": "HH-20W", "price": 25000, "stock": 100}},
		"images":      []string{"https://cdn.example.com/led-20w.jpg"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	// slug and unit defaults were filled in
	assert.Contains(t, w.Body.String(), "bong-den-led-20w")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProduct_ReplacesVariantsAndImages(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newProductRouter(h)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET")).
		WithArgs(int64(3), "Bóng đèn LED 30W", "bong-den-led-30w", "", "Cái", sqlmock.AnyArg(), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_variants WHERE product_id = ?")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_images WHERE product_id = ?")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_variants")).
		WithArgs(int64(9), "Mặc định", "HH-30W", 32000.0, 80, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectCommit()

	w := doJSON(r, http.MethodPut, "/api/products/9", gin.H{
		"name":       "Bóng đèn LED 30W",
		"categoryId": 3,
		"variants":   []gin.H{{"sku": "HH-30W", "price": 32000, "stock": 80}},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProduct(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newProductRouter(h)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_variants WHERE product_id = ?")).
		WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_images WHERE product_id = ?")).
		WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = ?")).
		WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := doJSON(r, http.MethodDelete, "/api/products/9", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestProducts(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newProductRouter(h)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM products WHERE name LIKE ? LIMIT 6")).
		WithArgs("%bóng%").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("Bóng đèn LED 20W").
			AddRow("Bóng đèn LED 30W"))

	req := httptest.NewRequest(http.MethodGet, "/api/search/suggest?q=bóng", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var names []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &names))
	assert.Equal(t, []string{"Bóng đèn LED 20W", "Bóng đèn LED 30W"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestProducts_EmptyQuery(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newProductRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/search/suggest", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
