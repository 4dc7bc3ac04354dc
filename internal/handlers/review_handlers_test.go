package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReviewRouter(h *Handlers, userID *int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if userID != nil {
		id := *userID
		r.Use(func(c *gin.Context) { c.Set("userID", id) })
	}
	r.GET("/api/reviews/:productId", h.GetProductReviews)
	r.POST("/api/reviews", h.CreateReview)
	return r
}

func TestGetProductReviews(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newReviewRouter(h, nil)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON r.user_id = u.id")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "user_id", "rating", "comment", "created_at", "name"}).
			AddRow(1, 9, 42, 5, "Hàng tốt, giao nhanh", time.Now(), "Nguyễn Văn A"))

	req := httptest.NewRequest(http.MethodGet, "/api/reviews/9", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Nguyễn Văn A")
	assert.Contains(t, w.Body.String(), "Hàng tốt")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReview(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	userID := int64(42)
	r := newReviewRouter(h, &userID)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reviews")).
		WithArgs(int64(9), int64(42), 5, "Hàng tốt", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM users WHERE id = ?")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Nguyễn Văn A"))

	w := doJSON(r, http.MethodPost, "/api/reviews", gin.H{
		"productId": 9,
		"rating":    5,
		"comment":   "Hàng tốt",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			ID       int64  `json:"id"`
			UserName string `json:"userName"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Data.ID)
	assert.Equal(t, "Nguyễn Văn A", resp.Data.UserName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReview_Anonymous(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newReviewRouter(h, nil)

	w := doJSON(r, http.MethodPost, "/api/reviews", gin.H{
		"productId": 9,
		"rating":    5,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReview_RatingOutOfRange(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	userID := int64(42)
	r := newReviewRouter(h, &userID)

	w := doJSON(r, http.MethodPost, "/api/reviews", gin.H{
		"productId": 9,
		"rating":    6,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
