package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhbao/truongtin-backend/internal/models"
)

func TestGetAdminNotifications(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/notifications", h.GetAdminNotifications)

	older := time.Now().Add(-2 * time.Hour)
	newer := time.Now().Add(-10 * time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status IN (?, ?, ?)")).
		WithArgs(models.StatusPendingCOD, models.StatusPendingPayOS, models.StatusPaidPendingConfirm).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_code", "customer_name", "phone", "total", "created_at"}).
			AddRow(7, 987123456001, "Nguyễn Văn A", "0909123456", 55000.0, older))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = ?")).
		WithArgs(models.ContactPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "message", "created_at"}).
			AddRow(4, "Trần Thị B", "0912345678", "Cửa hàng có giao về Tuy Phước không?", newer))

	w := doJSON(r, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)

	// merged newest first regardless of source
	assert.Equal(t, "contact_4", resp.Data[0].ID)
	assert.Equal(t, models.NotificationContact, resp.Data[0].Type)
	assert.Equal(t, "order_7", resp.Data[1].ID)
	assert.Equal(t, models.NotificationOrder, resp.Data[1].Type)

	// the order code survives as a string
	assert.Contains(t, w.Body.String(), `"987123456001"`)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAdminNotifications_Empty(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/notifications", h.GetAdminNotifications)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status IN (?, ?, ?)")).
		WithArgs(models.StatusPendingCOD, models.StatusPendingPayOS, models.StatusPaidPendingConfirm).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_code", "customer_name", "phone", "total", "created_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = ?")).
		WithArgs(models.ContactPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "message", "created_at"}))

	w := doJSON(r, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
