package handlers

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/nhbao/truongtin-backend/internal/models"
)

func newContactRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/contact", h.SubmitContact)
	r.GET("/api/contact", h.GetAllContacts)
	r.PATCH("/api/contact/:id", h.ResolveContact)
	return r
}

func TestSubmitContact(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newContactRouter(h)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contacts")).
		WithArgs("Trần Thị B", "0912345678", "Cửa hàng có giao về Tuy Phước không?", models.ContactPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(4, 1))

	w := doJSON(r, http.MethodPost, "/api/contact", gin.H{
		"name":    "Trần Thị B",
		"phone":   "0912345678",
		"message": "Cửa hàng có giao về Tuy Phước không?",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Gửi liên hệ thành công")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitContact_MissingFields(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newContactRouter(h)

	w := doJSON(r, http.MethodPost, "/api/contact", gin.H{"name": "Trần Thị B"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveContact(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newContactRouter(h)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE contacts SET status = ? WHERE id = ?")).
		WithArgs(models.ContactResolved, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(r, http.MethodPatch, "/api/contact/4", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveContact_NotFound(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newContactRouter(h)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE contacts SET status = ? WHERE id = ?")).
		WithArgs(models.ContactResolved, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := doJSON(r, http.MethodPatch, "/api/contact/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllContacts(t *testing.T) {
	h, mock := newTestHandlers(t, &fakeGateway{})
	r := newContactRouter(h)

	mock.ExpectQuery(regexp.QuoteMeta("FROM contacts ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "message", "status", "created_at"}).
			AddRow(4, "Trần Thị B", "0912345678", "Cửa hàng có giao về Tuy Phước không?", models.ContactPending, time.Now()))

	w := doJSON(r, http.MethodGet, "/api/contact", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Trần Thị B")
	assert.NoError(t, mock.ExpectationsWereMet())
}
