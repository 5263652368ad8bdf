package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-reservation/internal/repository"
)

var locationCols = []string{
	"id", "owner_user_id", "title", "description", "address", "city", "state", "pincode",
	"latitude", "longitude", "photos", "total_slots", "available_slots", "pricing_mode",
	"base_price_per_hour_paise", "slab_pricing", "approved", "approved_by", "approved_at",
	"created_at", "updated_at",
}

func locationRow(now time.Time, approved bool, approvedBy any, approvedAt any) *sqlmock.Rows {
	return sqlmock.NewRows(locationCols).AddRow(
		7, 3, "MG Road Lot", "covered parking", "12 MG Road", "Pune", "MH", "411001",
		18.52, 73.85, `["front.jpg"]`, 20, 12, repository.PricingModeHourly,
		5000, nil, approved, approvedBy, approvedAt, now, now,
	)
}

// approveCtx builds an echo context for POST /v1/locations/:id/approve.
// userID nil means "no session resolved".
func approveCtx(t *testing.T, id, body string, userID any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/locations/"+id+"/approve", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/locations/:id/approve")
	c.SetParamNames("id")
	c.SetParamValues(id)
	if userID != nil {
		c.Set("user_id", userID)
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestApproveLocation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := NewAdminHandler(repository.NewLocationRepo(db), repository.NewRoleRepo(db))
	now := time.Now().UTC().Truncate(time.Second)

	adminRoleRow := func() *sqlmock.Rows { return sqlmock.NewRows([]string{"1"}).AddRow(1) }

	t.Run("no session is 401", func(t *testing.T) {
		c, rec := approveCtx(t, "7", `{"approve":true}`, nil)
		require.NoError(t, h.ApproveLocation(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet()) // no store access
	})

	t.Run("non-numeric id is 400 INVALID_ID with no store access", func(t *testing.T) {
		c, rec := approveCtx(t, "abc", `{"approve":true}`, uint64(42))
		require.NoError(t, h.ApproveLocation(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ID", decodeBody(t, rec)["code"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-boolean approve is 400 INVALID_APPROVE_FIELD", func(t *testing.T) {
		for _, body := range []string{`{"approve":"yes"}`, `{"approve":1}`, `{}`, `{"approve":null}`} {
			c, rec := approveCtx(t, "7", body, uint64(42))
			require.NoError(t, h.ApproveLocation(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
			assert.Equal(t, "INVALID_APPROVE_FIELD", decodeBody(t, rec)["code"], "body: %s", body)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("caller without admin role row is 403", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1 FROM user_roles").
			WithArgs(42, repository.RoleAdmin).
			WillReturnError(sql.ErrNoRows)

		c, rec := approveCtx(t, "7", `{"approve":true}`, uint64(42))
		require.NoError(t, h.ApproveLocation(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing location is 404 LOCATION_NOT_FOUND", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1 FROM user_roles").
			WithArgs(42, repository.RoleAdmin).
			WillReturnRows(adminRoleRow())
		mock.ExpectQuery("SELECT (.+) FROM parking_locations WHERE id = ").
			WithArgs(7).
			WillReturnError(sql.ErrNoRows)

		c, rec := approveCtx(t, "7", `{"approve":true}`, uint64(42))
		require.NoError(t, h.ApproveLocation(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "LOCATION_NOT_FOUND", decodeBody(t, rec)["code"])
	})

	t.Run("approve true returns updated row with admin identity", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1 FROM user_roles").
			WithArgs(42, repository.RoleAdmin).
			WillReturnRows(adminRoleRow())
		mock.ExpectQuery("SELECT (.+) FROM parking_locations WHERE id = ").
			WithArgs(7).
			WillReturnRows(locationRow(now, false, nil, nil))
		mock.ExpectExec("UPDATE parking_locations").
			WithArgs(42, sqlmock.AnyArg(), 7).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT (.+) FROM parking_locations WHERE id = ").
			WithArgs(7).
			WillReturnRows(locationRow(now, true, 42, now))

		c, rec := approveCtx(t, "7", `{"approve":true}`, uint64(42))
		require.NoError(t, h.ApproveLocation(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["approved"])
		assert.Equal(t, float64(42), body["approved_by"])
		assert.NotNil(t, body["approved_at"])
	})

	t.Run("approve false clears admin identity", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1 FROM user_roles").
			WithArgs(42, repository.RoleAdmin).
			WillReturnRows(adminRoleRow())
		mock.ExpectQuery("SELECT (.+) FROM parking_locations WHERE id = ").
			WithArgs(7).
			WillReturnRows(locationRow(now, true, 42, now))
		mock.ExpectExec("UPDATE parking_locations").
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT (.+) FROM parking_locations WHERE id = ").
			WithArgs(7).
			WillReturnRows(locationRow(now, false, nil, nil))

		c, rec := approveCtx(t, "7", `{"approve":false}`, uint64(42))
		require.NoError(t, h.ApproveLocation(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, false, body["approved"])
		assert.Nil(t, body["approved_by"])
		assert.Nil(t, body["approved_at"])
	})

	t.Run("update racing a delete is 500 UPDATE_FAILED", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1 FROM user_roles").
			WithArgs(42, repository.RoleAdmin).
			WillReturnRows(adminRoleRow())
		mock.ExpectQuery("SELECT (.+) FROM parking_locations WHERE id = ").
			WithArgs(7).
			WillReturnRows(locationRow(now, false, nil, nil))
		mock.ExpectExec("UPDATE parking_locations").
			WithArgs(42, sqlmock.AnyArg(), 7).
			WillReturnResult(sqlmock.NewResult(0, 0))

		c, rec := approveCtx(t, "7", `{"approve":true}`, uint64(42))
		require.NoError(t, h.ApproveLocation(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "UPDATE_FAILED", decodeBody(t, rec)["code"])
	})
}
