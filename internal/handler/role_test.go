package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-reservation/internal/repository"
)

func rolesCtx(t *testing.T, userID any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/roles/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != nil {
		c.Set("user_id", userID)
	}
	return c, rec
}

func TestMyRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := NewRoleHandler(repository.NewRoleRepo(db))

	t.Run("no session is 401", func(t *testing.T) {
		c, rec := rolesCtx(t, nil)
		require.NoError(t, h.MyRoles(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("user with roles", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"role"}).
			AddRow(repository.RoleCustomer).
			AddRow(repository.RoleAdmin)
		mock.ExpectQuery("SELECT role FROM user_roles").
			WithArgs(42).
			WillReturnRows(rows)

		c, rec := rolesCtx(t, uint64(42))
		require.NoError(t, h.MyRoles(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"roles":["customer","admin"]}`, rec.Body.String())
	})

	t.Run("user with zero role rows gets empty array, not an error", func(t *testing.T) {
		mock.ExpectQuery("SELECT role FROM user_roles").
			WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"role"}))

		c, rec := rolesCtx(t, uint64(9))
		require.NoError(t, h.MyRoles(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"roles":[]}`, rec.Body.String())
	})
}
