package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/parking-reservation/internal/repository"
)

func TestRequireRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	roles := repository.NewRoleRepo(db)

	run := func(userID any) (*httptest.ResponseRecorder, bool) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if userID != nil {
			c.Set("user_id", userID)
		}
		called := false
		next := func(c echo.Context) error {
			called = true
			return c.NoContent(http.StatusOK)
		}
		require.NoError(t, RequireRole(roles, repository.RoleOwner)(next)(c))
		return rec, called
	}

	t.Run("missing user id is 401", func(t *testing.T) {
		rec, called := run(nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})

	t.Run("role row present calls next", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1 FROM user_roles").
			WithArgs(3, repository.RoleOwner).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		rec, called := run(uint64(3))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, called)
	})

	t.Run("role row missing is 403", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1 FROM user_roles").
			WithArgs(3, repository.RoleOwner).
			WillReturnError(sql.ErrNoRows)

		rec, called := run(uint64(3))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, called)
	})

	t.Run("float user id from jwt claims is accepted", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1 FROM user_roles").
			WithArgs(3, repository.RoleOwner).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		rec, called := run(float64(3))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, called)
	})
}
