package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleRepo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRoleRepo(db)

	t.Run("HasRole true", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1 FROM user_roles").
			WithArgs(42, RoleAdmin).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		has, err := repo.HasRole(context.Background(), 42, RoleAdmin)
		assert.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("HasRole false is not an error", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1 FROM user_roles").
			WithArgs(42, RoleOwner).
			WillReturnError(sql.ErrNoRows)

		has, err := repo.HasRole(context.Background(), 42, RoleOwner)
		assert.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("ListByUser returns roles in scan order", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"role"}).AddRow(RoleCustomer).AddRow(RoleOwner)
		mock.ExpectQuery("SELECT role FROM user_roles").
			WithArgs(3).
			WillReturnRows(rows)

		roles, err := repo.ListByUser(context.Background(), 3)
		assert.NoError(t, err)
		assert.Equal(t, []string{RoleCustomer, RoleOwner}, roles)
	})

	t.Run("ListByUser empty yields empty slice", func(t *testing.T) {
		mock.ExpectQuery("SELECT role FROM user_roles").
			WithArgs(9).
			WillReturnRows(sqlmock.NewRows([]string{"role"}))

		roles, err := repo.ListByUser(context.Background(), 9)
		assert.NoError(t, err)
		assert.NotNil(t, roles)
		assert.Empty(t, roles)
	})

	t.Run("Grant inserts role row", func(t *testing.T) {
		mock.ExpectExec("INSERT IGNORE INTO user_roles").
			WithArgs(3, RoleOwner).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Grant(context.Background(), 3, RoleOwner)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
