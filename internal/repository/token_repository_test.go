package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRepoValidateRefresh(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTokenRepo(db)
	cols := []string{"user_id", "expires_at", "revoked_at"}

	t.Run("live token resolves to its user", func(t *testing.T) {
		mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
			WithArgs("hash-a").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, time.Now().UTC().Add(time.Hour), nil))

		userID, err := repo.ValidateRefresh(context.Background(), "hash-a")
		assert.NoError(t, err)
		assert.Equal(t, uint64(3), userID)
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
			WithArgs("hash-b").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, time.Now().UTC().Add(time.Hour), time.Now().UTC()))

		_, err := repo.ValidateRefresh(context.Background(), "hash-b")
		assert.Equal(t, sql.ErrNoRows, err)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
			WithArgs("hash-c").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, time.Now().UTC().Add(-time.Minute), nil))

		_, err := repo.ValidateRefresh(context.Background(), "hash-c")
		assert.Equal(t, sql.ErrNoRows, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
