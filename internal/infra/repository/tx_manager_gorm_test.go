package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repo "grocery/internal/repository"
)

// fnがnilを返せばcommit。
func TestWithinTx_Commit(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	tm := NewTxManagerGorm(gormDB, 5)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "products" (.+)FOR UPDATE`).
		WillReturnRows(productRows(101, "りんご", 1000, 5, true))
	mock.ExpectCommit()

	err := tm.WithinTx(context.Background(), func(r repo.TxRepos) error {
		p, err := r.Products().FindByIDForUpdate(context.Background(), 101)
		require.NoError(t, err)
		assert.Equal(t, int64(5), p.Stock)
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// fnがerrorを返せばrollbackし、そのerrorがそのまま返る。
func TestWithinTx_Rollback(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	tm := NewTxManagerGorm(gormDB, 5)

	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products"`)).
		WillReturnRows(productRows(101, "りんご", 1000, 5, true))
	mock.ExpectRollback()

	err := tm.WithinTx(context.Background(), func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(context.Background(), 101); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
