package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func productRows(id int64, name string, price, stock int64, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "description", "price", "stock", "is_active", "created_at", "updated_at"}).
		AddRow(id, name, "", price, stock, active, now, now)
}

// 注文消費: 現在庫を読み、在庫を更新し、before/after付きの台帳行を追記する。
func TestInventoryApply_OrderEvent(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	r := NewInventoryGormRepository(gormDB, 0)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products"`)).
		WillReturnRows(productRows(101, "りんご", 1000, 5, true))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "inventory_logs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	orderID := int64(7)
	entry, err := r.Apply(context.Background(), 101, -3, model.InventoryEventOrder, &orderID, "order #7: 3 x りんご")

	require.NoError(t, err)
	assert.Equal(t, int64(-3), entry.Quantity)
	assert.Equal(t, int64(5), entry.BeforeQuantity)
	assert.Equal(t, int64(2), entry.AfterQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 閾値を割ったらlow_stockマーカーがもう1行追記される。
func TestInventoryApply_LowStockMarker(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	r := NewInventoryGormRepository(gormDB, 5)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products"`)).
		WillReturnRows(productRows(101, "りんご", 1000, 6, true))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// order行
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "inventory_logs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	// low_stockマーカー
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "inventory_logs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	orderID := int64(7)
	entry, err := r.Apply(context.Background(), 101, -2, model.InventoryEventOrder, &orderID, "")

	require.NoError(t, err)
	assert.Equal(t, int64(4), entry.AfterQuantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// orderイベントで在庫が負になるdeltaはErrNegativeStockで弾き、何も書かない。
func TestInventoryApply_NegativeStockGuard(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	r := NewInventoryGormRepository(gormDB, 0)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products"`)).
		WillReturnRows(productRows(101, "りんご", 1000, 2, true))

	_, err := r.Apply(context.Background(), 101, -3, model.InventoryEventOrder, nil, "")

	assert.ErrorIs(t, err, repo.ErrNegativeStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 存在しない商品。
func TestInventoryApply_ProductNotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	r := NewInventoryGormRepository(gormDB, 0)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	_, err := r.Apply(context.Background(), 999, 5, model.InventoryEventRestock, nil, "")

	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
