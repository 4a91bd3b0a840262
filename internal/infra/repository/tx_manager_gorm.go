package repository

import (
	"context"

	"grocery/internal/infra/db"
	"grocery/internal/logger"
	repo "grocery/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type txReposGorm struct {
	orders       repo.OrderRepository
	orderItems   repo.OrderItemRepository
	orderHistory repo.OrderHistoryRepository
	inventory    repo.InventoryRepository
	products     repo.ProductRepository
	users        repo.UserRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository              { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository      { return r.orderItems }
func (r *txReposGorm) OrderHistory() repo.OrderHistoryRepository { return r.orderHistory }
func (r *txReposGorm) Inventory() repo.InventoryRepository       { return r.inventory }
func (r *txReposGorm) Products() repo.ProductRepository          { return r.products }
func (r *txReposGorm) Users() repo.UserRepository                { return r.users }

type TxManagerGorm struct {
	db                *gorm.DB
	lowStockThreshold int64
}

func NewTxManagerGorm(db *gorm.DB, lowStockThreshold int64) *TxManagerGorm {
	return &TxManagerGorm{db: db, lowStockThreshold: lowStockThreshold}
}

// デッドロック検出・直列化失敗はロールバック済みなので再実行できる。
const maxTxAttempts = 3

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = tm.runTx(ctx, fn)
		if err == nil || !db.IsRetryable(err) {
			return err
		}
		logger.Warn(ctx, "retrying transaction",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return err
}

func (tm *TxManagerGorm) runTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:       NewOrderGormRepository(tx),
			orderItems:   NewOrderItemGormRepository(tx),
			orderHistory: NewOrderHistoryGormRepository(tx),
			inventory:    NewInventoryGormRepository(tx, tm.lowStockThreshold),
			products:     NewProductGormRepository(tx),
			users:        NewUserGormRepository(tx),
		}
		return fn(r)
	})
}
