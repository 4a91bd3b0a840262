package repository

import (
	"context"

	"grocery/internal/domain/model"

	"gorm.io/gorm"
)

type OrderHistoryGormRepository struct {
	db *gorm.DB
}

func NewOrderHistoryGormRepository(db *gorm.DB) *OrderHistoryGormRepository {
	return &OrderHistoryGormRepository{db: db}
}

// 履歴を1件追記
func (r *OrderHistoryGormRepository) Create(ctx context.Context, h model.OrderHistory) error {
	return r.db.WithContext(ctx).Create(&h).Error
}

// 注文の履歴を古い順に返す。
func (r *OrderHistoryGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderHistory, error) {
	var rows []model.OrderHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return []model.OrderHistory{}, err
	}
	return rows, nil
}
