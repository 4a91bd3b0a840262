package repository

import (
	"context"

	"grocery/internal/domain/model"
)

// ステータス変更履歴の保存・取得。追記専用。
type OrderHistoryRepository interface {
	Create(ctx context.Context, h model.OrderHistory) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderHistory, error)
}
