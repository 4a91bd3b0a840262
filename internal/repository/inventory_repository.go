package repository

import (
	"context"
	"errors"

	"grocery/internal/domain/model"
)

// orderイベントで在庫が負になる場合に返す。
// OrderPlacerの検証が同じロック下で済んでいれば起きないはずの防御的チェック。
var ErrNegativeStock = errors.New("stock would go negative")

// 在庫台帳。現在庫の更新と履歴の追記を常にセットで行う。
// 自前のトランザクションは開かず、呼び出し側のトランザクションに参加する。
type InventoryRepository interface {
	// 符号付きdeltaを適用し、before/after付きの台帳行を追記する。
	// 対象の商品行は呼び出し側がロック済みであること。
	Apply(ctx context.Context, productID int64, delta int64, event model.InventoryEvent, orderID *int64, description string) (model.InventoryLog, error)

	// 商品の履歴を新しい順に返す。
	ListByProductID(ctx context.Context, productID int64, limit int) ([]model.InventoryLog, error)
}
