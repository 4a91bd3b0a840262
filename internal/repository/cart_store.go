package repository

import (
	"context"
	"errors"

	"grocery/internal/domain/model"
)

var ErrCartItemNotFound = errors.New("cart item not found")

// セッション単位のカート保存。実装はメモリ or Redis。
// 同一セッションの同時リクエスト（二重送信）があっても、各操作は
// read-modify-writeとして直列化されること。
type CartStore interface {
	Get(ctx context.Context, sessionID string) (model.Cart, error)

	// 既存行には数量を加算、無ければ行を作る。qtyは1以上であること。
	Add(ctx context.Context, sessionID string, productID int64, qty int64) (model.Cart, error)

	// 符号付きdeltaを現在数量に適用する。結果が0以下なら行ごと削除。
	// 行が無ければ ErrCartItemNotFound。
	ApplyDelta(ctx context.Context, sessionID string, productID int64, delta int64) (model.Cart, error)

	// 数量を新しい合計値に置き換える。読み取りと更新を1回の
	// read-modify-writeで行うので、二重送信されても同じ結果に収束する。
	// qtyが0以下なら行ごと削除。行が無ければ ErrCartItemNotFound。
	SetQuantity(ctx context.Context, sessionID string, productID int64, qty int64) (model.Cart, error)

	// 行が無ければ ErrCartItemNotFound。
	Remove(ctx context.Context, sessionID string, productID int64) (model.Cart, error)

	// 冪等。空でも成功する。
	Clear(ctx context.Context, sessionID string) error

	// productID昇順の不変スナップショットを返す。OrderPlacerが使う。
	Snapshot(ctx context.Context, sessionID string) ([]model.CartLine, error)
}
