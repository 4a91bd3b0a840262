package repository

import (
	"context"
	"errors"

	"grocery/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page  int
	Limit int
	Q     string
	Sort  string
}

// 検証パスで使う商品のその時点の状態。
type ProductLookup struct {
	Exists   bool
	IsActive bool
	Name     string
	Price    int64
	Stock    int64
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	// SELECT ... FOR UPDATE で行ロックを取って読む。
	// トランザクション内でのみ意味を持つ。
	FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error)

	// 渡したID全件について現在の状態を読む（呼び出し時点のDB状態）。
	// 存在しないIDも Exists=false で返す。
	Lookup(ctx context.Context, ids []int64) (map[int64]ProductLookup, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
}
