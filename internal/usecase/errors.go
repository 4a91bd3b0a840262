package usecase

import (
	"fmt"

	"grocery/internal/domain/model"
)

// 入力不備。呼び直しても直らない（呼び出し側の修正が必要）。
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// user/product/order等が見つからない。
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// 商品が非公開。エンドユーザーに見せてよい。
type ProductUnavailableError struct {
	ProductID int64
	Name      string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %d (%s) is not available", e.ProductID, e.Name)
}

// 在庫不足。Availableを含めてエンドユーザーに見せてよい。
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): requested %d, available %d",
		e.ProductID, e.Name, e.Requested, e.Available)
}

// 空注文など、現在の状態では実行できない操作。
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }

// ステータス遷移グラフに無い遷移、または終端ステータスからの遷移。
type InvalidTransitionError struct {
	OrderID int64
	From    model.OrderStatus
	To      model.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %d: invalid transition %s -> %s", e.OrderID, e.From, e.To)
}

// 本来起こり得ない不整合（バグの兆候）。呼び出し側は一般メッセージを
// 返し、詳細は内部ログへ。
type ConsistencyError struct {
	Msg string
	Err error
}

func (e *ConsistencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConsistencyError) Unwrap() error { return e.Err }
