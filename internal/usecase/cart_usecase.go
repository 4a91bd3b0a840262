package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

// CartUsecase はセッションカートの業務ロジック。
// カート自体は数量だけを持ち、表示用の価格・商品名はその都度カタログを読む。
type CartUsecase struct {
	store    repo.CartStore
	products repo.ProductRepository
}

func NewCartUsecase(store repo.CartStore, products repo.ProductRepository) *CartUsecase {
	return &CartUsecase{store: store, products: products}
}

type CartItemResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

// GetCart はカート取得（無ければ空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartResponse{}, NewValidationError("invalid session id")
	}

	cart, err := u.store.Get(ctx, sessionID)
	if err != nil {
		return CartResponse{}, fmt.Errorf("cart get: %w", err)
	}
	return u.buildCartResponse(ctx, cart.Lines)
}

// AddToCart はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, sessionID string, in AddCartInput) (CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartResponse{}, NewValidationError("invalid session id")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewValidationError("invalid product_id")
	}
	if in.Quantity < 1 {
		// 0や負数は拒否。カートは変更しない。
		return CartResponse{}, NewValidationError("invalid quantity")
	}

	// 商品チェック（公開のみ）
	lookup, err := u.products.Lookup(ctx, []int64{in.ProductID})
	if err != nil {
		return CartResponse{}, fmt.Errorf("product lookup: %w", err)
	}
	p := lookup[in.ProductID]
	if !p.Exists {
		return CartResponse{}, &NotFoundError{Resource: "product", ID: in.ProductID}
	}
	if !p.IsActive {
		return CartResponse{}, &ProductUnavailableError{ProductID: in.ProductID, Name: p.Name}
	}

	cart, err := u.store.Add(ctx, sessionID, in.ProductID, in.Quantity)
	if err != nil {
		return CartResponse{}, fmt.Errorf("cart add: %w", err)
	}
	return u.buildCartResponse(ctx, cart.Lines)
}

// SetQuantityDelta は現在数量への符号付きdelta適用。
// クライアントが新しい合計数量を送ってくる場合、handler側で
// delta = newQty - currentQty にしてからここへ渡す。
// 結果が0以下なら行ごと削除される。
func (u *CartUsecase) SetQuantityDelta(ctx context.Context, sessionID string, productID int64, delta int64) (CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartResponse{}, NewValidationError("invalid session id")
	}
	if productID <= 0 {
		return CartResponse{}, NewValidationError("invalid product_id")
	}

	cart, err := u.store.ApplyDelta(ctx, sessionID, productID, delta)
	if errors.Is(err, repo.ErrCartItemNotFound) {
		return CartResponse{}, &NotFoundError{Resource: "cart item", ID: productID}
	}
	if err != nil {
		return CartResponse{}, fmt.Errorf("cart delta: %w", err)
	}
	return u.buildCartResponse(ctx, cart.Lines)
}

// SetQuantity は行の数量を新しい合計値に置き換える。0は削除と同じ。
// 置き換えはストア側の1回のread-modify-writeで行われるので、
// 表示用フィルタ（非公開商品の除外）に影響されず、二重送信でも同じ結果になる。
func (u *CartUsecase) SetQuantity(ctx context.Context, sessionID string, productID int64, qty int64) (CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartResponse{}, NewValidationError("invalid session id")
	}
	if productID <= 0 {
		return CartResponse{}, NewValidationError("invalid product_id")
	}
	if qty < 0 {
		return CartResponse{}, NewValidationError("invalid quantity")
	}

	cart, err := u.store.SetQuantity(ctx, sessionID, productID, qty)
	if errors.Is(err, repo.ErrCartItemNotFound) {
		return CartResponse{}, &NotFoundError{Resource: "cart item", ID: productID}
	}
	if err != nil {
		return CartResponse{}, fmt.Errorf("cart set quantity: %w", err)
	}
	return u.buildCartResponse(ctx, cart.Lines)
}

// RemoveFromCart は行の削除。
func (u *CartUsecase) RemoveFromCart(ctx context.Context, sessionID string, productID int64) (CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartResponse{}, NewValidationError("invalid session id")
	}
	if productID <= 0 {
		return CartResponse{}, NewValidationError("invalid product_id")
	}

	cart, err := u.store.Remove(ctx, sessionID, productID)
	if errors.Is(err, repo.ErrCartItemNotFound) {
		return CartResponse{}, &NotFoundError{Resource: "cart item", ID: productID}
	}
	if err != nil {
		return CartResponse{}, fmt.Errorf("cart remove: %w", err)
	}
	return u.buildCartResponse(ctx, cart.Lines)
}

// ClearCart は冪等。
func (u *CartUsecase) ClearCart(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return NewValidationError("invalid session id")
	}
	if err := u.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("cart clear: %w", err)
	}
	return nil
}

// 表示用レスポンスを作る。価格・商品名は現在のカタログ値。
// 非公開・削除済みになった商品は表示からも合計からも外す
// （注文確定時にはどのみちロック下で再検証される）。
func (u *CartUsecase) buildCartResponse(ctx context.Context, lines []model.CartLine) (CartResponse, error) {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}

	lookup, err := u.products.Lookup(ctx, ids)
	if err != nil {
		return CartResponse{}, fmt.Errorf("product lookup: %w", err)
	}

	respItems := make([]CartItemResponse, 0, len(lines))
	var total int64 = 0

	for _, l := range lines {
		p := lookup[l.ProductID]
		if !p.Exists || !p.IsActive {
			continue
		}

		sub := p.Price * l.Quantity
		respItems = append(respItems, CartItemResponse{
			ProductID: l.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  l.Quantity,
			Subtotal:  sub,
		})
		total += sub
	}

	return CartResponse{Items: respItems, Total: total}, nil
}
