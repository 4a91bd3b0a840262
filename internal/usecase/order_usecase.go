package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"grocery/internal/domain/model"
	"grocery/internal/logger"
	repo "grocery/internal/repository"

	"go.uber.org/zap"
)

// OrderUsecase はカートのスナップショットを確定済み注文に変換する。
// 注文行・明細・在庫減算・台帳追記は1トランザクションで全部成功か全部失敗。
type OrderUsecase struct {
	tx    repo.TransactionManager
	carts repo.CartStore
}

func NewOrderUsecase(tx repo.TransactionManager, carts repo.CartStore) *OrderUsecase {
	return &OrderUsecase{tx: tx, carts: carts}
}

type PlaceOrderInput struct {
	ShippingAddress string
	PaymentMethod   string
	Notes           string
}

type OrderItemOutput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	Price     int64 `json:"price"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	Status          string            `json:"status"`
	TotalAmount     int64             `json:"total_amount"`
	ShippingAddress string            `json:"shipping_address"`
	PaymentMethod   string            `json:"payment_method"`
	Notes           string            `json:"notes,omitempty"`
	OrderDate       time.Time         `json:"order_date"`
	Items           []OrderItemOutput `json:"items"`
}

// PlaceOrder は注文確定処理。
// カートはセッションのもの、価格と在庫はロック下で読んだ現在値が正。
// カートに入れた時点の価格や数量は信用しない。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, sessionID string, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewValidationError("invalid user id")
	}
	if strings.TrimSpace(sessionID) == "" {
		return OrderOutput{}, NewValidationError("invalid session id")
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return OrderOutput{}, NewValidationError("shipping_address required")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return OrderOutput{}, NewValidationError("payment_method required")
	}

	//セッションカートのスナップショット（カタログ情報は含まない）
	snapshot, err := u.carts.Snapshot(ctx, sessionID)
	if err != nil {
		return OrderOutput{}, fmt.Errorf("cart snapshot: %w", err)
	}
	if len(snapshot) == 0 {
		return OrderOutput{}, &StateError{Msg: "cart is empty"}
	}

	// 全同時チェックアウトで同じ順にロックを取るため、productID昇順を保証する
	// （循環待ちによるデッドロック回避）
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ProductID < snapshot[j].ProductID
	})

	var out OrderOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//ユーザー存在チェック
		exists, err := r.Users().Exists(ctx, userID)
		if err != nil {
			return fmt.Errorf("user check: %w", err)
		}
		if !exists {
			return &NotFoundError{Resource: "user", ID: userID}
		}

		//行ごとの検証。商品行をFOR UPDATEで読んで、
		//非公開・在庫不足をロック下で判定し、価格もロック下の値で確定する。
		items := make([]model.OrderItem, 0, len(snapshot))
		names := make([]string, 0, len(snapshot))
		var total int64 = 0

		for _, line := range snapshot {
			p, err := r.Products().FindByIDForUpdate(ctx, line.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return &NotFoundError{Resource: "product", ID: line.ProductID}
			}
			if err != nil {
				return fmt.Errorf("product lock: %w", err)
			}

			if !p.IsActive {
				return &ProductUnavailableError{ProductID: p.ID, Name: p.Name}
			}
			if p.Stock < line.Quantity {
				return &InsufficientStockError{
					ProductID: p.ID,
					Name:      p.Name,
					Requested: line.Quantity,
					Available: p.Stock,
				}
			}

			items = append(items, model.OrderItem{
				ProductID: p.ID,
				Quantity:  line.Quantity,
				Price:     p.Price,
			})
			names = append(names, p.Name)
			total += p.Price * line.Quantity
		}

		//注文作成（pendingで開始。作成時は履歴行を書かない）
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:          userID,
			Status:          model.OrderStatusPending,
			TotalAmount:     total,
			ShippingAddress: strings.TrimSpace(in.ShippingAddress),
			PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
			Notes:           in.Notes,
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		//行ごとに在庫を減らし、台帳に追記する
		for i, it := range items {
			desc := fmt.Sprintf("order #%d: %d x %s", orderID, it.Quantity, names[i])
			if _, err := r.Inventory().Apply(ctx, it.ProductID, -it.Quantity, model.InventoryEventOrder, &orderID, desc); err != nil {
				if errors.Is(err, repo.ErrNegativeStock) {
					// ロック下の検証を通った後に負になるのはバグ
					logger.Error(ctx, "negative stock after locked validation", err,
						zap.Int64("product_id", it.ProductID),
						zap.Int64("order_id", orderID),
					)
					return &ConsistencyError{Msg: "stock went negative during order placement", Err: err}
				}
				return fmt.Errorf("apply inventory: %w", err)
			}
		}

		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("reload order: %w", err)
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	//確定できたのでカートを空にする。
	//ここで失敗しても注文自体は成立しているので、ログだけ残して成功を返す。
	if err := u.carts.Clear(ctx, sessionID); err != nil {
		logger.Warn(ctx, "cart clear after checkout failed",
			zap.String("session_id", sessionID),
			zap.Int64("order_id", out.ID),
			zap.Error(err),
		)
	}

	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) ([]OrderOutput, int64, error) {
	if userID <= 0 {
		return nil, 0, NewValidationError("invalid user id")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var outs []OrderOutput
	var total int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, n, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		total = n

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return fmt.Errorf("list order items: %w", err)
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return outs, total, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewValidationError("invalid user id")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewValidationError("invalid order id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return &NotFoundError{Resource: "order", ID: orderID}
		}
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}

		//他人の注文は「存在しない扱い」にする
		if o.UserID != userID {
			return &NotFoundError{Resource: "order", ID: orderID}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("list order items: %w", err)
		}

		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Notes:           o.Notes,
		OrderDate:       o.CreatedAt,
		Items:           outItems,
	}
}
