package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

// AdminOrderUsecase は注文ステータスの遷移と履歴管理。
type AdminOrderUsecase struct {
	tx repo.TransactionManager
}

func NewAdminOrderUsecase(tx repo.TransactionManager) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx}
}

type UpdateOrderStatusInput struct {
	Status string
	Notes  string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, int64, error) {
	if f.Page < 1 {
		return nil, 0, NewValidationError("invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return nil, 0, NewValidationError("invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return nil, 0, NewValidationError("invalid status")
	}

	var outs []OrderOutput
	var total int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, n, err := r.Orders().ListAdmin(ctx, f)
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

// UpdateStatus は遷移グラフに従ってステータスを変更する。
// pending -> processing -> completed、pending/processing -> cancelled のみ。
// 同じステータスへの変更はno-op（履歴行も書かない）。
// cancelledへの遷移では明細分の在庫を戻す。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorUserID int64, orderID int64, in UpdateOrderStatusInput) error {
	if actorUserID <= 0 {
		return NewValidationError("invalid actor user id")
	}
	if orderID <= 0 {
		return NewValidationError("invalid order id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	if !newStatus.Valid() {
		return NewValidationError("invalid status %q", in.Status)
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//判定と更新を同じロック下で行う
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return &NotFoundError{Resource: "order", ID: orderID}
		}
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}

		// 変わらないなら何もしない（履歴も書かない）
		if o.Status == newStatus {
			return nil
		}

		if !o.Status.CanTransitionTo(newStatus) {
			return &InvalidTransitionError{OrderID: orderID, From: o.Status, To: newStatus}
		}

		//キャンセルは明細分の在庫を戻す（restockとして台帳に残す）
		if newStatus == model.OrderStatusCancelled {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return fmt.Errorf("list order items: %w", err)
			}

			for _, it := range items {
				//行ロックを取ってから台帳を更新する
				if _, err := r.Products().FindByIDForUpdate(ctx, it.ProductID); err != nil {
					return fmt.Errorf("product lock: %w", err)
				}
				desc := fmt.Sprintf("order #%d cancelled: return %d units", orderID, it.Quantity)
				if _, err := r.Inventory().Apply(ctx, it.ProductID, it.Quantity, model.InventoryEventRestock, &orderID, desc); err != nil {
					return fmt.Errorf("restock: %w", err)
				}
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return &NotFoundError{Resource: "order", ID: orderID}
			}
			return fmt.Errorf("update status: %w", err)
		}

		//変更1回につき履歴1行
		actor := actorUserID
		if err := r.OrderHistory().Create(ctx, model.OrderHistory{
			OrderID:     orderID,
			Status:      newStatus,
			ActorUserID: &actor,
			Notes:       in.Notes,
		}); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		return nil
	})
}

// History は注文のステータス変更履歴を古い順で返す。
func (u *AdminOrderUsecase) History(ctx context.Context, orderID int64) ([]model.OrderHistory, error) {
	if orderID <= 0 {
		return nil, NewValidationError("invalid order id")
	}

	var rows []model.OrderHistory

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return &NotFoundError{Resource: "order", ID: orderID}
			}
			return fmt.Errorf("find order: %w", err)
		}

		var err error
		rows, err = r.OrderHistory().ListByOrderID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
