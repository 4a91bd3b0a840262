package repository

import (
	"context"
	"errors"
	"fmt"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB

	// orderイベントで在庫がこの値以下になったらlow_stockマーカーを追記する。
	// 0以下なら無効。
	lowStockThreshold int64
}

func NewInventoryGormRepository(db *gorm.DB, lowStockThreshold int64) *InventoryGormRepository {
	return &InventoryGormRepository{db: db, lowStockThreshold: lowStockThreshold}
}

// 符号付きdeltaを在庫に適用し、before/after付きの台帳行を追記する。
// 商品行は呼び出し側のトランザクションでロック済みの前提。
// ここでは自前のトランザクションを開かない。
func (r *InventoryGormRepository) Apply(ctx context.Context, productID int64, delta int64, event model.InventoryEvent, orderID *int64, description string) (model.InventoryLog, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.InventoryLog{}, repo.ErrNotFound
		}
		return model.InventoryLog{}, err
	}

	before := p.Stock
	after := before + delta

	// 検証がロック下で済んでいれば起きないはずの防御的チェック
	if event == model.InventoryEventOrder && after < 0 {
		return model.InventoryLog{}, fmt.Errorf("product %d: before=%d delta=%d: %w",
			productID, before, delta, repo.ErrNegativeStock)
	}

	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", after)
	if res.Error != nil {
		return model.InventoryLog{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.InventoryLog{}, repo.ErrNotFound
	}

	entry := model.InventoryLog{
		ProductID:      productID,
		EventType:      event,
		Quantity:       delta,
		BeforeQuantity: before,
		AfterQuantity:  after,
		OrderID:        orderID,
		Description:    description,
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return model.InventoryLog{}, err
	}

	// 注文消費で閾値を割ったらlow_stockマーカー（delta=0なので累計の不変条件は崩れない）
	if event == model.InventoryEventOrder && r.lowStockThreshold > 0 && after <= r.lowStockThreshold {
		marker := model.InventoryLog{
			ProductID:      productID,
			EventType:      model.InventoryEventLowStock,
			Quantity:       0,
			BeforeQuantity: after,
			AfterQuantity:  after,
			OrderID:        orderID,
			Description:    fmt.Sprintf("stock low: %d remaining", after),
		}
		if err := r.db.WithContext(ctx).Create(&marker).Error; err != nil {
			return model.InventoryLog{}, err
		}
	}

	return entry, nil
}

// 商品の履歴を新しい順に返す。
func (r *InventoryGormRepository) ListByProductID(ctx context.Context, productID int64, limit int) ([]model.InventoryLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []model.InventoryLog
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id desc").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return []model.InventoryLog{}, err
	}
	return logs, nil
}
