package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	tx            repo.TransactionManager
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	tx repo.TransactionManager,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		tx:            tx,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page  int
	Limit int
	Q     string
	Sort  string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewValidationError("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewValidationError("invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewValidationError("q too long")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewValidationError("invalid sort")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:  in.Page,
		Limit: in.Limit,
		Q:     strings.TrimSpace(in.Q),
		Sort:  in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, fmt.Errorf("list products: %w", err)
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewValidationError("invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, &NotFoundError{Resource: "product", ID: productID}
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("find product: %w", err)
	}

	//非公開は存在しない扱い
	if !p.IsActive {
		return model.Product{}, &NotFoundError{Resource: "product", ID: productID}
	}
	return p, nil
}

type AdminCreateProductInput struct {
	Name        string
	Description string
	Price       int64
	Stock       int64
	IsActive    bool
}

// AdminCreateProduct は初期在庫付きで商品を登録する。
// 初期在庫は台帳の起点であり、台帳行は作らない
// （累計deltaの不変条件は「現在庫 - 初期在庫」で定義される）。
func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminCreateProductInput) (int64, error) {
	if adminUserID <= 0 {
		return 0, NewValidationError("invalid admin user id")
	}
	if strings.TrimSpace(in.Name) == "" {
		return 0, NewValidationError("name required")
	}
	if in.Price < 0 {
		return 0, NewValidationError("price must be >= 0")
	}
	if in.Stock < 0 {
		return 0, NewValidationError("stock must be >= 0")
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    in.IsActive,
	})
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return p.ID, nil
}

// AdminRestock は入荷。正の数量のみ。
func (u *ProductUsecase) AdminRestock(ctx context.Context, adminUserID int64, productID int64, qty int64, note string) error {
	if adminUserID <= 0 {
		return NewValidationError("invalid admin user id")
	}
	if productID <= 0 {
		return NewValidationError("invalid product id")
	}
	if qty < 1 {
		return NewValidationError("quantity must be >= 1")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByIDForUpdate(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return &NotFoundError{Resource: "product", ID: productID}
			}
			return fmt.Errorf("product lock: %w", err)
		}

		desc := fmt.Sprintf("restock by admin %d", adminUserID)
		if strings.TrimSpace(note) != "" {
			desc = desc + ": " + strings.TrimSpace(note)
		}
		if _, err := r.Inventory().Apply(ctx, productID, qty, model.InventoryEventRestock, nil, desc); err != nil {
			return fmt.Errorf("restock: %w", err)
		}
		return nil
	})
}

// AdminAdjustStock は手動調整（棚卸し差異など）。符号付きdelta。
// 負になる調整は操作ミスとして弾く（orderイベントの防御チェックとは別）。
func (u *ProductUsecase) AdminAdjustStock(ctx context.Context, adminUserID int64, productID int64, delta int64, reason string) error {
	if adminUserID <= 0 {
		return NewValidationError("invalid admin user id")
	}
	if productID <= 0 {
		return NewValidationError("invalid product id")
	}
	if delta == 0 {
		return NewValidationError("delta must not be zero")
	}
	if strings.TrimSpace(reason) == "" {
		return NewValidationError("reason required")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByIDForUpdate(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return &NotFoundError{Resource: "product", ID: productID}
		}
		if err != nil {
			return fmt.Errorf("product lock: %w", err)
		}

		if p.Stock+delta < 0 {
			return NewValidationError("adjustment would make stock negative (current %d, delta %d)", p.Stock, delta)
		}

		desc := fmt.Sprintf("adjustment by admin %d: %s", adminUserID, strings.TrimSpace(reason))
		if _, err := r.Inventory().Apply(ctx, productID, delta, model.InventoryEventAdjustment, nil, desc); err != nil {
			return fmt.Errorf("adjust: %w", err)
		}
		return nil
	})
}

// StockHistory は商品の在庫台帳を新しい順で返す。
func (u *ProductUsecase) StockHistory(ctx context.Context, productID int64, limit int) ([]model.InventoryLog, error) {
	if productID <= 0 {
		return nil, NewValidationError("invalid product id")
	}

	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, &NotFoundError{Resource: "product", ID: productID}
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	logs, err := u.inventoryRepo.ListByProductID(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list inventory logs: %w", err)
	}
	return logs, nil
}
