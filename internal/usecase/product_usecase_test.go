package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grocery/internal/domain/model"
	"grocery/internal/usecase"
)

func newProductUsecase(db *fakeDB) *usecase.ProductUsecase {
	return usecase.NewProductUsecase(
		&fakeProductRepo{db: db},
		&fakeInventoryRepo{db: db},
		&fakeTxManager{db: db},
	)
}

// 公開一覧は公開中の商品だけ。
func TestListPublicProducts(t *testing.T) {
	db := newFakeDB()
	db.addProduct(model.Product{ID: 1, Name: "りんご", Price: 1000, Stock: 5, IsActive: true})
	db.addProduct(model.Product{ID: 2, Name: "非公開品", Price: 500, Stock: 5, IsActive: false})

	u := newProductUsecase(db)

	out, err := u.ListPublicProducts(context.Background(), usecase.ListProductsInput{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "りんご", out.Items[0].Name)

	var vErr *usecase.ValidationError
	_, err = u.ListPublicProducts(context.Background(), usecase.ListProductsInput{Page: 0, Limit: 20})
	assert.ErrorAs(t, err, &vErr)
	_, err = u.ListPublicProducts(context.Background(), usecase.ListProductsInput{Page: 1, Limit: 20, Sort: "random"})
	assert.ErrorAs(t, err, &vErr)
}

// 非公開商品の詳細は存在しない扱い。
func TestGetProductDetail(t *testing.T) {
	db := newFakeDB()
	db.addProduct(model.Product{ID: 1, Name: "りんご", Price: 1000, Stock: 5, IsActive: true})
	db.addProduct(model.Product{ID: 2, Name: "非公開品", Price: 500, Stock: 5, IsActive: false})

	u := newProductUsecase(db)
	ctx := context.Background()

	p, err := u.GetProductDetail(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "りんご", p.Name)

	var nfErr *usecase.NotFoundError
	_, err = u.GetProductDetail(ctx, 2)
	require.ErrorAs(t, err, &nfErr)
	_, err = u.GetProductDetail(ctx, 999)
	require.ErrorAs(t, err, &nfErr)
}

// 商品登録。初期在庫は台帳の起点で、台帳行は書かない。
func TestAdminCreateProduct(t *testing.T) {
	db := newFakeDB()
	u := newProductUsecase(db)
	ctx := context.Background()

	_, err := u.AdminCreateProduct(ctx, 9, usecase.AdminCreateProductInput{
		Name: "りんご", Price: 1000, Stock: 10, IsActive: true,
	})
	require.NoError(t, err)
	assert.Empty(t, db.invLogs)

	var vErr *usecase.ValidationError
	_, err = u.AdminCreateProduct(ctx, 9, usecase.AdminCreateProductInput{Name: "  ", Price: 1000})
	assert.ErrorAs(t, err, &vErr)
	_, err = u.AdminCreateProduct(ctx, 9, usecase.AdminCreateProductInput{Name: "x", Price: -1})
	assert.ErrorAs(t, err, &vErr)
	_, err = u.AdminCreateProduct(ctx, 9, usecase.AdminCreateProductInput{Name: "x", Stock: -1})
	assert.ErrorAs(t, err, &vErr)
}

// 入荷。在庫が増え、restock行がbefore/after付きで残る。
func TestAdminRestock(t *testing.T) {
	db := newFakeDB()
	db.addProduct(model.Product{ID: 1, Name: "りんご", Price: 1000, Stock: 3, IsActive: true})

	u := newProductUsecase(db)
	ctx := context.Background()

	require.NoError(t, u.AdminRestock(ctx, 9, 1, 7, "定期入荷"))
	assert.Equal(t, int64(10), db.products[1].Stock)

	require.Len(t, db.invLogs, 1)
	l := db.invLogs[0]
	assert.Equal(t, model.InventoryEventRestock, l.EventType)
	assert.Equal(t, int64(7), l.Quantity)
	assert.Equal(t, int64(3), l.BeforeQuantity)
	assert.Equal(t, int64(10), l.AfterQuantity)
	assert.Nil(t, l.OrderID)

	var vErr *usecase.ValidationError
	assert.ErrorAs(t, u.AdminRestock(ctx, 9, 1, 0, ""), &vErr)
	assert.ErrorAs(t, u.AdminRestock(ctx, 9, 1, -2, ""), &vErr)

	var nfErr *usecase.NotFoundError
	assert.ErrorAs(t, u.AdminRestock(ctx, 9, 999, 1, ""), &nfErr)
}

// 手動調整。負の調整も可能だが、在庫が負になる調整は弾く。
func TestAdminAdjustStock(t *testing.T) {
	db := newFakeDB()
	db.addProduct(model.Product{ID: 1, Name: "りんご", Price: 1000, Stock: 5, IsActive: true})

	u := newProductUsecase(db)
	ctx := context.Background()

	require.NoError(t, u.AdminAdjustStock(ctx, 9, 1, -2, "棚卸し差異"))
	assert.Equal(t, int64(3), db.products[1].Stock)

	require.Len(t, db.invLogs, 1)
	assert.Equal(t, model.InventoryEventAdjustment, db.invLogs[0].EventType)
	assert.Equal(t, int64(-2), db.invLogs[0].Quantity)

	var vErr *usecase.ValidationError

	// 負になる調整は操作ミス扱い
	err := u.AdminAdjustStock(ctx, 9, 1, -4, "棚卸し差異")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, int64(3), db.products[1].Stock)
	assert.Len(t, db.invLogs, 1)

	// delta=0と理由なしは拒否
	assert.ErrorAs(t, u.AdminAdjustStock(ctx, 9, 1, 0, "理由"), &vErr)
	assert.ErrorAs(t, u.AdminAdjustStock(ctx, 9, 1, 1, "   "), &vErr)
}

// 在庫台帳の取得。
func TestStockHistory(t *testing.T) {
	db := newFakeDB()
	db.addProduct(model.Product{ID: 1, Name: "りんご", Price: 1000, Stock: 5, IsActive: true})

	u := newProductUsecase(db)
	ctx := context.Background()

	require.NoError(t, u.AdminRestock(ctx, 9, 1, 5, ""))
	require.NoError(t, u.AdminAdjustStock(ctx, 9, 1, -1, "破損"))

	logs, err := u.StockHistory(ctx, 1, 50)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	var nfErr *usecase.NotFoundError
	_, err = u.StockHistory(ctx, 999, 50)
	assert.ErrorAs(t, err, &nfErr)
}
