package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

// =====================
// インメモリのTxRepos fake。
// WithinTxはDB全体のスナップショットを取り、fnがerrorを返したら巻き戻す。
// トランザクション自体をmutexで直列化するので、行ロックと同じ
// 「同時チェックアウトが順番に見える」性質がそのまま再現される。
// =====================

type fakeDB struct {
	mu sync.Mutex

	users      map[int64]model.User
	products   map[int64]model.Product
	orders     map[int64]model.Order
	orderItems map[int64][]model.OrderItem
	invLogs    []model.InventoryLog
	history    []model.OrderHistory

	nextOrderID       int64
	lowStockThreshold int64
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:       map[int64]model.User{},
		products:    map[int64]model.Product{},
		orders:      map[int64]model.Order{},
		orderItems:  map[int64][]model.OrderItem{},
		nextOrderID: 1,
	}
}

func (db *fakeDB) addUser(id int64) {
	db.users[id] = model.User{ID: id, Email: fmt.Sprintf("user%d@example.com", id), IsActive: true}
}

func (db *fakeDB) addProduct(p model.Product) {
	db.products[p.ID] = p
}

// スナップショット（deep copy）
func (db *fakeDB) snapshot() *fakeDB {
	s := newFakeDB()
	for k, v := range db.users {
		s.users[k] = v
	}
	for k, v := range db.products {
		s.products[k] = v
	}
	for k, v := range db.orders {
		s.orders[k] = v
	}
	for k, v := range db.orderItems {
		items := make([]model.OrderItem, len(v))
		copy(items, v)
		s.orderItems[k] = items
	}
	s.invLogs = make([]model.InventoryLog, len(db.invLogs))
	copy(s.invLogs, db.invLogs)
	s.history = make([]model.OrderHistory, len(db.history))
	copy(s.history, db.history)
	s.nextOrderID = db.nextOrderID
	s.lowStockThreshold = db.lowStockThreshold
	return s
}

func (db *fakeDB) restore(s *fakeDB) {
	db.users = s.users
	db.products = s.products
	db.orders = s.orders
	db.orderItems = s.orderItems
	db.invLogs = s.invLogs
	db.history = s.history
	db.nextOrderID = s.nextOrderID
}

type fakeTxManager struct {
	db *fakeDB
}

func (tm *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	tm.db.mu.Lock()
	defer tm.db.mu.Unlock()

	snap := tm.db.snapshot()
	err := fn(&fakeTxRepos{db: tm.db})
	if err != nil {
		//全部成功か全部失敗
		tm.db.restore(snap)
		return err
	}
	return nil
}

type fakeTxRepos struct {
	db *fakeDB
}

func (r *fakeTxRepos) Orders() repo.OrderRepository              { return &fakeOrderRepo{db: r.db} }
func (r *fakeTxRepos) OrderItems() repo.OrderItemRepository      { return &fakeOrderItemRepo{db: r.db} }
func (r *fakeTxRepos) OrderHistory() repo.OrderHistoryRepository { return &fakeHistoryRepo{db: r.db} }
func (r *fakeTxRepos) Inventory() repo.InventoryRepository       { return &fakeInventoryRepo{db: r.db} }
func (r *fakeTxRepos) Products() repo.ProductRepository          { return &fakeProductRepo{db: r.db} }
func (r *fakeTxRepos) Users() repo.UserRepository                { return &fakeUserRepo{db: r.db} }

// ----- orders -----

type fakeOrderRepo struct{ db *fakeDB }

func (f *fakeOrderRepo) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := f.db.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	//トランザクション全体が直列化されているのでロックは不要
	return f.FindByID(ctx, orderID)
}

func (f *fakeOrderRepo) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range f.db.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepo) Create(ctx context.Context, order model.Order) (int64, error) {
	order.ID = f.db.nextOrderID
	f.db.nextOrderID++
	order.CreatedAt = time.Now()
	f.db.orders[order.ID] = order
	return order.ID, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	o, ok := f.db.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	f.db.orders[orderID] = o
	return nil
}

func (f *fakeOrderRepo) ListAdmin(ctx context.Context, flt repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range f.db.orders {
		if flt.Status != "" && string(o.Status) != flt.Status {
			continue
		}
		if flt.UserID != nil && o.UserID != *flt.UserID {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

// ----- order items -----

type fakeOrderItemRepo struct{ db *fakeDB }

func (f *fakeOrderItemRepo) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for i := range items {
		items[i].OrderID = orderID
	}
	f.db.orderItems[orderID] = append(f.db.orderItems[orderID], items...)
	return nil
}

func (f *fakeOrderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	items := f.db.orderItems[orderID]
	out := make([]model.OrderItem, len(items))
	copy(out, items)
	return out, nil
}

// ----- order history -----

type fakeHistoryRepo struct{ db *fakeDB }

func (f *fakeHistoryRepo) Create(ctx context.Context, h model.OrderHistory) error {
	h.CreatedAt = time.Now()
	f.db.history = append(f.db.history, h)
	return nil
}

func (f *fakeHistoryRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderHistory, error) {
	var out []model.OrderHistory
	for _, h := range f.db.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

// ----- inventory -----

type fakeInventoryRepo struct{ db *fakeDB }

func (f *fakeInventoryRepo) Apply(ctx context.Context, productID int64, delta int64, event model.InventoryEvent, orderID *int64, description string) (model.InventoryLog, error) {
	p, ok := f.db.products[productID]
	if !ok {
		return model.InventoryLog{}, repo.ErrNotFound
	}

	before := p.Stock
	after := before + delta
	if event == model.InventoryEventOrder && after < 0 {
		return model.InventoryLog{}, repo.ErrNegativeStock
	}

	p.Stock = after
	f.db.products[productID] = p

	entry := model.InventoryLog{
		ProductID:      productID,
		EventType:      event,
		Quantity:       delta,
		BeforeQuantity: before,
		AfterQuantity:  after,
		OrderID:        orderID,
		Description:    description,
		CreatedAt:      time.Now(),
	}
	f.db.invLogs = append(f.db.invLogs, entry)

	if event == model.InventoryEventOrder && f.db.lowStockThreshold > 0 && after <= f.db.lowStockThreshold {
		f.db.invLogs = append(f.db.invLogs, model.InventoryLog{
			ProductID:      productID,
			EventType:      model.InventoryEventLowStock,
			BeforeQuantity: after,
			AfterQuantity:  after,
			OrderID:        orderID,
			CreatedAt:      time.Now(),
		})
	}

	return entry, nil
}

func (f *fakeInventoryRepo) ListByProductID(ctx context.Context, productID int64, limit int) ([]model.InventoryLog, error) {
	var out []model.InventoryLog
	for _, l := range f.db.invLogs {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	return out, nil
}

// ----- products -----

type fakeProductRepo struct{ db *fakeDB }

func (f *fakeProductRepo) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range f.db.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := f.db.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeProductRepo) Lookup(ctx context.Context, ids []int64) (map[int64]repo.ProductLookup, error) {
	out := make(map[int64]repo.ProductLookup, len(ids))
	for _, id := range ids {
		p, ok := f.db.products[id]
		if !ok {
			out[id] = repo.ProductLookup{}
			continue
		}
		out[id] = repo.ProductLookup{
			Exists:   true,
			IsActive: p.IsActive,
			Name:     p.Name,
			Price:    p.Price,
			Stock:    p.Stock,
		}
	}
	return out, nil
}

func (f *fakeProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	f.db.products[p.ID] = p
	return p, nil
}

// ----- users -----

type fakeUserRepo struct{ db *fakeDB }

func (f *fakeUserRepo) Exists(ctx context.Context, userID int64) (bool, error) {
	_, ok := f.db.users[userID]
	return ok, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, userID int64) (model.User, error) {
	u, ok := f.db.users[userID]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	return u, nil
}
