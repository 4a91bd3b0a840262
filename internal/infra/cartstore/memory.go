package cartstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

// メモリ実装。セッションID→カートのmapを持つだけ。
// read-modify-writeの直列化はセッションのストライプmutex、map自体の保護はmu。
// 別セッションは別ストライプに載るので、mapアクセスはmuで必ず守ること。
// 返すCartは常にコピーで、呼び出し側が書き換えても内部状態は変わらない。
type Memory struct {
	locks *sessionLocks

	mu    sync.Mutex
	carts map[string]model.Cart
}

func NewMemory() *Memory {
	return &Memory{
		locks: newSessionLocks(),
		carts: make(map[string]model.Cart),
	}
}

func (s *Memory) Get(ctx context.Context, sessionID string) (model.Cart, error) {
	m := s.locks.lock(sessionID)
	defer m.Unlock()
	return s.copyOf(sessionID), nil
}

func (s *Memory) Add(ctx context.Context, sessionID string, productID int64, qty int64) (model.Cart, error) {
	m := s.locks.lock(sessionID)
	defer m.Unlock()

	cart := s.copyOf(sessionID)
	if i := cart.FindLine(productID); i >= 0 {
		cart.Lines[i].Quantity += qty
	} else {
		cart.Lines = append(cart.Lines, model.CartLine{ProductID: productID, Quantity: qty})
	}
	s.put(sessionID, cart)
	return s.copyOf(sessionID), nil
}

func (s *Memory) ApplyDelta(ctx context.Context, sessionID string, productID int64, delta int64) (model.Cart, error) {
	m := s.locks.lock(sessionID)
	defer m.Unlock()

	cart := s.copyOf(sessionID)
	i := cart.FindLine(productID)
	if i < 0 {
		return model.Cart{}, repo.ErrCartItemNotFound
	}

	cart.Lines[i].Quantity += delta
	if cart.Lines[i].Quantity <= 0 {
		// 0以下は行ごと削除（0の行は存在させない）
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	}
	s.put(sessionID, cart)
	return s.copyOf(sessionID), nil
}

func (s *Memory) SetQuantity(ctx context.Context, sessionID string, productID int64, qty int64) (model.Cart, error) {
	m := s.locks.lock(sessionID)
	defer m.Unlock()

	cart := s.copyOf(sessionID)
	i := cart.FindLine(productID)
	if i < 0 {
		return model.Cart{}, repo.ErrCartItemNotFound
	}

	if qty <= 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	} else {
		cart.Lines[i].Quantity = qty
	}
	s.put(sessionID, cart)
	return s.copyOf(sessionID), nil
}

func (s *Memory) Remove(ctx context.Context, sessionID string, productID int64) (model.Cart, error) {
	m := s.locks.lock(sessionID)
	defer m.Unlock()

	cart := s.copyOf(sessionID)
	i := cart.FindLine(productID)
	if i < 0 {
		return model.Cart{}, repo.ErrCartItemNotFound
	}
	cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	s.put(sessionID, cart)
	return s.copyOf(sessionID), nil
}

func (s *Memory) Clear(ctx context.Context, sessionID string) error {
	m := s.locks.lock(sessionID)
	defer m.Unlock()

	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *Memory) Snapshot(ctx context.Context, sessionID string) ([]model.CartLine, error) {
	m := s.locks.lock(sessionID)
	defer m.Unlock()

	cart := s.copyOf(sessionID)
	sort.Slice(cart.Lines, func(i, j int) bool {
		return cart.Lines[i].ProductID < cart.Lines[j].ProductID
	})
	return cart.Lines, nil
}

// 内部mapから独立したコピーを返す。無ければ空カート。
func (s *Memory) copyOf(sessionID string) model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[sessionID]
	if !ok {
		return model.Cart{SessionID: sessionID, Lines: []model.CartLine{}}
	}
	lines := make([]model.CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return model.Cart{SessionID: c.SessionID, Lines: lines, UpdatedAt: c.UpdatedAt}
}

func (s *Memory) put(sessionID string, cart model.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart.SessionID = sessionID
	cart.UpdatedAt = time.Now()
	s.carts[sessionID] = cart
}
