package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Redis実装。セッションごとに1キーのJSON blobで持ち、TTLで掃除する。
// 単一ノード前提なので、read-modify-writeの直列化はプロセス内mutexで行う。
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	locks  *sessionLocks
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		locks:  newSessionLocks(),
	}
}

func (s *Redis) key(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

func (s *Redis) Get(ctx context.Context, sessionID string) (model.Cart, error) {
	m := s.locks.lock(sessionID)
	defer m.Unlock()
	return s.load(ctx, sessionID)
}

func (s *Redis) Add(ctx context.Context, sessionID string, productID int64, qty int64) (model.Cart, error) {
	m := s.locks.lock(sessionID)
	defer m.Unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return model.Cart{}, err
	}

	if i := cart.FindLine(productID); i >= 0 {
		cart.Lines[i].Quantity += qty
	} else {
		cart.Lines = append(cart.Lines, model.CartLine{ProductID: productID, Quantity: qty})
	}

	if err := s.save(ctx, sessionID, cart); err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (s *Redis) ApplyDelta(ctx context.Context, sessionID string, productID int64, delta int64) (model.Cart, error) {
	m := s.locks.lock(sessionID)
	defer m.Unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return model.Cart{}, err
	}

	i := cart.FindLine(productID)
	if i < 0 {
		return model.Cart{}, repo.ErrCartItemNotFound
	}

	cart.Lines[i].Quantity += delta
	if cart.Lines[i].Quantity <= 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	}

	if err := s.save(ctx, sessionID, cart); err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (s *Redis) SetQuantity(ctx context.Context, sessionID string, productID int64, qty int64) (model.Cart, error) {
	m := s.locks.lock(sessionID)
	defer m.Unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return model.Cart{}, err
	}

	i := cart.FindLine(productID)
	if i < 0 {
		return model.Cart{}, repo.ErrCartItemNotFound
	}

	if qty <= 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	} else {
		cart.Lines[i].Quantity = qty
	}

	if err := s.save(ctx, sessionID, cart); err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (s *Redis) Remove(ctx context.Context, sessionID string, productID int64) (model.Cart, error) {
	m := s.locks.lock(sessionID)
	defer m.Unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return model.Cart{}, err
	}

	i := cart.FindLine(productID)
	if i < 0 {
		return model.Cart{}, repo.ErrCartItemNotFound
	}
	cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)

	if err := s.save(ctx, sessionID, cart); err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (s *Redis) Clear(ctx context.Context, sessionID string) error {
	m := s.locks.lock(sessionID)
	defer m.Unlock()

	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *Redis) Snapshot(ctx context.Context, sessionID string) ([]model.CartLine, error) {
	m := s.locks.lock(sessionID)
	defer m.Unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sort.Slice(cart.Lines, func(i, j int) bool {
		return cart.Lines[i].ProductID < cart.Lines[j].ProductID
	})
	return cart.Lines, nil
}

// キーが無ければ空カート扱い。
func (s *Redis) load(ctx context.Context, sessionID string) (model.Cart, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Cart{SessionID: sessionID, Lines: []model.CartLine{}}, nil
	}
	if err != nil {
		return model.Cart{}, err
	}

	var cart model.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return model.Cart{}, err
	}
	if cart.Lines == nil {
		cart.Lines = []model.CartLine{}
	}
	cart.SessionID = sessionID
	return cart, nil
}

func (s *Redis) save(ctx context.Context, sessionID string, cart model.Cart) error {
	cart.SessionID = sessionID
	cart.UpdatedAt = time.Now()

	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err()
}
