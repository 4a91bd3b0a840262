package repository

import (
	"context"

	"grocery/internal/domain/model"
)

// 注文コアからは読み取りのみ。
type UserRepository interface {
	Exists(ctx context.Context, userID int64) (bool, error)
	FindByID(ctx context.Context, userID int64) (model.User, error)
}
