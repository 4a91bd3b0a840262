package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
)

// IsRetryable はトランザクション全体をやり直せば成功し得るエラーか。
// デッドロック検出・直列化失敗はロールバック後の再実行が呼び出し側の方針。
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgCodeSerializationFailure || pgErr.Code == pgCodeDeadlockDetected
}
