package lock

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// Lock は取得済みのロックを表す
type Lock interface {
	// Release はロックを解放する
	Release(ctx context.Context) error
	// Extend はロックの有効期限を延長する
	Extend(ctx context.Context, ttl time.Duration) error
}

// Manager はキー単位の排他ロックを管理するインターフェース
// Redisによる分散ロックとプロセス内ロックの実装がある
type Manager interface {
	// AcquireLock はロックを1回だけ試行する（取得できなければ ErrLockNotAcquired）
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (Lock, error)
	// AcquireLockWithRetry はリトライ付きでロックを取得する
	// maxRetries が0以下の場合は ctx が終わるまで待ち続ける
	AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (Lock, error)
}
