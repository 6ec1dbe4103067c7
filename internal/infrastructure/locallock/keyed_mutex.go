// Package locallock は単一プロセス内で完結するキー単位のロックを提供する
package locallock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/lock"
)

// Manager はキーごとのミューテックスを管理する
// 異なるキー同士は互いにブロックしない
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	ch   chan struct{} // 容量1のセマフォ
	refs int
}

// NewManager は Manager を作成する
func NewManager() *Manager {
	return &Manager{entries: make(map[string]*entry)}
}

// keyedLock は取得済みのロック
// ttl はプロセス内では意味を持たないため無視する
type keyedLock struct {
	m    *Manager
	key  string
	held atomic.Bool
}

// AcquireLock はロックを1回だけ試行する
func (m *Manager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (lock.Lock, error) {
	e := m.ref(key)
	select {
	case e.ch <- struct{}{}:
		l := &keyedLock{m: m, key: key}
		l.held.Store(true)
		return l, nil
	default:
		m.unref(key)
		return nil, lock.ErrLockNotAcquired
	}
}

// AcquireLockWithRetry は解放されるまでブロックしてロックを取得する
// maxRetries が0以下なら ctx が終わるまで待ち、正の値なら maxRetries*retryDelay を待ち時間の上限とする
func (m *Manager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (lock.Lock, error) {
	var timeout <-chan time.Time
	if maxRetries > 0 {
		timer := time.NewTimer(time.Duration(maxRetries) * retryDelay)
		defer timer.Stop()
		timeout = timer.C
	}

	e := m.ref(key)
	select {
	case e.ch <- struct{}{}:
		l := &keyedLock{m: m, key: key}
		l.held.Store(true)
		return l, nil
	case <-ctx.Done():
		m.unref(key)
		return nil, ctx.Err()
	case <-timeout:
		m.unref(key)
		return nil, lock.ErrLockNotAcquired
	}
}

func (m *Manager) ref(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	return e
}

func (m *Manager) unref(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

// Release はロックを解放する（2回目以降は ErrLockNotOwned）
func (l *keyedLock) Release(ctx context.Context) error {
	if !l.held.CompareAndSwap(true, false) {
		return lock.ErrLockNotOwned
	}
	l.m.mu.Lock()
	e := l.m.entries[l.key]
	l.m.mu.Unlock()
	<-e.ch
	l.m.unref(l.key)
	return nil
}

// Extend は保持中であれば何もしない
func (l *keyedLock) Extend(ctx context.Context, ttl time.Duration) error {
	if !l.held.Load() {
		return lock.ErrLockNotOwned
	}
	return nil
}

var _ lock.Manager = (*Manager)(nil)
