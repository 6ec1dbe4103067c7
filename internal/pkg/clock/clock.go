package clock

import (
	"sync"
	"time"
)

// Clock は現在時刻を返すインターフェース
// 「今日」の判定をテストから差し替えられるようにするための抽象化
type Clock interface {
	Now() time.Time
}

// System は実時間を返すClock
type System struct {
	Location *time.Location
}

// NewSystem は指定タイムゾーンで時刻を返すClockを作成する（nilの場合はLocal）
func NewSystem(loc *time.Location) System {
	if loc == nil {
		loc = time.Local
	}
	return System{Location: loc}
}

// Now は現在時刻を返す
func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Fixed はテスト用の固定時刻Clock
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFixed は固定時刻Clockを作成する
func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Set は時刻を変更する
func (f *Fixed) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

// Advance は時刻を進める
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
