package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/lock"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/transaction"
)

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockReservationRepository implements reservation.Repository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) LockSlot(ctx context.Context, tx transaction.Tx, key reservation.SlotKey) error {
	args := m.Called(ctx, tx, key)
	return args.Error(0)
}

func (m *MockReservationRepository) ExistsOverlap(ctx context.Context, tx transaction.Tx, room string, date reservation.Date, from, to reservation.TimeOfDay) (bool, error) {
	args := m.Called(ctx, tx, room, date, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepository) Create(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) Delete(ctx context.Context, tx transaction.Tx, id string) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockReservationRepository) FindByRoomAndDate(ctx context.Context, room string, date reservation.Date) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, room, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) DeleteElapsedBefore(ctx context.Context, tx transaction.Tx, date reservation.Date) (int, error) {
	args := m.Called(ctx, tx, date)
	return args.Int(0), args.Error(1)
}

// MockLockManager implements lock.Manager
type MockLockManager struct {
	mock.Mock
}

func (m *MockLockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (lock.Lock, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(lock.Lock), args.Error(1)
}

func (m *MockLockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (lock.Lock, error) {
	args := m.Called(ctx, key, ttl, maxRetries, retryDelay)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(lock.Lock), args.Error(1)
}

// MockLock implements lock.Lock
type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockLock) Extend(ctx context.Context, ttl time.Duration) error {
	args := m.Called(ctx, ttl)
	return args.Error(0)
}

// MockScheduleCache implements ScheduleCache
type MockScheduleCache struct {
	mock.Mock
}

func (m *MockScheduleCache) Get(ctx context.Context, key reservation.SlotKey) ([]*reservation.Reservation, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]*reservation.Reservation), args.Bool(1), args.Error(2)
}

func (m *MockScheduleCache) Set(ctx context.Context, key reservation.SlotKey, reservations []*reservation.Reservation) error {
	args := m.Called(ctx, key, reservations)
	return args.Error(0)
}

func (m *MockScheduleCache) Invalidate(ctx context.Context, key reservation.SlotKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockEventPublisher implements EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event reservation.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
