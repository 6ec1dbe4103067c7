package reservation

import (
	"context"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
// ビジネスルールは持たず、単純なキー付きストアとして扱う
type Repository interface {
	// LockSlot は (会議室, 日付) 単位でトランザクションを直列化する（トランザクション必須）
	LockSlot(ctx context.Context, tx transaction.Tx, key SlotKey) error

	// ExistsOverlap は [from, to] と重なる予約が存在するかを返す（トランザクション必須）
	ExistsOverlap(ctx context.Context, tx transaction.Tx, room string, date Date, from, to TimeOfDay) (bool, error)

	// Create は新しい予約を作成しIDを採番する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// GetByIDForUpdate はIDから予約を取得し、行をロックする（トランザクション必須）
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Reservation, error)

	// Delete は予約を削除する（トランザクション必須）
	Delete(ctx context.Context, tx transaction.Tx, id string) error

	// FindByRoomAndDate は会議室と日付から予約一覧を開始時刻順で取得する
	FindByRoomAndDate(ctx context.Context, room string, date Date) ([]*Reservation, error)

	// DeleteElapsedBefore は指定日より前の予約を削除し、削除件数を返す（トランザクション必須）
	DeleteElapsedBefore(ctx context.Context, tx transaction.Tx, date Date) (int, error)
}
