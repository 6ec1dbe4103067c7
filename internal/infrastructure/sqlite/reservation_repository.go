package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/infrastructure/sqltx"
)

// overlapTrigger は重複時にトリガーが RAISE するメッセージ
const overlapTrigger = "reservations_no_overlap"

const reservationColumns = `id, room, requester, reservation_date, time_from, time_to, created_at`

type reservationRow struct {
	ID        string                `db:"id"`
	Room      string                `db:"room"`
	Requester string                `db:"requester"`
	Date      reservation.Date      `db:"reservation_date"`
	TimeFrom  reservation.TimeOfDay `db:"time_from"`
	TimeTo    reservation.TimeOfDay `db:"time_to"`
	CreatedAt time.Time             `db:"created_at"`
}

// ReservationRepository はSQLiteによる予約リポジトリ
type ReservationRepository struct {
	db    *sqlx.DB
	newID func() string
}

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db, newID: uuid.NewString}
}

// LockSlot は何もしない
// 接続が1本のため書き込みトランザクションは常に直列に実行される
func (r *ReservationRepository) LockSlot(ctx context.Context, tx transaction.Tx, key reservation.SlotKey) error {
	_, err := sqltx.UnwrapTx(tx)
	return err
}

func (r *ReservationRepository) ExistsOverlap(ctx context.Context, tx transaction.Tx, room string, date reservation.Date, from, to reservation.TimeOfDay) (bool, error) {
	sqlxTx, err := sqltx.UnwrapTx(tx)
	if err != nil {
		return false, err
	}
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reservations WHERE room = ? AND reservation_date = ? AND time_from <= ? AND time_to >= ?)`
	if err := sqlxTx.GetContext(ctx, &exists, query, room, date, to, from); err != nil {
		return false, fmt.Errorf("重複予約の確認に失敗: %w", err)
	}
	return exists, nil
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx, err := sqltx.UnwrapTx(tx)
	if err != nil {
		return err
	}
	id := r.newID()
	query := `INSERT INTO reservations (` + reservationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := sqlxTx.ExecContext(ctx, query, id, res.Room, res.Requester, res.Date, res.TimeFrom, res.TimeTo, res.CreatedAt.UTC()); err != nil {
		if strings.Contains(err.Error(), overlapTrigger) {
			return reservation.ErrConflict
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	res.ID = id
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	return r.get(ctx, r.db, id)
}

// GetByIDForUpdate は同一トランザクション内で読み出す
// SQLiteに行ロックはなく、トランザクション自体が直列化されている
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	sqlxTx, err := sqltx.UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, sqlxTx, id)
}

func (r *ReservationRepository) get(ctx context.Context, q sqlx.QueryerContext, id string) (*reservation.Reservation, error) {
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return toEntity(&row), nil
}

func (r *ReservationRepository) Delete(ctx context.Context, tx transaction.Tx, id string) error {
	sqlxTx, err := sqltx.UnwrapTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlxTx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("予約削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) FindByRoomAndDate(ctx context.Context, room string, date reservation.Date) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE room = ? AND reservation_date = ? ORDER BY time_from`
	if err := r.db.SelectContext(ctx, &rows, query, room, date); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		result[i] = toEntity(&rows[i])
	}
	return result, nil
}

func (r *ReservationRepository) DeleteElapsedBefore(ctx context.Context, tx transaction.Tx, date reservation.Date) (int, error) {
	sqlxTx, err := sqltx.UnwrapTx(tx)
	if err != nil {
		return 0, err
	}
	result, err := sqlxTx.ExecContext(ctx, `DELETE FROM reservations WHERE reservation_date < ?`, date)
	if err != nil {
		return 0, fmt.Errorf("期限切れ予約の削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

func toEntity(row *reservationRow) *reservation.Reservation {
	return &reservation.Reservation{
		ID:        row.ID,
		Room:      row.Room,
		Requester: row.Requester,
		Date:      row.Date,
		TimeFrom:  row.TimeFrom,
		TimeTo:    row.TimeTo,
		CreatedAt: row.CreatedAt,
	}
}

var _ reservation.Repository = (*ReservationRepository)(nil)
