package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/infrastructure/sqltx"
)

const (
	// exclusion_violation: reservations_no_overlap 制約違反
	pqExclusionViolation = "23P01"
)

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

func (row *reservationRow) toEntity() *reservation.Reservation {
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

// ReservationRepository はPostgreSQLによる予約リポジトリ
type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// LockSlot はトランザクション終了まで (会議室, 日付) のアドバイザリロックを保持する
func (r *ReservationRepository) LockSlot(ctx context.Context, tx transaction.Tx, key reservation.SlotKey) error {
	sqlxTx, err := sqltx.UnwrapTx(tx)
	if err != nil {
		return err
	}
	if _, err := sqlxTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key.String()); err != nil {
		return fmt.Errorf("予約枠ロックに失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) ExistsOverlap(ctx context.Context, tx transaction.Tx, room string, date reservation.Date, from, to reservation.TimeOfDay) (bool, error) {
	sqlxTx, err := sqltx.UnwrapTx(tx)
	if err != nil {
		return false, err
	}
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM reservations WHERE room = $1 AND reservation_date = $2 AND time_from <= $3 AND time_to >= $4)`
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
	query := `INSERT INTO reservations (room, requester, reservation_date, time_from, time_to, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query, res.Room, res.Requester, res.Date, res.TimeFrom, res.TimeTo, res.CreatedAt).Scan(&res.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqExclusionViolation {
			return reservation.ErrConflict
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	if !isUUID(id) {
		return nil, reservation.ErrReservationNotFound
	}
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, notFoundOr(err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	sqlxTx, err := sqltx.UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	if !isUUID(id) {
		return nil, reservation.ErrReservationNotFound
	}
	var row reservationRow
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	if err := sqlxTx.GetContext(ctx, &row, query, id); err != nil {
		return nil, notFoundOr(err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) Delete(ctx context.Context, tx transaction.Tx, id string) error {
	sqlxTx, err := sqltx.UnwrapTx(tx)
	if err != nil {
		return err
	}
	if !isUUID(id) {
		return reservation.ErrReservationNotFound
	}
	result, err := sqlxTx.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
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
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE room = $1 AND reservation_date = $2 ORDER BY time_from`
	if err := r.db.SelectContext(ctx, &rows, query, room, date); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

func (r *ReservationRepository) DeleteElapsedBefore(ctx context.Context, tx transaction.Tx, date reservation.Date) (int, error) {
	sqlxTx, err := sqltx.UnwrapTx(tx)
	if err != nil {
		return 0, err
	}
	result, err := sqlxTx.ExecContext(ctx, `DELETE FROM reservations WHERE reservation_date < $1`, date)
	if err != nil {
		return 0, fmt.Errorf("期限切れ予約の削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// isUUID は id が uuid 列と比較可能かを返す
// 形式外のIDは存在しない予約として扱う
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFoundOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return reservation.ErrReservationNotFound
	}
	return fmt.Errorf("予約取得に失敗: %w", err)
}

var _ reservation.Repository = (*ReservationRepository)(nil)
