// Package sqltx は sqlx のトランザクションを transaction.Tx として扱うためのアダプタ
package sqltx

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/transaction"
)

// ErrUnsupportedTx は sqltx 以外で開始されたトランザクションを渡されたことを表す
var ErrUnsupportedTx = errors.New("sqlxトランザクションではありません")

// TxWrapper は sqlx.Tx を transaction.Tx インターフェースでラップする
type TxWrapper struct {
	*sqlx.Tx
}

// Commit はトランザクションをコミットする
func (t *TxWrapper) Commit() error {
	return translate(t.Tx.Commit())
}

// Rollback はトランザクションをロールバックする
func (t *TxWrapper) Rollback() error {
	return translate(t.Tx.Rollback())
}

func translate(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return transaction.ErrTxDone
	}
	return err
}

// TxManager は sqlx.DB を使用したトランザクションマネージャー
type TxManager struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

// NewTxManager は新しい TxManager を作成する
func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// NewTxManagerWithOptions は分離レベル等を指定した TxManager を作成する
func NewTxManagerWithOptions(db *sqlx.DB, opts *sql.TxOptions) *TxManager {
	return &TxManager{db: db, opts: opts}
}

// Begin は新しいトランザクションを開始する
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	tx, err := m.db.BeginTxx(ctx, m.opts)
	if err != nil {
		return nil, err
	}
	return &TxWrapper{Tx: tx}, nil
}

// UnwrapTx は transaction.Tx から sqlx.Tx を取り出す
// リポジトリ実装で使用する
func UnwrapTx(tx transaction.Tx) (*sqlx.Tx, error) {
	if wrapper, ok := tx.(*TxWrapper); ok && wrapper.Tx != nil {
		return wrapper.Tx, nil
	}
	return nil, ErrUnsupportedTx
}

var _ transaction.Manager = (*TxManager)(nil)
