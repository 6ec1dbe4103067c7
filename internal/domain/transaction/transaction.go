package transaction

import (
	"context"
	"errors"
	"fmt"
)

// Tx はトランザクションを表すインターフェース
// ドメイン層がインフラ層（sqlx等）に依存しないようにするための抽象化
type Tx interface {
	Commit() error
	Rollback() error
}

// Manager はトランザクションを管理するインターフェース
type Manager interface {
	// Begin は新しいトランザクションを開始する
	Begin(ctx context.Context) (Tx, error)
}

// ErrTxDone はコミット/ロールバック済みのトランザクションを操作したことを表す
var ErrTxDone = errors.New("トランザクションは既に終了しています")

// Run は fn を1つの作業単位として実行する
// fn がエラーを返した場合はロールバックし、そのエラーをそのまま返す
// fn がパニックした場合もロールバックしてからパニックを再送出する
func Run(ctx context.Context, m Manager, fn func(tx Tx) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}
