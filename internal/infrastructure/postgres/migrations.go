package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/pkg/logger"
)

// migrationsTable は適用済みバージョンを記録するテーブル
const migrationsTable = "reservation_schema_migrations"

// RunMigrations は migrationsPath 配下のマイグレーションを最新まで適用する
// dirty 状態（前回の適用が途中で失敗）の場合は手動での復旧が必要なためエラーを返す
func RunMigrations(db *sql.DB, migrationsPath string) error {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("マイグレーションドライバー作成エラー: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("マイグレーションインスタンス作成エラー: %w", err)
	}

	if version, dirty, err := m.Version(); err == nil && dirty {
		return fmt.Errorf("スキーマがdirty状態です（version=%d）", version)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug("マイグレーションは最新です")
	case err != nil:
		return fmt.Errorf("マイグレーション実行エラー: %w", err)
	default:
		version, _, _ := m.Version()
		logger.Info("マイグレーションを適用しました", zap.Uint("version", version))
	}
	return nil
}
