package e2e

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/api/handler"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/api/router"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/application"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-meeting-room-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/infrastructure/sqlite"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/infrastructure/sqltx"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/pkg/clock"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/pkg/metrics"
)

// E2Eテストの「今日」
var testNow = time.Date(2030, time.January, 15, 9, 0, 0, 0, time.UTC)

var (
	testServer  *TestServer
	testDB      *sqlx.DB
	redisServer *miniredis.Miniredis
	testClock   *clock.Fixed
)

// TestMain はE2Eテストのエントリポイント
// SQLiteとminiredisでサーバーをプロセス内に1回だけ組み立てる
func TestMain(m *testing.M) {
	os.Exit(runTests(m))
}

func runTests(m *testing.M) int {
	dir, err := os.MkdirTemp("", "reservation-e2e-")
	if err != nil {
		fmt.Fprintln(os.Stderr, "一時ディレクトリ作成エラー:", err)
		return 1
	}
	defer os.RemoveAll(dir)

	db, err := sqlite.Open(filepath.Join(dir, "reservations.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "DB接続エラー:", err)
		return 1
	}
	defer db.Close()
	testDB = db

	mr, err := miniredis.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "miniredis起動エラー:", err)
		return 1
	}
	defer mr.Close()
	redisServer = mr

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	testClock = clock.NewFixed(testNow)
	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewWithRegistry(reg)

	service := application.NewReservationService(
		sqlite.NewReservationRepository(db),
		sqltx.NewTxManager(db),
		testClock,
		application.WithSlotLock(redisinfra.NewLockManager(redisClient), application.DefaultLockOptions),
		application.WithScheduleCache(redisinfra.NewScheduleCache(redisClient, time.Minute)),
		application.WithEventPublisher(rabbitmq.NopPublisher{}),
		application.WithMetrics(appMetrics),
	)

	e := router.New(router.Options{
		Reservations: service,
		HealthChecks: []handler.HealthCheck{
			{Name: "database", Ping: func(ctx context.Context) error { return sqlite.Ping(ctx, db) }},
			{Name: "redis", Ping: func(ctx context.Context) error { return redisinfra.Ping(ctx, redisClient) }},
		},
		Metrics:  appMetrics,
		Gatherer: reg,
	})

	testServer = &TestServer{Echo: e}
	return m.Run()
}

// getTestServer は共有サーバーを取得（データと時刻を初期状態に戻す）
func getTestServer(t *testing.T) *TestServer {
	t.Helper()
	if testServer == nil {
		t.Skip("テスト環境が利用できません")
	}
	_, err := testDB.Exec("DELETE FROM reservations")
	if err != nil {
		t.Fatalf("テーブルのクリーンアップに失敗: %v", err)
	}
	redisServer.FlushAll()
	testClock.Set(testNow)
	return testServer
}
