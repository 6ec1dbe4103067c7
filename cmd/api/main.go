package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-meeting-room-reservation/internal/api/handler"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/api/router"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/application"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/config"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/infrastructure/locallock"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-meeting-room-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/infrastructure/sqlite"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/infrastructure/sqltx"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/pkg/clock"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-meeting-room-reservation/internal/worker"
)

func main() {
	if err := run(); err != nil {
		logger.Fatal("起動に失敗しました", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger.Set(logger.NewLogger(cfg.App.Env))
	defer logger.Sync()

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	m := metrics.Init()

	db, repo, healthChecks, err := openStore(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []application.Option{application.WithMetrics(m)}

	if cfg.UsesRedis() {
		redisClient := redisinfra.NewClient(&cfg.Redis)
		defer redisClient.Close()

		if err := redisinfra.Ping(context.Background(), redisClient); err != nil {
			return fmt.Errorf("Redis接続に失敗しました: %w", err)
		}
		healthChecks = append(healthChecks, handler.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return redisinfra.Ping(ctx, redisClient) },
		})
		opts = append(opts, redisOptions(cfg, redisClient)...)
	}

	switch cfg.Lock.Backend {
	case config.LockBackendLocal:
		opts = append(opts, application.WithSlotLock(locallock.NewManager(), lockOptions(&cfg.Lock)))
	case config.LockBackendNone:
		logger.Warn("予約枠ロックは無効です。重複防止はデータベースのみで行います")
	}

	publisher, err := newPublisher(&cfg.Broker)
	if err != nil {
		return err
	}
	defer publisher.Close()
	opts = append(opts, application.WithEventPublisher(publisher))

	service := application.NewReservationService(repo, sqltx.NewTxManager(db), clock.NewSystem(loc), opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Worker.RetentionDays > 0 {
		purger := worker.NewElapsedReservationPurger(service, cfg.Worker.PurgeInterval, cfg.Worker.RetentionDays)
		go purger.Start(ctx)
		defer purger.Stop()
	}

	e := router.New(router.Options{
		Reservations: service,
		HealthChecks: healthChecks,
		Metrics:      m,
		MetricsAuth:  middleware.LoadMetricsConfig(),
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	errCh := make(chan error, 1)
	go func() {
		logger.Info("サーバーを起動します",
			zap.String("port", cfg.Server.Port),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("lock_backend", cfg.Lock.Backend),
		)
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("サーバー起動エラー: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("サーバーをシャットダウンしています...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーシャットダウンエラー: %w", err)
	}

	logger.Info("サーバーが正常にシャットダウンしました")
	return nil
}

// openStore は DB_DRIVER に応じたデータストアとリポジトリを用意する
func openStore(cfg *config.DatabaseConfig) (*sqlx.DB, reservation.Repository, []handler.HealthCheck, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		check := handler.HealthCheck{
			Name: "database",
			Ping: func(ctx context.Context) error { return sqlite.Ping(ctx, db) },
		}
		return db, sqlite.NewReservationRepository(db), []handler.HealthCheck{check}, nil
	default:
		db, err := postgres.NewConnection(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.RunMigrations(db.DB, cfg.MigrationsPath); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		check := handler.HealthCheck{
			Name: "database",
			Ping: func(ctx context.Context) error { return postgres.Ping(ctx, db) },
		}
		return db, postgres.NewReservationRepository(db), []handler.HealthCheck{check}, nil
	}
}

func redisOptions(cfg *config.Config, client *goredis.Client) []application.Option {
	var opts []application.Option
	if cfg.Lock.Backend == config.LockBackendRedis {
		opts = append(opts, application.WithSlotLock(redisinfra.NewLockManager(client), lockOptions(&cfg.Lock)))
	}
	if cfg.Cache.Enabled {
		opts = append(opts, application.WithScheduleCache(redisinfra.NewScheduleCache(client, cfg.Cache.TTL)))
	}
	return opts
}

func lockOptions(cfg *config.LockConfig) application.LockOptions {
	return application.LockOptions{
		TTL:        cfg.TTL,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}
}

type eventPublisher interface {
	application.EventPublisher
	io.Closer
}

func newPublisher(cfg *config.BrokerConfig) (eventPublisher, error) {
	if !cfg.Enabled() {
		return rabbitmq.NopPublisher{}, nil
	}
	p, err := rabbitmq.NewPublisher(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗しました: %w", err)
	}
	return p, nil
}
