package app

import (
	"context"
	"database/sql"
	"time"

	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/middleware"
	"go-leave/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// BuildApp wires the infrastructure selected by cfg into router. The
// returned cleanup closes every connection it opened.
func BuildApp(router *gin.Engine, cfg Config) (func(), error) {
	logger := zap.L().Named("app")
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := dependencies{clock: time.Now, logger: zap.L()}

	switch cfg.LeaveStore {
	case StorePostgres:
		gormDB, err := connection.ConnectGORMWithRetry(cfg.Postgres, cfg.MaxRetries)
		if err != nil {
			return cleanup, err
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return cleanup, err
		}
		closers = append(closers, func() { _ = sqlDB.Close() })
		logger.Info("database connection established")

		if err := migrate(context.Background(), gormDB, sqlDB); err != nil {
			return cleanup, err
		}
		deps.store = leave.NewRepository(gormDB)
		deps.outbox = kafka.NewOutboxRepository(sqlDB)
	default:
		logger.Warn("using in-memory leave store, data is lost on restart")
		deps.store = leave.NewMemoryStore()
	}

	if cfg.RedisAddr != "" {
		rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.MaxRetries)
		if err != nil {
			return cleanup, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		logger.Info("redis connection established")
		deps.rdb = rdb
	}

	router.Use(middleware.RateLimitByIP(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst))

	if err := registerModules(router, deps); err != nil {
		return cleanup, err
	}
	return cleanup, nil
}

func migrate(ctx context.Context, gormDB *gorm.DB, sqlDB *sql.DB) error {
	if err := leave.Migrate(ctx, gormDB); err != nil {
		return err
	}
	return kafka.Migrate(ctx, sqlDB)
}

type dependencies struct {
	store  leave.Store
	outbox kafka.OutboxRepository
	rdb    *redis.Client
	clock  leave.Clock
	logger *zap.Logger
}
