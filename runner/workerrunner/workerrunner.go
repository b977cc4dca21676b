// Package workerrunner runs the background task worker.
package workerrunner

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/qmarkhq/qmark/postgres"
	"github.com/qmarkhq/qmark/redis"
	"github.com/qmarkhq/qmark/redis/tasks"
	"github.com/qmarkhq/qmark/runner"
)

type workerrunner struct {
	logger *zap.Logger
	db     *sql.DB
	srv    *redis.Server
	mux    *asynq.ServeMux
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.Dsn == "" {
		return nil, errors.New("database connection string is required (set DATABASE_URL or -dsn)")
	}

	if cfg.RedisAddr == "" {
		return nil, errors.New("REDIS_ADDR is required in worker mode")
	}

	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	db, err := postgres.Open(context.Background(), cfg.Dsn)
	if err != nil {
		return nil, err
	}

	handler := tasks.NewHandler(
		postgres.NewAutomationRepository(db),
		postgres.NewActivityRepository(db),
		logger.Named("tasks"),
	)

	mux := asynq.NewServeMux()
	handler.Register(mux)

	return &workerrunner{
		logger: logger,
		db:     db,
		srv:    redis.NewServer(cfg.RedisAddr, cfg.RedisPassword, cfg.Workers, logger.Named("worker")),
		mux:    mux,
	}, nil
}

func (w *workerrunner) Run(ctx context.Context) error {
	return w.srv.Run(ctx, w.mux)
}

func (w *workerrunner) Close(context.Context) error {
	_ = w.logger.Sync()

	return w.db.Close()
}
