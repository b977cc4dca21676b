// Package webrunner wires the HTTP API process.
package webrunner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/qmarkhq/qmark/oauth"
	"github.com/qmarkhq/qmark/pkg/encryption"
	"github.com/qmarkhq/qmark/postgres"
	"github.com/qmarkhq/qmark/redis"
	"github.com/qmarkhq/qmark/runner"
	"github.com/qmarkhq/qmark/web"
	"github.com/qmarkhq/qmark/web/auth"
	"github.com/qmarkhq/qmark/web/handlers"
)

type webrunner struct {
	cfg    *runner.Config
	logger *zap.Logger
	db     *sql.DB
	tasks  *redis.Client
	srv    *web.Server
}

func New(cfg *runner.Config) (runner.Runner, error) {
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	if cfg.Dsn == "" {
		return nil, errors.New("database connection string is required (set DATABASE_URL or -dsn)")
	}

	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}

	cipher, err := encryption.NewFromHex(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid ENCRYPTION_KEY: %w", err)
	}

	db, err := postgres.Open(context.Background(), cfg.Dsn)
	if err != nil {
		return nil, err
	}

	connections := postgres.NewConnectionRepository(db)
	activities := postgres.NewActivityRepository(db)

	var lease oauth.Lease
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		lease = oauth.NewRedisLease(rdb, 30*time.Second)
	}

	manager, err := oauth.NewManager(oauth.Config{
		Registry:    oauth.NewRegistry(cfg.PublicBaseURL, oauth.DefaultProviders(cfg.Credentials())),
		Cipher:      cipher,
		Connections: connections,
		Activities:  activities,
		Lease:       lease,
		StateSecret: []byte(cfg.StateSecret),
		Logger:      logger.Named("oauth"),
	})
	if err != nil {
		db.Close()

		return nil, err
	}

	var tasks *redis.Client
	if cfg.RedisAddr != "" {
		tasks = redis.NewClient(cfg.RedisAddr, cfg.RedisPassword)
	}

	deps := handlers.Dependencies{
		Logger:      logger,
		OAuth:       manager,
		Sessions:    auth.NewSessions([]byte(cfg.SessionSecret), 24*time.Hour),
		Users:       postgres.NewUserRepository(db),
		Connections: connections,
		Leads:       postgres.NewLeadRepository(db),
		Automations: postgres.NewAutomationRepository(db),
		Activities:  activities,
		Metrics:     postgres.NewMetricRepository(db),
		Tasks:       tasks,
		Environment: cfg.Environment,
		StartedAt:   time.Now(),
	}

	srv := web.NewServer(cfg.Addr, web.NewRouter(deps, cfg.AllowedOrigins), logger)

	return &webrunner{
		cfg:    cfg,
		logger: logger,
		db:     db,
		tasks:  tasks,
		srv:    srv,
	}, nil
}

func (w *webrunner) Run(ctx context.Context) error {
	return w.srv.Run(ctx)
}

func (w *webrunner) Close(context.Context) error {
	if w.tasks != nil {
		_ = w.tasks.Close()
	}

	_ = w.logger.Sync()

	return w.db.Close()
}
