// Package migraterunner applies database migrations and exits.
package migraterunner

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/qmarkhq/qmark/postgres"
	"github.com/qmarkhq/qmark/runner"
)

type migraterunner struct {
	logger *zap.Logger
	mr     *postgres.MigrationRunner
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.Dsn == "" {
		return nil, errors.New("database connection string is required (set DATABASE_URL or -dsn)")
	}

	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	return &migraterunner{
		logger: logger,
		mr:     postgres.NewMigrationRunner(cfg.Dsn, logger.Named("migrate")),
	}, nil
}

func (m *migraterunner) Run(context.Context) error {
	return m.mr.RunMigrations()
}

func (m *migraterunner) Close(context.Context) error {
	_ = m.logger.Sync()

	return nil
}
