package redis

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Server wraps the asynq worker server.
type Server struct {
	server *asynq.Server
	logger *zap.Logger
}

func NewServer(addr, password string, concurrency int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	if concurrency <= 0 {
		concurrency = 10
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:         addr,
			Password:     password,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		asynq.Config{
			Concurrency: concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", zap.String("type", task.Type()), zap.Error(err))
			}),
		},
	)

	return &Server{server: srv, logger: logger}
}

// Run registers the mux and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context, mux *asynq.ServeMux) error {
	if err := s.server.Start(mux); err != nil {
		return err
	}

	<-ctx.Done()

	s.logger.Info("shutting down worker")
	s.server.Shutdown()

	return nil
}
