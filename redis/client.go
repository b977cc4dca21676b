// Package redis wraps the asynq client and server used for background work.
package redis

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// Client wraps asynq client functionality.
type Client struct {
	client *asynq.Client
}

func NewClient(addr, password string) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     addr,
			Password: password,
		}),
	}
}

// Enqueue submits a task for background processing.
func (c *Client) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	if _, err := c.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
