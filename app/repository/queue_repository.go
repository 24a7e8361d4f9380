package repository

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// queueRepository implements the QueueRepository interface
type queueRepository struct {
	// operates on Redis, not on the SQL database
	client *redis.Client
}

// NewQueueRepository creates a new queue repository instance
func NewQueueRepository(client *redis.Client) QueueRepository {
	return &queueRepository{client: client}
}

// GetListLength returns the length of a Redis list, or 0 without a client
func (r *queueRepository) GetListLength(ctx context.Context, key string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	return r.client.LLen(ctx, key).Result()
}
