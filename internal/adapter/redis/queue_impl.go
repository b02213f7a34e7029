package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/repository"
)

const runQueueKey = "harvester:queue"

// QueueRepoImpl provides a concrete implementation for the RunQueueRepository interface using Redis Lists.
type QueueRepoImpl struct {
	client *redis.Client
}

// NewQueueRepo creates a new instance of QueueRepoImpl.
func NewQueueRepo(client *redis.Client) *QueueRepoImpl {
	return &QueueRepoImpl{client: client}
}

// Push adds a request to the left side of the Redis list (acting as a queue).
func (r *QueueRepoImpl) Push(ctx context.Context, req entity.RunRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return r.client.LPush(ctx, runQueueKey, payload).Err()
}

// Pop removes and returns a request from the right side of the Redis list.
func (r *QueueRepoImpl) Pop(ctx context.Context) (*entity.RunRequest, error) {
	payload, err := r.client.RPop(ctx, runQueueKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var req entity.RunRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("malformed queue entry: %w", err)
	}
	return &req, nil
}

// Size returns the current number of items in the queue.
func (r *QueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, runQueueKey).Result()
}
