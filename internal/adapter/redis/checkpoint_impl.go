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

const checkpointPrefix = "checkpoint:"

// CheckpointRepoImpl provides a concrete implementation for the CheckpointRepository interface using Redis.
// The newest document of each source is kept as a JSON string without expiry.
type CheckpointRepoImpl struct {
	client *redis.Client
}

// NewCheckpointRepo creates a new instance of CheckpointRepoImpl.
func NewCheckpointRepo(client *redis.Client) *CheckpointRepoImpl {
	return &CheckpointRepoImpl{client: client}
}

func (r *CheckpointRepoImpl) generateKey(source string) string {
	return checkpointPrefix + source
}

// LastKnown returns the checkpointed document of source.
func (r *CheckpointRepoImpl) LastKnown(ctx context.Context, source string) (*entity.Document, error) {
	payload, err := r.client.Get(ctx, r.generateKey(source)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc entity.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("malformed checkpoint for %s: %w", source, err)
	}
	return &doc, nil
}

// SaveLastKnown replaces the checkpoint of source.
func (r *CheckpointRepoImpl) SaveLastKnown(ctx context.Context, source string, doc *entity.Document) error {
	if doc == nil {
		return fmt.Errorf("nil checkpoint for %s", source)
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.generateKey(source), payload, 0).Err()
}
