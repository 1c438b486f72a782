package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
	"github.com/accessinsight/accessinsight/modules/governance/infrastructure/persistence/models"
)

// RedisSnapshotRepository caches the workspace blob under one key with
// a TTL. A TTL of zero stores it without expiry.
type RedisSnapshotRepository struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisSnapshotRepository(client *redis.Client, workspaceID string, ttl time.Duration) *RedisSnapshotRepository {
	return &RedisSnapshotRepository{
		client: client,
		key:    "workspace:" + workspaceID,
		ttl:    ttl,
	}
}

func (r *RedisSnapshotRepository) Load(ctx context.Context) (snapshot.Snapshot, bool, error) {
	data, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return snapshot.Empty(), false, nil
	}
	if err != nil {
		return snapshot.Empty(), false, errors.Wrap(err, "load cached workspace")
	}

	var w models.Workspace
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return snapshot.Empty(), false, errors.Wrap(err, "decode cached workspace")
	}
	return ToDomain(w), true, nil
}

func (r *RedisSnapshotRepository) Save(ctx context.Context, s snapshot.Snapshot) error {
	data, err := json.Marshal(ToModel(s))
	if err != nil {
		return errors.Wrap(err, "encode workspace")
	}
	return errors.Wrap(
		r.client.Set(ctx, r.key, data, r.ttl).Err(),
		"cache workspace",
	)
}

func (r *RedisSnapshotRepository) Delete(ctx context.Context) error {
	return errors.Wrap(r.client.Del(ctx, r.key).Err(), "evict cached workspace")
}
