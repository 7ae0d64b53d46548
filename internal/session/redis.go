package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// snapshotKeyPrefix is the Redis key prefix for persisted client snapshots.
const snapshotKeyPrefix = "client_state:"

// RedisSnapshotRepository stores snapshots in Redis with a TTL so the
// signed-in hint of an abandoned browser eventually disappears on its own.
type RedisSnapshotRepository struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisSnapshotRepository creates a repository on the given Redis client.
func NewRedisSnapshotRepository(rdb *redis.Client, ttl time.Duration) *RedisSnapshotRepository {
	return &RedisSnapshotRepository{redis: rdb, ttl: ttl}
}

// Load returns the stored snapshot for the client, or (nil, nil) when the
// key is absent or the blob has an unknown schema version. An unreadable
// hint is the same as no hint: the client is treated as signed out.
func (r *RedisSnapshotRepository) Load(ctx context.Context, clientID string) (*Snapshot, error) {
	data, err := r.redis.Get(ctx, snapshotKeyPrefix+clientID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading client snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil
	}
	if snap.Version != snapshotVersion {
		return nil, nil
	}
	return &snap, nil
}

// Save stores the snapshot with the configured TTL. Saving also refreshes
// the TTL, so active clients keep their hint alive.
func (r *RedisSnapshotRepository) Save(ctx context.Context, clientID string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding client snapshot: %w", err)
	}
	if err := r.redis.Set(ctx, snapshotKeyPrefix+clientID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("saving client snapshot: %w", err)
	}
	return nil
}
