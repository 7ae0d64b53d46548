package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRepository(t *testing.T) (*RedisSnapshotRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisSnapshotRepository(rdb, time.Hour), mr
}

func TestRedisSnapshotRepository_SaveAndLoad(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Save(ctx, "cid", Snapshot{Version: snapshotVersion, IsAuthenticated: true}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	snap, err := repo.Load(ctx, "cid")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if snap == nil || !snap.IsAuthenticated {
		t.Errorf("expected the stored hint, got %+v", snap)
	}
}

func TestRedisSnapshotRepository_AbsentKeyIsNotAnError(t *testing.T) {
	repo, _ := newTestRepository(t)

	snap, err := repo.Load(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("an absent key must not error, got: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot for an absent key, got %+v", snap)
	}
}

func TestRedisSnapshotRepository_UnknownVersionReadsAsAbsent(t *testing.T) {
	repo, mr := newTestRepository(t)

	mr.Set(snapshotKeyPrefix+"cid", `{"version":99,"is_authenticated":true}`)

	snap, err := repo.Load(context.Background(), "cid")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if snap != nil {
		t.Errorf("an unknown schema version must read as no hint, got %+v", snap)
	}
}

func TestRedisSnapshotRepository_GarbageReadsAsAbsent(t *testing.T) {
	repo, mr := newTestRepository(t)

	mr.Set(snapshotKeyPrefix+"cid", "not json")

	snap, err := repo.Load(context.Background(), "cid")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if snap != nil {
		t.Errorf("an unreadable blob must read as no hint, got %+v", snap)
	}
}

func TestRedisSnapshotRepository_SaveSetsTTL(t *testing.T) {
	repo, mr := newTestRepository(t)

	if err := repo.Save(context.Background(), "cid", Snapshot{Version: snapshotVersion}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if ttl := mr.TTL(snapshotKeyPrefix + "cid"); ttl != time.Hour {
		t.Errorf("expected TTL of 1h, got %v", ttl)
	}
}
