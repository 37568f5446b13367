package storage

import (
	"context"
	"errors"
	"fmt"
	"statusboard/internal/board"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const (
	snapshotKey = "statusboard:snapshot"
	lockKey     = "statusboard:cycle-lock"
)

// unlockScript deletes the lock only when it still carries our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore caches the latest board and holds the cross-replica cycle lock.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr string, snapshotTTL time.Duration) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb, ttl: snapshotTTL}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// SaveSnapshot replaces the cached board.
func (s *RedisStore) SaveSnapshot(ctx context.Context, snap board.Snapshot) error {
	payload, err := sonic.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.client.Set(ctx, snapshotKey, payload, s.ttl).Err()
}

// LoadSnapshot returns the cached board; ok is false when none is cached.
func (s *RedisStore) LoadSnapshot(ctx context.Context) (board.Snapshot, bool, error) {
	payload, err := s.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return board.Snapshot{}, false, nil
	}
	if err != nil {
		return board.Snapshot{}, false, err
	}

	var snap board.Snapshot
	if err := sonic.Unmarshal(payload, &snap); err != nil {
		return board.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// TryLock takes the cycle lock for ttl. It reports false when another
// holder has it.
func (s *RedisStore) TryLock(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, lockKey, token, ttl).Result()
}

// Unlock releases the cycle lock if token still owns it.
func (s *RedisStore) Unlock(ctx context.Context, token string) error {
	return unlockScript.Run(ctx, s.client, []string{lockKey}, token).Err()
}
