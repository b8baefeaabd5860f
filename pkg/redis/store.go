package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the small key/value surface shared by rate limiting and the
// schema-ready flag.
type Store interface {
	SetFlag(ctx context.Context, key string, ttl time.Duration) error
	HasFlag(ctx context.Context, key string) (bool, error)
	// Incr bumps a fixed-window counter and returns the new count and the
	// time the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}

// NewStore returns a Redis-backed store that degrades to mem on Redis
// errors, or mem itself when client is nil.
func NewStore(client *redis.Client, mem *MemoryStore, log *slog.Logger) Store {
	if client == nil {
		return mem
	}
	return &fallbackStore{primary: &RedisStore{client: client}, fallback: mem, log: log}
}

// KEYS[1] = counter key, ARGV[1] = TTL in seconds. Returns {count, ttl}.
const incrScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, key, "1", ttl).Err()
}

func (s *RedisStore) HasFlag(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	result, err := s.client.Eval(ctx, incrScript, []string{key}, int(window.Seconds())).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis incr eval failed: %w", err)
	}
	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}
	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)
	return int(count), time.Now().Add(time.Duration(ttl) * time.Second), nil
}

type memEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Expired entries are dropped lazily
// and by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memEntry), now: time.Now}
}

func (s *MemoryStore) SetFlag(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &memEntry{count: 1, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) HasFlag(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = &memEntry{expiresAt: now.Add(window)}
		s.entries[key] = e
	}
	e.count++
	return e.count, e.expiresAt, nil
}

// Sweep removes expired entries.
func (s *MemoryStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

type fallbackStore struct {
	primary  Store
	fallback Store
	log      *slog.Logger
}

func (s *fallbackStore) SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.primary.SetFlag(ctx, key, ttl); err != nil {
		s.log.Warn("redis unavailable, using memory store", "op", "set_flag", "error", err)
		return s.fallback.SetFlag(ctx, key, ttl)
	}
	return nil
}

func (s *fallbackStore) HasFlag(ctx context.Context, key string) (bool, error) {
	ok, err := s.primary.HasFlag(ctx, key)
	if err != nil {
		s.log.Warn("redis unavailable, using memory store", "op", "has_flag", "error", err)
		return s.fallback.HasFlag(ctx, key)
	}
	return ok, nil
}

func (s *fallbackStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	count, resetAt, err := s.primary.Incr(ctx, key, window)
	if err != nil {
		s.log.Warn("redis unavailable, using memory store", "op", "incr", "error", err)
		return s.fallback.Incr(ctx, key, window)
	}
	return count, resetAt, nil
}
