package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-storefront/internal/resilience"
)

// Store persists controller snapshots between process restarts.
type Store interface {
	Load(ctx context.Context, sessionID string) (Snapshot, bool, error)
	Save(ctx context.Context, sessionID string, snap Snapshot) error
}

// RedisStore keeps snapshots as JSON strings with a TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisStore constructs a snapshot store. A non-positive ttl stores keys
// without expiry.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, prefix: "storefront:session:"}
}

func (s *RedisStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Load reads the snapshot for sessionID. It reports whether one existed.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (Snapshot, bool, error) {
	if s == nil || s.client == nil || sessionID == "" {
		return Snapshot{}, false, nil
	}
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// Save writes the snapshot and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	if s == nil || s.client == nil || sessionID == "" {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// GuardedStore short-circuits snapshot calls while the backing store keeps
// failing, so an unreachable Redis does not add latency to every request.
type GuardedStore struct {
	Store   Store
	Breaker *resilience.Breaker
}

// Load implements Store.
func (g GuardedStore) Load(ctx context.Context, sessionID string) (Snapshot, bool, error) {
	var (
		snap  Snapshot
		found bool
	)
	err := g.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		snap, found, err = g.Store.Load(ctx, sessionID)
		return err
	})
	return snap, found, err
}

// Save implements Store.
func (g GuardedStore) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	return g.Breaker.Do(ctx, func(ctx context.Context) error {
		return g.Store.Save(ctx, sessionID, snap)
	})
}
