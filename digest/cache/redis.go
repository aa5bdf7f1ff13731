package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/theimaginaryfoundation/review-digest/digest"
)

// DefaultKeyPrefix namespaces summary keys. Give each cache discipline its own prefix.
const DefaultKeyPrefix = "review-digest:summary:"

// RedisStore keeps entries as JSON strings. Entries with an ExpiresAt also get a matching Redis
// expiry so stale summaries do not pile up; the engine still checks ExpiresAt itself.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ digest.Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisStoreWithURL connects using a redis:// URL.
func NewRedisStoreWithURL(url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts), prefix), nil
}

// WithPrefix returns a store sharing the client under another key prefix.
func (s *RedisStore) WithPrefix(prefix string) *RedisStore {
	return NewRedisStore(s.client, prefix)
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(subjectID string) string {
	return s.prefix + subjectID
}

func (s *RedisStore) Get(ctx context.Context, subjectID string) (digest.Entry, bool, error) {
	b, err := s.client.Get(ctx, s.key(subjectID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return digest.Entry{}, false, nil
	}
	if err != nil {
		return digest.Entry{}, false, err
	}
	var e digest.Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return digest.Entry{}, false, fmt.Errorf("decode cache entry %s: %w", subjectID, err)
	}
	return e, true, nil
}

func (s *RedisStore) Set(ctx context.Context, subjectID string, e digest.Entry) error {
	var ttl time.Duration
	if !e.ExpiresAt.IsZero() {
		ttl = time.Until(e.ExpiresAt)
		if ttl <= 0 {
			return s.Invalidate(ctx, subjectID)
		}
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", subjectID, err)
	}
	return s.client.Set(ctx, s.key(subjectID), b, ttl).Err()
}

func (s *RedisStore) Invalidate(ctx context.Context, subjectID string) error {
	return s.client.Del(ctx, s.key(subjectID)).Err()
}
