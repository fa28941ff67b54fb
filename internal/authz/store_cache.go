package authz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "authz:subject:"

// CachedStore is a read-through Redis cache in front of a SubjectStore.
// Cache failures degrade to the underlying store; they never turn into
// a spurious deny. Put writes through and invalidates, so permission
// changes take effect on the next request.
type CachedStore struct {
	next   SubjectStore
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewCachedStore wraps next with a Redis cache.
func NewCachedStore(next SubjectStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{next: next, client: client, ttl: ttl, logger: logger}
}

// Get returns the cached record when present, otherwise reads through.
func (s *CachedStore) Get(ctx context.Context, subjectID string) (SubjectRecord, error) {
	key := cacheKeyPrefix + subjectID
	payload, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var record SubjectRecord
		if err := json.Unmarshal(payload, &record); err == nil {
			return record, nil
		}
		// Corrupt entry: fall through to the store and rewrite.
		s.logger.Warn("authz: dropping corrupt cache entry", slog.String("subject", subjectID))
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("authz: subject cache read failed", slog.Any("error", err))
	}

	// Concurrent misses for the same subject collapse into one store read.
	v, err, _ := s.group.Do(key, func() (any, error) {
		record, err := s.next.Get(ctx, subjectID)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(record); err == nil {
			if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.logger.Warn("authz: subject cache write failed", slog.Any("error", err))
			}
		}
		return record, nil
	})
	if err != nil {
		return SubjectRecord{}, err
	}
	return v.(SubjectRecord), nil
}

// Put writes through to the underlying store and invalidates the cached
// entry.
func (s *CachedStore) Put(ctx context.Context, record SubjectRecord) error {
	if err := s.next.Put(ctx, record); err != nil {
		return err
	}
	if err := s.client.Del(ctx, cacheKeyPrefix+record.SubjectID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("authz: invalidate subject cache: %w", err)
	}
	return nil
}
