package authz

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	mu      sync.Mutex
	records map[string]SubjectRecord
	gets    int
}

func (s *countingStore) Get(_ context.Context, subjectID string) (SubjectRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	record, ok := s.records[subjectID]
	if !ok {
		return SubjectRecord{}, ErrSubjectNotFound
	}
	return record, nil
}

func (s *countingStore) Put(_ context.Context, record SubjectRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		s.records = make(map[string]SubjectRecord)
	}
	s.records[record.SubjectID] = record
	return nil
}

func (s *countingStore) getCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func newCacheFixture(t *testing.T, records ...SubjectRecord) (*CachedStore, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := &countingStore{records: make(map[string]SubjectRecord)}
	for _, r := range records {
		inner.records[r.SubjectID] = r
	}
	return NewCachedStore(inner, client, time.Minute, nil), inner, mr
}

func TestCachedStoreReadThrough(t *testing.T) {
	store, inner, _ := newCacheFixture(t, SubjectRecord{SubjectID: "u1", Role: RoleLawyer})
	ctx := context.Background()

	first, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, RoleLawyer, first.Role)
	require.Equal(t, 1, inner.getCount())

	second, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, first.Role, second.Role)
	require.Equal(t, 1, inner.getCount(), "second read must hit the cache")
}

func TestCachedStoreMissPropagatesNotFound(t *testing.T) {
	store, _, _ := newCacheFixture(t)
	_, err := store.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestCachedStorePutInvalidates(t *testing.T) {
	store, inner, _ := newCacheFixture(t, SubjectRecord{SubjectID: "u1", Role: RoleClient})
	ctx := context.Background()

	_, err := store.Get(ctx, "u1")
	require.NoError(t, err)

	err = store.Put(ctx, SubjectRecord{SubjectID: "u1", Role: RoleLawyer})
	require.NoError(t, err)

	record, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, RoleLawyer, record.Role)
	require.Equal(t, 2, inner.getCount(), "put must invalidate the cached entry")
}

func TestCachedStoreCorruptEntryFallsThrough(t *testing.T) {
	store, inner, mr := newCacheFixture(t, SubjectRecord{SubjectID: "u1", Role: RoleAdmin})
	ctx := context.Background()

	require.NoError(t, mr.Set("authz:subject:u1", "{not json"))

	record, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, record.Role)
	require.Equal(t, 1, inner.getCount())

	// The corrupt entry was rewritten on the way out.
	cached, err := mr.Get("authz:subject:u1")
	require.NoError(t, err)
	require.Contains(t, cached, "ADMIN")
}

func TestCachedStoreRedisDownDegrades(t *testing.T) {
	store, _, mr := newCacheFixture(t, SubjectRecord{SubjectID: "u1", Role: RoleParalegal})
	mr.Close()

	record, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, RoleParalegal, record.Role)
}
