package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/uwm-api/pkg/errors"
)

type mockCacheRepo struct {
	entries  map[string][]byte
	lastTTL  time.Duration
	patterns []string
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	m.lastTTL = ttl
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := &mockCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	require.NoError(t, svc.Set(context.Background(), "analysis:test", []int{1, 2, 3}, 0))
	assert.Equal(t, time.Minute, repo.lastTTL)

	var out []int
	hit, err := svc.Get(context.Background(), "analysis:test", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []int{1, 2, 3}, out)
}

func TestCacheServiceMissIsNotAnError(t *testing.T) {
	svc := NewCacheService(&mockCacheRepo{}, nil, time.Minute, zap.NewNop(), true)

	var out []int
	hit, err := svc.Get(context.Background(), "analysis:absent", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := &mockCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), false)

	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	assert.Empty(t, repo.entries)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Invalidate(context.Background(), "analysis:*"))
	assert.Empty(t, repo.patterns)
}

func TestCacheServiceNilReceiver(t *testing.T) {
	var svc *CacheService
	assert.False(t, svc.Enabled())

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
}

func TestCacheServiceInvalidate(t *testing.T) {
	repo := &mockCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	require.NoError(t, svc.Invalidate(context.Background(), "analysis:*"))
	assert.Equal(t, []string{"analysis:*"}, repo.patterns)
}
