package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-recommender/internal/infrastructure/config"
)

func newTestManager(t *testing.T, maxSize int) (*CacheManager, *time.Time) {
	t.Helper()
	m := NewManager(config.CacheConfig{
		Enabled:         true,
		MaxSize:         maxSize,
		TTL:             time.Minute,
		CleanupInterval: time.Hour,
	})
	require.NotNil(t, m)
	t.Cleanup(func() { _ = m.Close() })

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func outcome(label string) Outcome {
	return Outcome{Label: label, Confidence: 0.9, Alternatives: []Alternative{{Label: label, Confidence: 0.9}}}
}

func TestKey(t *testing.T) {
	a := Key("v1", []string{"chicken", "rice"})
	assert.Equal(t, a, Key("v1", []string{"chicken", "rice"}))
	assert.NotEqual(t, a, Key("v2", []string{"chicken", "rice"}))
	assert.NotEqual(t, a, Key("v1", []string{"chickenrice"}))
	assert.NotEqual(t, a, Key("v1", []string{"chicken"}))
}

func TestGetSet(t *testing.T) {
	m, _ := newTestManager(t, 10)

	_, ok := m.Get("k")
	assert.False(t, ok)

	require.NoError(t, m.Set("k", outcome("Rfisa")))
	got, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, outcome("Rfisa"), got)

	got.Alternatives[0].Label = "mutated"
	again, _ := m.Get("k")
	assert.Equal(t, "Rfisa", again.Alternatives[0].Label)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestExpiry(t *testing.T) {
	m, now := newTestManager(t, 10)

	require.NoError(t, m.Set("k", outcome("Rfisa")))
	*now = now.Add(2 * time.Minute)

	_, ok := m.Get("k")
	assert.False(t, ok)
	assert.Equal(t, int64(1), m.GetStats().Evictions)
}

func TestEvictsLeastUsedWhenFull(t *testing.T) {
	m, now := newTestManager(t, 2)

	require.NoError(t, m.Set("a", outcome("A")))
	*now = now.Add(time.Second)
	require.NoError(t, m.Set("b", outcome("B")))
	_, _ = m.Get("a")

	require.NoError(t, m.Set("c", outcome("C")))

	_, ok := m.Get("b")
	assert.False(t, ok, "b was never read and should be evicted")
	_, ok = m.Get("a")
	assert.True(t, ok)
	_, ok = m.Get("c")
	assert.True(t, ok)
}

func TestNilManagerIsNoop(t *testing.T) {
	m := NewManager(config.CacheConfig{Enabled: false})
	require.Nil(t, m)

	assert.NoError(t, m.Set("k", outcome("A")))
	_, ok := m.Get("k")
	assert.False(t, ok)
	assert.Equal(t, Stats{}, m.GetStats())
	assert.NoError(t, m.Close())
}
