package collector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCache_RoundTrip(t *testing.T) {
	cache := NewFileCache(t.TempDir(), time.Hour, zerolog.Nop())

	in := map[string]float64{"close": 101.5, "volume": 2000}
	require.NoError(t, cache.Put("AAPL_prices_1y_1d", in))

	var out map[string]float64
	require.True(t, cache.Get("AAPL_prices_1y_1d", &out))
	assert.Equal(t, in, out)
}

func TestFileCache_MissingKey(t *testing.T) {
	cache := NewFileCache(t.TempDir(), time.Hour, zerolog.Nop())

	var out map[string]float64
	assert.False(t, cache.Get("nothing_here", &out))
}

func TestFileCache_Expiry(t *testing.T) {
	dir := t.TempDir()
	cache := NewFileCache(dir, time.Hour, zerolog.Nop())
	require.NoError(t, cache.Put("AAPL_profile", map[string]string{"name": "Apple"}))

	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, cacheFileName("AAPL_profile")), stale, stale))

	var out map[string]string
	assert.False(t, cache.Get("AAPL_profile", &out))
}

func TestFileCache_NoExpiryWithoutTTL(t *testing.T) {
	dir := t.TempDir()
	cache := NewFileCache(dir, 0, zerolog.Nop())
	require.NoError(t, cache.Put("AAPL_profile", map[string]string{"name": "Apple"}))

	stale := time.Now().Add(-24 * 365 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, cacheFileName("AAPL_profile")), stale, stale))

	var out map[string]string
	assert.True(t, cache.Get("AAPL_profile", &out))
}

func TestFileCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	cache := NewFileCache(dir, time.Hour, zerolog.Nop())
	require.NoError(t, os.WriteFile(filepath.Join(dir, cacheFileName("bad")), []byte("{not json"), 0o644))

	var out map[string]string
	assert.False(t, cache.Get("bad", &out))
}

func TestCacheFileName(t *testing.T) {
	assert.Equal(t, "_GSPC_prices_1y_1d.json", cacheFileName("^GSPC_prices_1y_1d"))
	assert.Equal(t, "AAPL_profile.json", cacheFileName("AAPL_profile"))
}
