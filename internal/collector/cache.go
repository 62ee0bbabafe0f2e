package collector

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Cache stores fetched payloads between runs. It is injected into the
// Collector rather than being process-global state; a nil Cache disables
// caching entirely.
type Cache interface {
	// Get loads the entry for key into out and reports whether a fresh
	// entry existed.
	Get(key string, out any) bool
	// Put stores a JSON-serializable value under key.
	Put(key string, v any) error
}

// FileCache is a flat-file JSON cache with a freshness window. Entries older
// than the TTL are treated as absent; a non-positive TTL never expires.
type FileCache struct {
	dir string
	ttl time.Duration
	log zerolog.Logger
}

// NewFileCache creates a file cache rooted at dir.
func NewFileCache(dir string, ttl time.Duration, log zerolog.Logger) *FileCache {
	return &FileCache{dir: dir, ttl: ttl, log: log}
}

// cacheFileName maps a cache key to a safe file name. Symbols like "^GSPC"
// contain characters that are not filesystem-friendly.
func cacheFileName(key string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, key)
	return mapped + ".json"
}

func (c *FileCache) Get(key string, out any) bool {
	path := filepath.Join(c.dir, cacheFileName(key))
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		c.log.Debug().Str("key", key).Msg("cache entry expired")
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry corrupt, refetching")
		return false
	}
	return true
}

func (c *FileCache) Put(key string, v any) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, cacheFileName(key)), data, 0o644)
}
