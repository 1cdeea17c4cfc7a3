package analysis

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pivolan/data_agent/domain/models"
)

// Clock supplies the current time so cache expiry is testable.
type Clock func() time.Time

// CacheEntry is one memoized computation.
type CacheEntry struct {
	Result    models.AnalysisResult       `json:"result"`
	Payload   models.VisualizationPayload `json:"payload"`
	CreatedAt time.Time                   `json:"created_at"`
	ExpiresAt time.Time                   `json:"expires_at"`
}

// ResultCache memoizes (table identity, request) computations with a TTL.
// Get misses on expired entries without evicting them; eviction is external
// housekeeping. Put overwrites with a fresh expiry, last write wins.
type ResultCache interface {
	Get(key string) (CacheEntry, bool)
	Put(key string, result models.AnalysisResult, payload models.VisualizationPayload)
}

// CacheKey derives a deterministic key from the table identity and the
// request. The request serializes with fixed field order, so the same
// request hashes identically across process restarts. The file id prefixes
// the hash so externalized caches can namespace entries per file.
func CacheKey(tableIdentity string, req models.AnalysisRequest) string {
	serialized, _ := json.Marshal(req)
	hasher := md5.New()
	hasher.Write([]byte(tableIdentity))
	hasher.Write([]byte{'|'})
	hasher.Write(serialized)

	fileID := tableIdentity
	if i := strings.IndexByte(tableIdentity, '/'); i >= 0 {
		fileID = tableIdentity[:i]
	}
	return fileID + "/" + hex.EncodeToString(hasher.Sum(nil))
}

// MemoryCache is the in-process ResultCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	ttl     time.Duration
	now     Clock
}

func NewMemoryCache(ttl time.Duration, clock Clock) *MemoryCache {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryCache{
		entries: map[string]CacheEntry{},
		ttl:     ttl,
		now:     clock,
	}
}

func (c *MemoryCache) Get(key string) (CacheEntry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.ExpiresAt) {
		return CacheEntry{}, false
	}
	return entry, true
}

func (c *MemoryCache) Put(key string, result models.AnalysisResult, payload models.VisualizationPayload) {
	now := c.now()
	c.mu.Lock()
	c.entries[key] = CacheEntry{
		Result:    result,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.mu.Unlock()
}
