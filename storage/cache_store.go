package storage

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/pivolan/data_agent/analysis"
	"github.com/pivolan/data_agent/domain/models"
)

// CacheStore is a database-backed analysis.ResultCache, sharing the
// data_cache table with the serialized tables. Entries are namespaced by
// file so external GC can drop everything for a file at once.
type CacheStore struct {
	store *Store
	ttl   time.Duration
	now   analysis.Clock
}

func NewCacheStore(store *Store, ttl time.Duration, clock analysis.Clock) *CacheStore {
	if clock == nil {
		clock = time.Now
	}
	return &CacheStore{store: store, ttl: ttl, now: clock}
}

// cache keys are "<file id>/<md5>" as produced by analysis.CacheKey; the
// prefix becomes the row's file id so per-file GC covers analysis entries.
func splitKey(key string) (fileID, cacheKey string) {
	if i := strings.IndexByte(key, '/'); i >= 0 {
		return key[:i], key
	}
	return "", key
}

func (c *CacheStore) Get(key string) (analysis.CacheEntry, bool) {
	var row DataCache
	err := c.store.db.Where("cache_key = ?", key).Order("created_at DESC").First(&row).Error
	if err != nil {
		return analysis.CacheEntry{}, false
	}
	if row.ExpiresAt == nil || c.now().After(*row.ExpiresAt) {
		return analysis.CacheEntry{}, false
	}
	var entry analysis.CacheEntry
	if err := json.Unmarshal([]byte(row.Data), &entry); err != nil {
		log.Printf("cache decode error for key %s: %v", key, err)
		return analysis.CacheEntry{}, false
	}
	return entry, true
}

func (c *CacheStore) Put(key string, result models.AnalysisResult, payload models.VisualizationPayload) {
	now := c.now()
	entry := analysis.CacheEntry{
		Result:    result,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	fileID, cacheKey := splitKey(key)

	// Last write wins: replace any previous row for this key.
	c.store.db.Where("cache_key = ?", cacheKey).Delete(&DataCache{})
	expires := entry.ExpiresAt
	row := DataCache{
		FileID:    fileID,
		CacheKey:  cacheKey,
		Data:      mustJSON(entry),
		CreatedAt: now,
		ExpiresAt: &expires,
	}
	if err := c.store.db.Create(&row).Error; err != nil {
		log.Printf("cache write error for key %s: %v", key, err)
	}
}
