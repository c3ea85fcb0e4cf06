// Package filecache avoids recomputing expensive per-file AI analysis when
// the exact same file reappears within the TTL window.
//
// The cache holds two independent tables keyed by the same content key:
// analyses expire after the TTL (checked lazily on read, proactively by
// SweepExpired), while summaries never expire and are only removed by
// ClearAll. The asymmetry is inherited behavior and intentional here; see
// DESIGN.md. Each table additionally holds at most maxEntries items; an
// insert over capacity evicts the oldest analysis (or an arbitrary summary,
// which carries no timestamp).
package filecache

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"medichat/internal/models"
)

// DefaultTTL is the analysis expiry window.
const DefaultTTL = time.Hour

// DefaultMaxEntries caps each table.
const DefaultMaxEntries = 1024

type analysisEntry struct {
	Analysis models.FileAnalysis `json:"analysis"`
	CachedAt time.Time           `json:"cached_at"`
	Filename string              `json:"filename"`
	FileSize int                 `json:"file_size"`
}

// Cache is safe for concurrent use. A put followed by a get on the same key
// observes the write; concurrent puts resolve last-write-wins.
type Cache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	analyses   map[string]analysisEntry
	summaries  map[string]string
}

// New builds a cache with the given analysis TTL and default capacity.
// Non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration) *Cache {
	return NewWithCapacity(ttl, DefaultMaxEntries)
}

// NewWithCapacity builds a cache holding at most maxEntries items per table.
func NewWithCapacity(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		analyses:   make(map[string]analysisEntry),
		summaries:  make(map[string]string),
	}
}

// GetAnalysis returns the cached analysis for the file, if present and not
// expired. An expired entry is deleted on the spot and reported as a miss,
// so a read never returns data older than the TTL.
func (c *Cache) GetAnalysis(content []byte, name string) (models.FileAnalysis, bool) {
	key := DeriveKey(content, name)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.analyses[key]
	if !ok {
		return models.FileAnalysis{}, false
	}
	if c.now().Sub(entry.CachedAt) > c.ttl {
		delete(c.analyses, key)
		return models.FileAnalysis{}, false
	}
	log.Printf("cache HIT for file: %s", name)
	return entry.Analysis, true
}

// PutAnalysis stores the analysis, overwriting any existing entry for the
// same file. Last write wins. At capacity the oldest entry is evicted first.
func (c *Cache) PutAnalysis(content []byte, name string, analysis models.FileAnalysis) {
	key := DeriveKey(content, name)

	c.mu.Lock()
	if _, exists := c.analyses[key]; !exists && len(c.analyses) >= c.maxEntries {
		c.evictOldestAnalysisLocked()
	}
	c.analyses[key] = analysisEntry{
		Analysis: analysis,
		CachedAt: c.now(),
		Filename: name,
		FileSize: len(content),
	}
	c.mu.Unlock()
	log.Printf("cache STORED for file: %s", name)
}

// GetSummary returns the cached summary for the file. Summaries carry no
// timestamp and are never expired.
func (c *Cache) GetSummary(content []byte, name string) (string, bool) {
	key := DeriveKey(content, name)

	c.mu.RLock()
	summary, ok := c.summaries[key]
	c.mu.RUnlock()

	if ok {
		log.Printf("summary cache HIT for file: %s", name)
	}
	return summary, ok
}

// PutSummary stores the summary. Last write wins. Summaries have no
// timestamp, so at capacity an arbitrary entry makes room.
func (c *Cache) PutSummary(content []byte, name, summary string) {
	key := DeriveKey(content, name)

	c.mu.Lock()
	if _, exists := c.summaries[key]; !exists && len(c.summaries) >= c.maxEntries {
		for victim := range c.summaries {
			delete(c.summaries, victim)
			break
		}
	}
	c.summaries[key] = summary
	c.mu.Unlock()
	log.Printf("summary cache STORED for file: %s", name)
}

func (c *Cache) evictOldestAnalysisLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, entry := range c.analyses {
		if first || entry.CachedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.CachedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.analyses, oldestKey)
	}
}

// SweepExpired removes every analysis entry older than the TTL and returns
// the count removed. The summary table is not swept. Safe and cheap to call
// arbitrarily often; a second immediate sweep removes nothing.
func (c *Cache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.analyses {
		if now.Sub(entry.CachedAt) > c.ttl {
			delete(c.analyses, key)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("cleared %d expired cache entries", removed)
	}
	return removed
}

// Stats reports entry counts and an approximate serialized size.
func (c *Cache) Stats() models.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return models.CacheStats{
		AnalysisCount:      len(c.analyses),
		SummaryCount:       len(c.summaries),
		EstimatedSizeBytes: c.estimateSizeLocked(),
		TTLHours:           c.ttl.Hours(),
	}
}

func (c *Cache) estimateSizeLocked() int {
	size := 0
	if data, err := json.Marshal(c.analyses); err == nil {
		size += len(data)
	}
	if data, err := json.Marshal(c.summaries); err == nil {
		size += len(data)
	}
	return size
}

// ClearAll unconditionally empties both tables.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	c.analyses = make(map[string]analysisEntry)
	c.summaries = make(map[string]string)
	c.mu.Unlock()
}
