package utils

import (
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"yield-dashboard/src/logger"
	"yield-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// SeriesCache keeps fetched series in memory for a limited time.
// -----------------------------------------------------------------------------

type cacheEntry struct {
	series   *models.MPriceSeries
	storedAt time.Time
}

type SeriesCache struct {
	entries     map[string]cacheEntry
	TTL         time.Duration
	MaxEntries  int
	MaxMemoryMB int
	Logger      *logger.Logger
	now         func() time.Time
	memoryMB    func() float64
	mu          sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewSeriesCache(cfg models.MCacheConfig, log *logger.Logger) *SeriesCache {
	c := &SeriesCache{
		entries:     make(map[string]cacheEntry),
		TTL:         time.Duration(cfg.TTLMinutes) * time.Minute,
		MaxEntries:  cfg.MaxEntries,
		MaxMemoryMB: cfg.MaxMemoryMB,
		Logger:      log,
		now:         time.Now,
	}
	c.memoryMB = c.GetProcessMemoryMB
	return c
}

// -----------------------------------------------------------------------------

// CacheKey identifies a series by symbol and calendar range.
func CacheKey(symbol string, start, end time.Time) string {
	return symbol + "|" + start.Format(time.DateOnly) + "|" + end.Format(time.DateOnly)
}

// -----------------------------------------------------------------------------

// Get returns a live entry. Expired entries are dropped.
func (c *SeriesCache) Get(symbol string, start, end time.Time) (*models.MPriceSeries, bool) {
	key := CacheKey(symbol, start, end)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.TTL > 0 && c.now().Sub(entry.storedAt) > c.TTL {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && cur.storedAt.Equal(entry.storedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.series, true
}

// -----------------------------------------------------------------------------

// Put stores a series under its own symbol and range.
func (c *SeriesCache) Put(series *models.MPriceSeries) {
	if series == nil {
		return
	}
	key := CacheKey(series.Symbol, series.Start, series.End)

	c.mu.Lock()
	c.entries[key] = cacheEntry{series: series, storedAt: c.now()}
	overflow := c.MaxEntries > 0 && len(c.entries) > c.MaxEntries
	if overflow {
		c.evictOldestHalfLocked()
	}
	c.mu.Unlock()

	if overflow {
		c.Logger.Info("Series cache exceeded %d entries. Evicted oldest half.", c.MaxEntries)
	}
	c.CheckMemoryLimits()
}

// -----------------------------------------------------------------------------

// CheckMemoryLimits evicts the oldest half of the entries when the heap is
// above the configured limit.
func (c *SeriesCache) CheckMemoryLimits() {
	if c.MaxMemoryMB <= 0 {
		return
	}

	currentMemory := c.memoryMB()
	if currentMemory <= float64(c.MaxMemoryMB) {
		return
	}

	c.Logger.Info("Memory usage %.1fMB exceeds limit %dMB. Cleaning up.", currentMemory, c.MaxMemoryMB)

	c.mu.Lock()
	c.evictOldestHalfLocked()
	c.mu.Unlock()

	runtime.GC()
	debug.FreeOSMemory()
}

// -----------------------------------------------------------------------------

func (c *SeriesCache) evictOldestHalfLocked() {
	if len(c.entries) == 0 {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].storedAt.Before(c.entries[keys[j]].storedAt)
	})

	drop := (len(keys) + 1) / 2
	for _, k := range keys[:drop] {
		delete(c.entries, k)
	}
}

// -----------------------------------------------------------------------------

// GetProcessMemoryMB gets current heap usage in MB
func (c *SeriesCache) GetProcessMemoryMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.HeapAlloc) / 1024 / 1024
}

// -----------------------------------------------------------------------------

// Len returns the number of cached series.
func (c *SeriesCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// EstimatedBytes is a rough size of everything cached.
func (c *SeriesCache) EstimatedBytes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, e := range c.entries {
		total += EstimateSeriesBytes(len(e.series.Points))
	}
	return total
}

// -----------------------------------------------------------------------------

// Cleanup clears all entries
func (c *SeriesCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
	runtime.GC()
	debug.FreeOSMemory()
}
