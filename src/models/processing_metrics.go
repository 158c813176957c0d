package models

// MProcessingMetrics represents the timings of one dashboard computation.
type MProcessingMetrics struct {
	FetchTimeSeconds   float64 `json:"fetch_time_seconds"`
	ComputeTimeSeconds float64 `json:"compute_time_seconds"`
	CacheHit           string  `json:"cache_hit"` // "memory", "database" or "miss"
}
