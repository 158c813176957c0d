package utils

// -----------------------------------------------------------------------------

// Time and sizing constants shared by the cache and calendar.
const (
	DaySeconds = 86400

	// approx bytes held per cached session (three 8-byte fields plus slice overhead)
	BytesPerCachedPoint = 32
)

// -----------------------------------------------------------------------------

// EstimateSeriesBytes gives a rough size of a cached series with n sessions.
func EstimateSeriesBytes(n int) int {
	return 256 + n*BytesPerCachedPoint
}
