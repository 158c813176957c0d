package analysis

import (
	"sort"
)

// ResampleWindow is one bucket of [StartTime, EndTime) and the positions of
// the sorted timestamps that fall into it.
type ResampleWindow struct {
	Indices   []int
	StartTime int64
	EndTime   int64
}

// ResampledData is a bucket of values picked from a data slice.
type ResampledData[T any] struct {
	Data      []T
	StartTime int64
	EndTime   int64
}

// ResampledMulti is a bucket holding one slice per input array.
type ResampledMulti struct {
	DataArrays [][]float64
	StartTime  int64
	EndTime    int64
}

// TimeSeriesResampler groups timestamps into fixed-width windows.
type TimeSeriesResampler struct{}

// -----------------------------------------------------------------------------

// ResampleIndices returns the non-empty windows covering the timestamps.
// Windows start at the smallest timestamp and are windowSeconds wide.
func (r *TimeSeriesResampler) ResampleIndices(timestamps []int64, windowSeconds int64) []ResampleWindow {
	if len(timestamps) == 0 || windowSeconds <= 0 {
		return []ResampleWindow{}
	}

	sorted := make([]int64, len(timestamps))
	copy(sorted, timestamps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	minTs := sorted[0]
	maxTs := sorted[len(sorted)-1]

	var results []ResampleWindow
	for start := minTs; start <= maxTs; start += windowSeconds {
		end := start + windowSeconds
		startIdx := SearchSorted(sorted, start, "left")
		endIdx := SearchSorted(sorted, end, "left")
		if startIdx >= endIdx {
			continue
		}

		indices := make([]int, endIdx-startIdx)
		for idx := startIdx; idx < endIdx; idx++ {
			indices[idx-startIdx] = idx
		}
		results = append(results, ResampleWindow{Indices: indices, StartTime: start, EndTime: end})
	}

	return results
}

// -----------------------------------------------------------------------------

// ResampleData groups data by the windows of its timestamps. Timestamps and
// data must be sorted together.
func ResampleData[T any](r *TimeSeriesResampler, timestamps []int64, data []T, windowSeconds int64) []ResampledData[T] {
	var results []ResampledData[T]
	for _, w := range r.ResampleIndices(timestamps, windowSeconds) {
		slice := make([]T, 0, len(w.Indices))
		for _, idx := range w.Indices {
			if idx < len(data) {
				slice = append(slice, data[idx])
			}
		}
		results = append(results, ResampledData[T]{Data: slice, StartTime: w.StartTime, EndTime: w.EndTime})
	}
	return results
}

// -----------------------------------------------------------------------------

// ResampleMultiData groups several parallel arrays at once.
func (r *TimeSeriesResampler) ResampleMultiData(timestamps []int64, windowSeconds int64, dataArrays ...[]float64) []ResampledMulti {
	var results []ResampledMulti

	for _, w := range r.ResampleIndices(timestamps, windowSeconds) {
		windowData := make([][]float64, len(dataArrays))
		for arrIdx, arr := range dataArrays {
			slice := make([]float64, 0, len(w.Indices))
			for _, idx := range w.Indices {
				if idx < len(arr) {
					slice = append(slice, arr[idx])
				}
			}
			windowData[arrIdx] = slice
		}
		results = append(results, ResampledMulti{DataArrays: windowData, StartTime: w.StartTime, EndTime: w.EndTime})
	}

	return results
}

// -----------------------------------------------------------------------------

// SearchSorted returns the insertion index of value in arr. Side "left"
// returns the first index with arr[i] >= value, "right" the first with
// arr[i] > value.
func SearchSorted(arr []int64, value int64, side string) int {
	if side == "right" {
		return sort.Search(len(arr), func(i int) bool { return arr[i] > value })
	}
	return sort.Search(len(arr), func(i int) bool { return arr[i] >= value })
}

// -----------------------------------------------------------------------------

// BucketWidth returns the smallest whole-day width that fits the span
// [minTs, maxTs] into at most maxBuckets windows.
func BucketWidth(minTs, maxTs int64, maxBuckets int) int64 {
	const daySeconds = 86400
	if maxBuckets <= 0 {
		maxBuckets = 1
	}
	span := maxTs - minTs + daySeconds
	days := (span + daySeconds - 1) / daySeconds
	width := (days + int64(maxBuckets) - 1) / int64(maxBuckets)
	if width < 1 {
		width = 1
	}
	return width * daySeconds
}
