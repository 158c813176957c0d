package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResampleIndices(t *testing.T) {
	r := &TimeSeriesResampler{}

	windows := r.ResampleIndices([]int64{30, 0, 10, 25, 27}, 10)
	require.Len(t, windows, 4)

	assert.Equal(t, ResampleWindow{Indices: []int{0}, StartTime: 0, EndTime: 10}, windows[0])
	assert.Equal(t, ResampleWindow{Indices: []int{1}, StartTime: 10, EndTime: 20}, windows[1])
	assert.Equal(t, ResampleWindow{Indices: []int{2, 3}, StartTime: 20, EndTime: 30}, windows[2])
	assert.Equal(t, ResampleWindow{Indices: []int{4}, StartTime: 30, EndTime: 40}, windows[3])
}

func TestResampleIndicesSkipsEmptyWindows(t *testing.T) {
	r := &TimeSeriesResampler{}

	windows := r.ResampleIndices([]int64{0, 5, 100}, 10)
	require.Len(t, windows, 2)
	assert.Equal(t, int64(100), windows[1].StartTime)
}

func TestResampleIndicesInvalidInput(t *testing.T) {
	r := &TimeSeriesResampler{}
	assert.Empty(t, r.ResampleIndices(nil, 10))
	assert.Empty(t, r.ResampleIndices([]int64{1, 2}, 0))
}

func TestResampleData(t *testing.T) {
	r := &TimeSeriesResampler{}
	got := ResampleData(r, []int64{0, 1, 12}, []string{"a", "b", "c"}, 10)

	require.Len(t, got, 2)
	assert.Equal(t, []string{"a", "b"}, got[0].Data)
	assert.Equal(t, []string{"c"}, got[1].Data)
}

func TestResampleMultiData(t *testing.T) {
	r := &TimeSeriesResampler{}
	got := r.ResampleMultiData([]int64{0, 5, 10}, 10, []float64{1, 2, 3}, []float64{0, 0.5, 0})

	require.Len(t, got, 2)
	assert.Equal(t, [][]float64{{1, 2}, {0, 0.5}}, got[0].DataArrays)
	assert.Equal(t, [][]float64{{3}, {0}}, got[1].DataArrays)
}

func TestSearchSorted(t *testing.T) {
	arr := []int64{1, 3, 3, 5}
	assert.Equal(t, 1, SearchSorted(arr, 3, "left"))
	assert.Equal(t, 3, SearchSorted(arr, 3, "right"))
	assert.Equal(t, 4, SearchSorted(arr, 9, "left"))
}

func TestBucketWidth(t *testing.T) {
	const day = int64(86400)
	assert.Equal(t, 10*day, BucketWidth(0, 99*day, 10))
	assert.Equal(t, day, BucketWidth(0, 5*day, 400))
	assert.Equal(t, 2*day, BucketWidth(0, 10*day, 6))
	assert.Equal(t, 11*day, BucketWidth(0, 10*day, 0))
}
