package core

import (
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------

// Sum adds the values exactly in decimal space.
func Sum(data []float64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range data {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}

// -----------------------------------------------------------------------------

// Mean returns the arithmetic mean, or None for an empty slice.
func Mean(data []float64) optional.Option[float64] {
	if len(data) == 0 {
		return optional.None[float64]()
	}
	return optional.Some(Sum(data).Div(decimal.NewFromInt(int64(len(data)))).InexactFloat64())
}

// -----------------------------------------------------------------------------

// Min returns the smallest value, or None for an empty slice.
func Min(data []float64) optional.Option[float64] {
	if len(data) == 0 {
		return optional.None[float64]()
	}
	m := data[0]
	for _, v := range data[1:] {
		if v < m {
			m = v
		}
	}
	return optional.Some(m)
}

// -----------------------------------------------------------------------------

// Max returns the largest value, or None for an empty slice.
func Max(data []float64) optional.Option[float64] {
	if len(data) == 0 {
		return optional.None[float64]()
	}
	m := data[0]
	for _, v := range data[1:] {
		if v > m {
			m = v
		}
	}
	return optional.Some(m)
}

// -----------------------------------------------------------------------------

// Round rounds half away from zero to the given number of decimals.
func Round(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}
