// Package timeseries provides the fixed-interval rainfall series container
// used throughout the model core.
package timeseries

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSeries is returned when a series is too short, unevenly spaced,
// or carries malformed values.
var ErrInvalidSeries = errors.New("invalid series")

// Grid is an ordered rainfall series at a fixed, uniform interval. A Grid is
// immutable once built; padding and slicing operations return new instances.
type Grid struct {
	times    []time.Time
	values   []float64
	interval time.Duration
}

// New builds a Grid from parallel timestamp and value slices. Timestamps
// must be strictly increasing and evenly spaced; values must be
// non-negative. The interval is inferred from the first two timestamps. A
// single-sample grid is permitted but has an unknown (zero) interval.
func New(times []time.Time, values []float64) (*Grid, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: series is empty", ErrInvalidSeries)
	}
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps but %d values", ErrInvalidSeries, len(times), len(values))
	}

	var interval time.Duration
	if len(times) > 1 {
		interval = times[1].Sub(times[0])
		if interval <= 0 {
			return nil, fmt.Errorf("%w: timestamps are not strictly increasing", ErrInvalidSeries)
		}
	}
	for i := range times {
		if values[i] < 0 {
			return nil, fmt.Errorf("%w: negative value %v at %s", ErrInvalidSeries, values[i], times[i].Format(time.RFC3339))
		}
		if i > 0 && times[i].Sub(times[i-1]) != interval {
			return nil, fmt.Errorf("%w: non-uniform interval at %s (expected %s spacing)",
				ErrInvalidSeries, times[i].Format(time.RFC3339), interval)
		}
	}

	g := &Grid{
		times:    append([]time.Time(nil), times...),
		values:   append([]float64(nil), values...),
		interval: interval,
	}
	return g, nil
}

// NewUniform builds a Grid of len(values) samples starting at start and
// spaced by interval.
func NewUniform(start time.Time, interval time.Duration, values []float64) (*Grid, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: non-positive interval %s", ErrInvalidSeries, interval)
	}
	times := make([]time.Time, len(values))
	for i := range values {
		times[i] = start.Add(time.Duration(i) * interval)
	}
	return New(times, values)
}

// Len returns the number of samples in the grid.
func (g *Grid) Len() int { return len(g.times) }

// Interval returns the inferred sample spacing, or zero for a
// single-sample grid.
func (g *Grid) Interval() time.Duration { return g.interval }

// Time returns the timestamp of sample i.
func (g *Grid) Time(i int) time.Time { return g.times[i] }

// Value returns the rainfall amount of sample i.
func (g *Grid) Value(i int) float64 { return g.values[i] }

// Times returns a copy of the grid's timestamps.
func (g *Grid) Times() []time.Time {
	return append([]time.Time(nil), g.times...)
}

// Values returns a copy of the grid's rainfall amounts.
func (g *Grid) Values() []float64 {
	return append([]float64(nil), g.values...)
}

// Sum returns the total rainfall over the grid.
func (g *Grid) Sum() float64 {
	var sum float64
	for _, v := range g.values {
		sum += v
	}
	return sum
}

// PadZeros returns a new grid with n zero-valued samples prepended before
// the first timestamp and n appended after the last, at the grid's interval.
func (g *Grid) PadZeros(n int) (*Grid, error) {
	if g.interval <= 0 {
		return nil, fmt.Errorf("%w: cannot pad a series without a known interval", ErrInvalidSeries)
	}
	if n <= 0 {
		return g, nil
	}

	times := make([]time.Time, 0, len(g.times)+2*n)
	values := make([]float64, 0, len(g.values)+2*n)
	for i := n; i > 0; i-- {
		times = append(times, g.times[0].Add(-time.Duration(i)*g.interval))
		values = append(values, 0)
	}
	times = append(times, g.times...)
	values = append(values, g.values...)
	last := g.times[len(g.times)-1]
	for i := 1; i <= n; i++ {
		times = append(times, last.Add(time.Duration(i)*g.interval))
		values = append(values, 0)
	}

	return &Grid{times: times, values: values, interval: g.interval}, nil
}

// Slice returns the half-open window [i, j) of the grid as a new grid.
func (g *Grid) Slice(i, j int) (*Grid, error) {
	if i < 0 || j > len(g.times) || i >= j {
		return nil, fmt.Errorf("%w: slice bounds [%d, %d) out of range for %d samples", ErrInvalidSeries, i, j, len(g.times))
	}
	return &Grid{
		times:    append([]time.Time(nil), g.times[i:j]...),
		values:   append([]float64(nil), g.values[i:j]...),
		interval: g.interval,
	}, nil
}

// Aggregate sums the grid into buckets of the given coarser interval,
// aligned to the grid's first timestamp. The coarse interval must be a
// positive multiple of the grid's interval.
func (g *Grid) Aggregate(coarse time.Duration) (*Grid, error) {
	if g.interval <= 0 {
		return nil, fmt.Errorf("%w: cannot aggregate a series without a known interval", ErrInvalidSeries)
	}
	if coarse <= 0 || coarse%g.interval != 0 {
		return nil, fmt.Errorf("%w: aggregation interval %s is not a multiple of series interval %s",
			ErrInvalidSeries, coarse, g.interval)
	}

	per := int(coarse / g.interval)
	n := (len(g.values) + per - 1) / per
	times := make([]time.Time, n)
	values := make([]float64, n)
	for i := range g.values {
		values[i/per] += g.values[i]
	}
	for i := 0; i < n; i++ {
		times[i] = g.times[0].Add(time.Duration(i) * coarse)
	}

	return &Grid{times: times, values: values, interval: coarse}, nil
}
