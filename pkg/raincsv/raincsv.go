// Package raincsv reads and writes rainfall time series as CSV with
// timestamp and rainfall_mm columns.
package raincsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/lildrip/lildrip/internal/timeseries"
)

// Fill methods accepted by Regularize.
const (
	FillZero = "zero"
	FillDrop = "drop"
)

// ErrUnsupportedFill is returned by Regularize for unknown fill methods.
var ErrUnsupportedFill = errors.New("unsupported fill method")

// Accepted timestamp layouts, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// Read parses a rainfall CSV into parallel timestamp and value slices. A
// header row is detected and skipped. Rows must have at least two columns:
// timestamp and rainfall amount.
func Read(r io.Reader) ([]time.Time, []float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	var times []time.Time
	var values []float64

	for row := 0; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("csv read failed at row %d: %w", row+1, err)
		}
		if len(record) < 2 {
			return nil, nil, fmt.Errorf("row %d has %d columns, need at least 2", row+1, len(record))
		}

		ts, err := parseTime(record[0])
		if err != nil {
			if row == 0 {
				// Header row
				continue
			}
			return nil, nil, fmt.Errorf("row %d: %w", row+1, err)
		}

		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: bad rainfall value %q: %w", row+1, record[1], err)
		}

		times = append(times, ts)
		values = append(values, v)
	}

	return times, values, nil
}

// ReadGrid parses a rainfall CSV that is already on a uniform grid.
func ReadGrid(r io.Reader) (*timeseries.Grid, error) {
	times, values, err := Read(r)
	if err != nil {
		return nil, err
	}
	return timeseries.New(times, values)
}

// Regularize reindexes raw samples onto a uniform grid of the given
// interval, anchored at the first timestamp. Samples must fall on the grid.
// Missing buckets are filled with zero under FillZero; under FillDrop they
// are dropped, which fails unless the surviving samples are still evenly
// spaced.
func Regularize(times []time.Time, values []float64, interval time.Duration, fill string) (*timeseries.Grid, error) {
	if fill != FillZero && fill != FillDrop {
		return nil, fmt.Errorf("%w: %q (use %q or %q)", ErrUnsupportedFill, fill, FillZero, FillDrop)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: non-positive interval %s", timeseries.ErrInvalidSeries, interval)
	}
	if len(times) == 0 || len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps and %d values", timeseries.ErrInvalidSeries, len(times), len(values))
	}

	start := times[0]
	end := times[0]
	offsets := make([]int, len(times))
	for i, ts := range times {
		d := ts.Sub(start)
		if d < 0 {
			return nil, fmt.Errorf("%w: timestamps are not sorted (row %d)", timeseries.ErrInvalidSeries, i+1)
		}
		if d%interval != 0 {
			return nil, fmt.Errorf("%w: timestamp %s is off the %s grid", timeseries.ErrInvalidSeries, ts.Format(time.RFC3339), interval)
		}
		offsets[i] = int(d / interval)
		if ts.After(end) {
			end = ts
		}
	}

	n := int(end.Sub(start)/interval) + 1
	filled := make([]float64, n)
	present := make([]bool, n)
	for i, off := range offsets {
		if present[off] {
			return nil, fmt.Errorf("%w: duplicate timestamp %s", timeseries.ErrInvalidSeries, times[i].Format(time.RFC3339))
		}
		filled[off] = values[i]
		present[off] = true
	}

	if fill == FillZero {
		return timeseries.NewUniform(start, interval, filled)
	}

	// FillDrop: keep only observed buckets; the result must remain evenly
	// spaced to be usable as a grid.
	var keptTimes []time.Time
	var keptValues []float64
	for i := 0; i < n; i++ {
		if present[i] {
			keptTimes = append(keptTimes, start.Add(time.Duration(i)*interval))
			keptValues = append(keptValues, filled[i])
		}
	}
	return timeseries.New(keptTimes, keptValues)
}

// Write serializes a grid as CSV with a header row.
func Write(w io.Writer, g *timeseries.Grid) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "rainfall_mm"}); err != nil {
		return err
	}
	for i := 0; i < g.Len(); i++ {
		record := []string{
			g.Time(i).Format(time.RFC3339),
			strconv.FormatFloat(g.Value(i), 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
