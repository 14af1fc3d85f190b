package blm

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/lildrip/lildrip/internal/timeseries"
)

// A single-sample coarse series has no inferable interval; assume hourly.
const defaultCoarseInterval = 60 * time.Minute

// Disaggregate converts a coarse rainfall series into a fine-resolution
// series covering the same span, using process-default randomness.
func (m *Model) Disaggregate(coarse *timeseries.Grid, fineInterval time.Duration) (*timeseries.Grid, error) {
	return m.disaggregate(coarse, fineInterval, nil)
}

// DisaggregateSeed disaggregates reproducibly: each coarse interval's
// simulation uses a generator derived from the call seed and the interval
// index, so runs with the same seed and inputs are identical and intervals
// remain independent of one another.
func (m *Model) DisaggregateSeed(coarse *timeseries.Grid, fineInterval time.Duration, seed uint64) (*timeseries.Grid, error) {
	return m.disaggregate(coarse, fineInterval, &seed)
}

// disaggregate simulates each coarse interval at the fine resolution and
// rescales the simulation so its total matches the coarse observation
// exactly. A zero coarse value yields all-zero cells; a zero-sum simulation
// falls back to spreading the coarse value uniformly.
func (m *Model) disaggregate(coarse *timeseries.Grid, fineInterval time.Duration, seed *uint64) (*timeseries.Grid, error) {
	if m.p == nil {
		return nil, ErrNotCalibrated
	}
	if coarse == nil || coarse.Len() == 0 {
		return nil, fmt.Errorf("%w: empty coarse series", timeseries.ErrInvalidSeries)
	}
	if fineInterval <= 0 {
		return nil, fmt.Errorf("%w: non-positive fine interval %s", ErrInvalidConfig, fineInterval)
	}

	coarseInterval := coarse.Interval()
	if coarse.Len() < 2 {
		coarseInterval = defaultCoarseInterval
	}
	if coarseInterval%fineInterval != 0 {
		return nil, fmt.Errorf("%w: fine interval %s does not evenly divide coarse interval %s",
			ErrInvalidConfig, fineInterval, coarseInterval)
	}
	cells := int(coarseInterval / fineInterval)

	times := make([]time.Time, 0, coarse.Len()*cells)
	values := make([]float64, 0, coarse.Len()*cells)

	for i := 0; i < coarse.Len(); i++ {
		ts := coarse.Time(i)
		observed := coarse.Value(i)

		for j := 0; j < cells; j++ {
			times = append(times, ts.Add(time.Duration(j)*fineInterval))
		}

		if observed == 0 {
			values = append(values, make([]float64, cells)...)
			continue
		}

		var src rand.Source
		if seed != nil {
			src = rand.NewPCG(*seed, uint64(i))
		}
		segment, err := m.generate(coarseInterval, fineInterval, src)
		if err != nil {
			return nil, err
		}

		var simulated float64
		for _, v := range segment {
			simulated += v
		}
		if simulated > 0 {
			scale := observed / simulated
			for k := range segment {
				segment[k] *= scale
			}
		} else {
			flat := observed / float64(cells)
			for k := range segment {
				segment[k] = flat
			}
		}
		values = append(values, segment...)
	}

	return timeseries.New(times, values)
}
