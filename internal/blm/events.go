package blm

import (
	"fmt"
	"time"

	"github.com/lildrip/lildrip/internal/timeseries"
)

// IdentifyEvents segments a rainfall series into discrete events separated
// by dry spells of at least interEventGap. The series is padded with
// gap-length zero runs on both sides so that events touching either
// boundary are still detected and closed; the trailing pad is what
// guarantees closure of an event that runs to the end of the series.
func IdentifyEvents(series *timeseries.Grid, interEventGap time.Duration) ([]Event, error) {
	if series == nil || series.Len() < 2 {
		return nil, fmt.Errorf("%w: event identification requires at least 2 samples to infer the interval", timeseries.ErrInvalidSeries)
	}

	gapIntervals, err := gapIntervalCount(interEventGap, series.Interval())
	if err != nil {
		return nil, err
	}

	padded, err := series.PadZeros(gapIntervals)
	if err != nil {
		return nil, err
	}

	var events []Event
	inEvent := false
	drySpell := 0
	startIdx := -1

	for i := 0; i < padded.Len(); i++ {
		if padded.Value(i) > 0 {
			if !inEvent {
				inEvent = true
				startIdx = i
			}
			drySpell = 0
			continue
		}

		drySpell++
		if inEvent && drySpell >= gapIntervals {
			// The event ends at the last sample before the terminating
			// dry run. Keep only its positive rows.
			endIdx := i - gapIntervals
			var ev Event
			for j := startIdx; j <= endIdx; j++ {
				if padded.Value(j) > 0 {
					ev.Times = append(ev.Times, padded.Time(j))
					ev.Values = append(ev.Values, padded.Value(j))
				}
			}
			if ev.Sum() > 0 {
				events = append(events, ev)
			}
			inEvent = false
			drySpell = 0
		}
	}

	return events, nil
}
