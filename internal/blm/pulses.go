package blm

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Fallbacks when no pulses could be decomposed from the events.
const (
	defaultBeta             = 1.0
	defaultMeanPulseMinutes = 10.0
	minEta                  = 0.1
)

// ExtractBetaEta decomposes each event into rectangular pulses and derives
// beta (mean pulse count per event) and eta (inverse mean pulse duration,
// per minute). A pulse starts at a positive sample and absorbs zero runs
// shorter than the intra-event gap into its duration; a zero run reaching
// the gap threshold terminates it.
func ExtractBetaEta(events []Event, interval, intraEventGap time.Duration) (beta, eta float64, err error) {
	gapIntervals, err := gapIntervalCount(intraEventGap, interval)
	if err != nil {
		return 0, 0, err
	}
	intervalMinutes := interval.Minutes()

	var pulseCounts []float64
	var pulseDurations []float64

	for _, ev := range events {
		count, lengths := decomposePulses(ev.Values, gapIntervals)
		if count == 0 {
			continue
		}
		pulseCounts = append(pulseCounts, float64(count))
		for _, l := range lengths {
			pulseDurations = append(pulseDurations, float64(l)*intervalMinutes)
		}
	}

	beta = defaultBeta
	if len(pulseCounts) > 0 {
		beta = stat.Mean(pulseCounts, nil)
	}

	meanDuration := defaultMeanPulseMinutes
	if len(pulseDurations) > 0 {
		meanDuration = stat.Mean(pulseDurations, nil)
	}
	eta = minEta
	if meanDuration > 0 {
		eta = 1.0 / meanDuration
	}

	return beta, eta, nil
}

// decomposePulses walks an event's samples and returns the pulse count and
// per-pulse lengths in intervals. Absorbed zero intervals count toward the
// pulse length.
func decomposePulses(values []float64, gapIntervals int) (int, []int) {
	var lengths []int
	count := 0

	i := 0
	for i < len(values) {
		if values[i] <= 0 {
			i++
			continue
		}

		// In a pulse.
		length := 1
		zeroRun := 0
		i++
		for i < len(values) {
			if values[i] > 0 {
				length++
				zeroRun = 0
			} else {
				zeroRun++
				if zeroRun >= gapIntervals {
					break
				}
				length++
			}
			i++
		}
		count++
		lengths = append(lengths, length)
	}

	return count, lengths
}
