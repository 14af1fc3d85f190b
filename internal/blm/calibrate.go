package blm

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/lildrip/lildrip/pkg/params"
)

// Floors applied when the sample moments degenerate to zero.
const (
	minGamma         = 0.01
	minMu            = 0.1
	minutesPerDay    = 1440.0
	minTotalSpanMins = 1.0
)

// CalibrateOptions controls calibration. A nil Beta or Eta is derived from
// the events via pulse decomposition using IntraEventGap; non-nil values
// override the decomposition.
type CalibrateOptions struct {
	IntraEventGap time.Duration
	Beta          *float64
	Eta           *float64
}

// Calibrate estimates the five process parameters from the given events via
// the method of moments and stores them on the model. Either the full
// parameter set is produced or the call fails and the model is unchanged.
func (m *Model) Calibrate(events []Event, interval time.Duration, opts CalibrateOptions) (params.Parameters, error) {
	if len(events) == 0 {
		return params.Parameters{}, ErrNoEvents
	}
	if interval <= 0 {
		return params.Parameters{}, fmt.Errorf("%w: non-positive series interval %s", ErrInvalidConfig, interval)
	}

	intervalMinutes := interval.Minutes()
	durations := make([]float64, len(events))
	intensities := make([]float64, len(events))
	for i, ev := range events {
		durations[i] = float64(len(ev.Values)) * intervalMinutes
		if durations[i] > 0 {
			intensities[i] = ev.Sum() / durations[i]
		}
	}

	first := events[0].Times[0]
	lastEvent := events[len(events)-1]
	last := lastEvent.Times[len(lastEvent.Times)-1]
	totalSpanMinutes := last.Sub(first).Minutes()
	if totalSpanMinutes == 0 {
		totalSpanMinutes = minTotalSpanMins
	}

	lambda := float64(len(events)) / (totalSpanMinutes / minutesPerDay)

	gamma := minGamma
	if meanDuration := stat.Mean(durations, nil); meanDuration > 0 {
		gamma = 1.0 / meanDuration
	}

	mu := stat.Mean(intensities, nil)
	if mu <= 0 {
		mu = minMu
	}

	beta, eta := 0.0, 0.0
	if opts.Beta != nil {
		beta = *opts.Beta
	}
	if opts.Eta != nil {
		eta = *opts.Eta
	}
	if opts.Beta == nil || opts.Eta == nil {
		derivedBeta, derivedEta, err := ExtractBetaEta(events, interval, opts.IntraEventGap)
		if err != nil {
			return params.Parameters{}, err
		}
		if opts.Beta == nil {
			beta = derivedBeta
		}
		if opts.Eta == nil {
			eta = derivedEta
		}
	}

	p := params.Parameters{
		Lambda: lambda,
		Beta:   beta,
		Gamma:  gamma,
		Eta:    eta,
		Mu:     mu,
	}
	if err := p.Validate(); err != nil {
		return params.Parameters{}, fmt.Errorf("calibration produced invalid parameters: %w", err)
	}

	m.p = &p
	return p, nil
}
