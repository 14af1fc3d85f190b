package blm

import (
	"errors"
	"math"
	"testing"
	"time"
)

// eventAt builds an event with the given values at a 10-minute step,
// zero rows included, starting at the given offset from the test epoch.
func eventAt(offset time.Duration, values []float64) Event {
	ev := Event{Values: values}
	for i := range values {
		ev.Times = append(ev.Times, eventTestStart.Add(offset).Add(time.Duration(i)*10*time.Minute))
	}
	return ev
}

func TestExtractBetaEta(t *testing.T) {
	tenMin := 10 * time.Minute

	tests := []struct {
		name     string
		events   []Event
		intraGap time.Duration
		wantBeta float64
		wantEta  float64
	}{
		{
			name: "one-interval gap terminates pulses",
			events: []Event{
				eventAt(0, []float64{1, 0, 1}),
				eventAt(24*time.Hour, []float64{2, 0, 0, 3}),
			},
			intraGap: 10 * time.Minute,
			wantBeta: 2,   // two pulses in each event
			wantEta:  0.1, // mean pulse duration 10 minutes
		},
		{
			name: "short gap absorbed into pulse",
			events: []Event{
				eventAt(0, []float64{1, 0, 1}),
			},
			intraGap: 20 * time.Minute,
			wantBeta: 1,
			wantEta:  1.0 / 30.0, // absorbed zero counts toward duration
		},
		{
			name: "contiguous run is a single pulse",
			events: []Event{
				eventAt(0, []float64{1, 2, 3, 4}),
			},
			intraGap: 15 * time.Minute,
			wantBeta: 1,
			wantEta:  1.0 / 40.0,
		},
		{
			name: "no pulses falls back to defaults",
			events: []Event{
				eventAt(0, []float64{0, 0, 0}),
			},
			intraGap: 15 * time.Minute,
			wantBeta: 1.0,
			wantEta:  0.1,
		},
		{
			name:     "no events falls back to defaults",
			events:   nil,
			intraGap: 15 * time.Minute,
			wantBeta: 1.0,
			wantEta:  0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			beta, eta, err := ExtractBetaEta(tt.events, tenMin, tt.intraGap)
			if err != nil {
				t.Fatalf("ExtractBetaEta failed: %v", err)
			}
			if math.Abs(beta-tt.wantBeta) > 1e-12 {
				t.Errorf("beta = %v, want %v", beta, tt.wantBeta)
			}
			if math.Abs(eta-tt.wantEta) > 1e-12 {
				t.Errorf("eta = %v, want %v", eta, tt.wantEta)
			}
		})
	}
}

func TestExtractBetaEtaBadConfig(t *testing.T) {
	if _, _, err := ExtractBetaEta(nil, 0, 15*time.Minute); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero interval, got %v", err)
	}
	if _, _, err := ExtractBetaEta(nil, 10*time.Minute, -time.Minute); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for negative gap, got %v", err)
	}
}

func TestDecomposePulses(t *testing.T) {
	tests := []struct {
		name        string
		values      []float64
		gap         int
		wantCount   int
		wantLengths []int
	}{
		{"empty", nil, 1, 0, nil},
		{"all zero", []float64{0, 0}, 1, 0, nil},
		{"single sample", []float64{3}, 1, 1, []int{1}},
		{"split at gap", []float64{1, 0, 1}, 1, 2, []int{1, 1}},
		{"absorbed gap", []float64{1, 0, 1}, 2, 1, []int{3}},
		{"terminating gap not counted", []float64{1, 1, 0, 0}, 1, 1, []int{2}},
		{"absorbed zero before terminating gap counted", []float64{1, 1, 0, 0}, 2, 1, []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, lengths := decomposePulses(tt.values, tt.gap)
			if count != tt.wantCount {
				t.Errorf("count = %d, want %d", count, tt.wantCount)
			}
			if len(lengths) != len(tt.wantLengths) {
				t.Fatalf("lengths = %v, want %v", lengths, tt.wantLengths)
			}
			for i := range lengths {
				if lengths[i] != tt.wantLengths[i] {
					t.Errorf("lengths[%d] = %d, want %d", i, lengths[i], tt.wantLengths[i])
				}
			}
		})
	}
}
