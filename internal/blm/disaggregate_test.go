package blm

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lildrip/lildrip/internal/timeseries"
)

func coarseGrid(t *testing.T, interval time.Duration, values []float64) *timeseries.Grid {
	t.Helper()
	g, err := timeseries.NewUniform(eventTestStart, interval, values)
	if err != nil {
		t.Fatalf("NewUniform failed: %v", err)
	}
	return g
}

func TestDisaggregatePreservesTotal(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"typical", []float64{0, 5, 12.5, 0, 3}},
		{"all zero", []float64{0, 0, 0, 0}},
		{"single nonzero sample", []float64{0, 0, 7, 0}},
		{"everything wet", []float64{1.5, 2.5, 3.5}},
	}

	m := calibratedModel(t, activeParams())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coarse := coarseGrid(t, time.Hour, tt.values)
			fine, err := m.DisaggregateSeed(coarse, 10*time.Minute, 99)
			if err != nil {
				t.Fatalf("DisaggregateSeed failed: %v", err)
			}
			if math.Abs(fine.Sum()-coarse.Sum()) > 1e-6 {
				t.Errorf("mass not conserved: fine %v vs coarse %v", fine.Sum(), coarse.Sum())
			}
			if fine.Len() != coarse.Len()*6 {
				t.Errorf("fine length = %d, want %d", fine.Len(), coarse.Len()*6)
			}
		})
	}
}

func TestDisaggregateZeroIntervalsStayDry(t *testing.T) {
	m := calibratedModel(t, activeParams())
	coarse := coarseGrid(t, time.Hour, []float64{0, 4, 0})
	fine, err := m.DisaggregateSeed(coarse, 15*time.Minute, 3)
	if err != nil {
		t.Fatalf("DisaggregateSeed failed: %v", err)
	}

	values := fine.Values()
	for i := 0; i < 4; i++ {
		if values[i] != 0 {
			t.Errorf("dry first hour has rain in cell %d: %v", i, values[i])
		}
	}
	for i := 8; i < 12; i++ {
		if values[i] != 0 {
			t.Errorf("dry last hour has rain in cell %d: %v", i, values[i])
		}
	}

	var middle float64
	for i := 4; i < 8; i++ {
		middle += values[i]
	}
	if math.Abs(middle-4) > 1e-6 {
		t.Errorf("wet hour total = %v, want 4", middle)
	}
}

func TestDisaggregateUniformFallback(t *testing.T) {
	// A zero arrival rate never draws a storm, so every wet interval takes
	// the uniform-spread fallback.
	m := calibratedModel(t, paramsWith(0, 1, 1, 1, 1))
	coarse := coarseGrid(t, time.Hour, []float64{6, 0})
	fine, err := m.DisaggregateSeed(coarse, 10*time.Minute, 1)
	if err != nil {
		t.Fatalf("DisaggregateSeed failed: %v", err)
	}

	values := fine.Values()
	for i := 0; i < 6; i++ {
		if math.Abs(values[i]-1) > 1e-12 {
			t.Errorf("cell %d = %v, want uniform 1", i, values[i])
		}
	}
	if math.Abs(fine.Sum()-6) > 1e-6 {
		t.Errorf("fallback lost mass: %v", fine.Sum())
	}
}

func TestDisaggregateSinglePointDefaultsToHourly(t *testing.T) {
	m := calibratedModel(t, activeParams())
	coarse, err := timeseries.New([]time.Time{eventTestStart}, []float64{5})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	fine, err := m.DisaggregateSeed(coarse, 10*time.Minute, 8)
	if err != nil {
		t.Fatalf("DisaggregateSeed failed: %v", err)
	}
	if fine.Len() != 6 {
		t.Errorf("fine length = %d, want 6 (default 60-minute coarse interval)", fine.Len())
	}
	if math.Abs(fine.Sum()-5) > 1e-6 {
		t.Errorf("mass not conserved: %v", fine.Sum())
	}
}

func TestDisaggregateTimestampsTile(t *testing.T) {
	m := calibratedModel(t, activeParams())
	coarse := coarseGrid(t, time.Hour, []float64{2, 3})
	fine, err := m.DisaggregateSeed(coarse, 30*time.Minute, 5)
	if err != nil {
		t.Fatalf("DisaggregateSeed failed: %v", err)
	}

	if fine.Len() != 4 {
		t.Fatalf("fine length = %d, want 4", fine.Len())
	}
	if fine.Time(0) != eventTestStart {
		t.Errorf("fine start = %v, want %v", fine.Time(0), eventTestStart)
	}
	if fine.Interval() != 30*time.Minute {
		t.Errorf("fine interval = %v, want 30m", fine.Interval())
	}
	if fine.Time(3) != eventTestStart.Add(90*time.Minute) {
		t.Errorf("last fine timestamp = %v", fine.Time(3))
	}
}

func TestDisaggregateReproducible(t *testing.T) {
	m := calibratedModel(t, activeParams())
	coarse := coarseGrid(t, time.Hour, []float64{5, 5, 5})

	a, err := m.DisaggregateSeed(coarse, 10*time.Minute, 17)
	if err != nil {
		t.Fatalf("first DisaggregateSeed failed: %v", err)
	}
	b, err := m.DisaggregateSeed(coarse, 10*time.Minute, 17)
	if err != nil {
		t.Fatalf("second DisaggregateSeed failed: %v", err)
	}

	av, bv := a.Values(), b.Values()
	for i := range av {
		if av[i] != bv[i] {
			t.Fatalf("same seed diverged at cell %d", i)
		}
	}
}

func TestDisaggregateIntervalsIndependentlySeeded(t *testing.T) {
	// Identical coarse values must not produce identical fine patterns:
	// each interval derives its own generator from (seed, index).
	m := calibratedModel(t, activeParams())
	coarse := coarseGrid(t, time.Hour, []float64{5, 5})

	fine, err := m.DisaggregateSeed(coarse, 10*time.Minute, 21)
	if err != nil {
		t.Fatalf("DisaggregateSeed failed: %v", err)
	}

	values := fine.Values()
	same := true
	for i := 0; i < 6; i++ {
		if values[i] != values[i+6] {
			same = false
			break
		}
	}
	if same {
		t.Error("intervals with equal totals produced identical patterns")
	}
}

func TestDisaggregateErrors(t *testing.T) {
	m := calibratedModel(t, activeParams())
	coarse := coarseGrid(t, time.Hour, []float64{1, 2})

	if _, err := m.Disaggregate(coarse, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero fine interval: expected ErrInvalidConfig, got %v", err)
	}
	if _, err := m.Disaggregate(coarse, 25*time.Minute); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("non-dividing fine interval: expected ErrInvalidConfig, got %v", err)
	}
	if _, err := m.Disaggregate(nil, 10*time.Minute); !errors.Is(err, timeseries.ErrInvalidSeries) {
		t.Errorf("nil coarse series: expected ErrInvalidSeries, got %v", err)
	}

	uncal := New()
	if _, err := uncal.Disaggregate(coarse, 10*time.Minute); !errors.Is(err, ErrNotCalibrated) {
		t.Errorf("uncalibrated: expected ErrNotCalibrated, got %v", err)
	}
}
