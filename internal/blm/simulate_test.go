package blm

import (
	"errors"
	"testing"
	"time"

	"github.com/lildrip/lildrip/pkg/params"
)

func paramsWith(lambda, beta, gamma, eta, mu float64) params.Parameters {
	return params.Parameters{Lambda: lambda, Beta: beta, Gamma: gamma, Eta: eta, Mu: mu}
}

func calibratedModel(t *testing.T, p params.Parameters) *Model {
	t.Helper()
	m, err := NewCalibrated(p)
	if err != nil {
		t.Fatalf("NewCalibrated failed: %v", err)
	}
	return m
}

// activeParams describe a busy process so simulations are very unlikely to
// come out all zero.
func activeParams() params.Parameters {
	return paramsWith(300, 3, 0.05, 0.02, 1.5)
}

func TestGenerateLength(t *testing.T) {
	tests := []struct {
		total time.Duration
		step  time.Duration
		want  int
	}{
		{60 * time.Minute, 10 * time.Minute, 6},
		{24 * time.Hour, 10 * time.Minute, 144},
		{time.Hour, time.Hour, 1},
		{65 * time.Minute, 10 * time.Minute, 6}, // truncated
	}

	for _, tt := range tests {
		for seed := uint64(0); seed < 5; seed++ {
			m := calibratedModel(t, activeParams())
			g, err := m.GenerateSeed(tt.total, tt.step, seed)
			if err != nil {
				t.Fatalf("GenerateSeed(%v, %v, %d) failed: %v", tt.total, tt.step, seed, err)
			}
			if g.Len() != tt.want {
				t.Errorf("GenerateSeed(%v, %v, %d) length = %d, want %d", tt.total, tt.step, seed, g.Len(), tt.want)
			}
			if g.Interval() != tt.step && g.Len() > 1 {
				t.Errorf("output interval = %v, want %v", g.Interval(), tt.step)
			}
		}
	}
}

func TestGenerateLengthInvariantAcrossParameters(t *testing.T) {
	// A quiet process still produces the full (all-zero) grid.
	m := calibratedModel(t, paramsWith(0, 1, 1, 1, 1))
	g, err := m.GenerateSeed(60*time.Minute, 10*time.Minute, 1)
	if err != nil {
		t.Fatalf("GenerateSeed failed: %v", err)
	}
	if g.Len() != 6 {
		t.Errorf("length = %d, want 6", g.Len())
	}
	if g.Sum() != 0 {
		t.Errorf("zero-rate process generated rain: %v", g.Values())
	}
}

func TestGenerateReproducible(t *testing.T) {
	m := calibratedModel(t, activeParams())

	a, err := m.GenerateSeed(24*time.Hour, 10*time.Minute, 42)
	if err != nil {
		t.Fatalf("first GenerateSeed failed: %v", err)
	}
	b, err := m.GenerateSeed(24*time.Hour, 10*time.Minute, 42)
	if err != nil {
		t.Fatalf("second GenerateSeed failed: %v", err)
	}

	av, bv := a.Values(), b.Values()
	for i := range av {
		if av[i] != bv[i] {
			t.Fatalf("same seed diverged at cell %d: %v vs %v", i, av[i], bv[i])
		}
	}

	c, err := m.GenerateSeed(24*time.Hour, 10*time.Minute, 43)
	if err != nil {
		t.Fatalf("third GenerateSeed failed: %v", err)
	}
	cv := c.Values()
	same := true
	for i := range av {
		if av[i] != cv[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical series")
	}
}

func TestGenerateNonNegative(t *testing.T) {
	m := calibratedModel(t, activeParams())
	g, err := m.GenerateSeed(24*time.Hour, 10*time.Minute, 7)
	if err != nil {
		t.Fatalf("GenerateSeed failed: %v", err)
	}
	for i, v := range g.Values() {
		if v < 0 {
			t.Errorf("cell %d is negative: %v", i, v)
		}
	}
	if g.Sum() == 0 {
		t.Error("active process generated no rain at all")
	}
}

func TestGenerateInvalidArguments(t *testing.T) {
	m := calibratedModel(t, activeParams())

	if _, err := m.Generate(time.Hour, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero interval: expected ErrInvalidConfig, got %v", err)
	}
	if _, err := m.Generate(0, 10*time.Minute); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero duration: expected ErrInvalidConfig, got %v", err)
	}
}

func TestGenerateUnseeded(t *testing.T) {
	m := calibratedModel(t, activeParams())
	g, err := m.Generate(time.Hour, 10*time.Minute)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if g.Len() != 6 {
		t.Errorf("length = %d, want 6", g.Len())
	}
}
