// Package params defines the calibrated Bartlett-Lewis parameter record and
// pluggable persistence backends for it.
package params

import (
	"fmt"
	"math"
)

// Parameters holds the five calibrated Bartlett-Lewis process parameters.
type Parameters struct {
	// Lambda is the storm arrival rate, in storms per day.
	Lambda float64 `json:"lambda" yaml:"lambda"`
	// Beta is the mean number of pulses per storm.
	Beta float64 `json:"beta" yaml:"beta"`
	// Gamma is the inverse of the mean pulse inter-arrival time, per minute.
	Gamma float64 `json:"gamma" yaml:"gamma"`
	// Eta is the inverse of the mean pulse duration, per minute.
	Eta float64 `json:"eta" yaml:"eta"`
	// Mu is the mean pulse intensity, in mm per minute.
	Mu float64 `json:"mu" yaml:"mu"`
}

// Validate checks that all five fields are finite and that the rate
// parameters are strictly positive.
func (p Parameters) Validate() error {
	fields := map[string]float64{
		"lambda": p.Lambda,
		"beta":   p.Beta,
		"gamma":  p.Gamma,
		"eta":    p.Eta,
		"mu":     p.Mu,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("parameter %s is not finite: %v", name, v)
		}
	}
	if p.Gamma <= 0 {
		return fmt.Errorf("parameter gamma must be positive, got %v", p.Gamma)
	}
	if p.Eta <= 0 {
		return fmt.Errorf("parameter eta must be positive, got %v", p.Eta)
	}
	if p.Mu <= 0 {
		return fmt.Errorf("parameter mu must be positive, got %v", p.Mu)
	}
	return nil
}

// Provider abstracts the storage backend for named parameter sets.
type Provider interface {
	// Load retrieves the parameter set stored under name.
	Load(name string) (Parameters, error)

	// Save stores the parameter set under name, replacing any existing
	// record with that name.
	Save(name string, p Parameters) error

	// List returns the names of all stored parameter sets.
	List() ([]string, error)

	// Close releases any resources held by the provider.
	Close() error
}

// NewProvider creates a provider for the given backend type. Supported
// backends are "yaml" and "sqlite".
func NewProvider(backend, path string) (Provider, error) {
	switch backend {
	case "yaml":
		return NewYAMLProvider(path), nil
	case "sqlite":
		return NewSQLiteProvider(path)
	default:
		return nil, fmt.Errorf("unsupported params backend: %s. Use 'yaml' or 'sqlite'", backend)
	}
}
