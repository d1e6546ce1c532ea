// Package flighttime estimates airborne time from a position trace by
// excluding long stationary intervals.
package flighttime

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/loggers/logbook/internal/domain/model"
)

// Default estimator configuration constants.
const (
	DefaultMovementThreshold = 100.0     // meters between consecutive samples
	DefaultStationaryLimit   = 900.0     // seconds of stationary time still credited
	MetersPerDegree          = 111_320.0 // planar approximation
	minSamples               = 2
)

// ErrEstimationDegraded is returned when no estimate could be computed and
// the caller should keep its fallback duration.
var ErrEstimationDegraded = errors.New("flight time estimation degraded")

// Estimate is the result of one computation.
type Estimate struct {
	Seconds  float64 // credited airborne time
	Excluded float64 // stationary time beyond the limit
	Samples  int
}

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithMovementThreshold sets the displacement (meters) below which two
// consecutive samples count as stationary.
func WithMovementThreshold(meters float64) Option {
	return func(e *Estimator) {
		if meters > 0 {
			e.movementThreshold = meters
		}
	}
}

// WithStationaryLimit sets how long (seconds) a stationary run is credited.
func WithStationaryLimit(seconds float64) Option {
	return func(e *Estimator) {
		if seconds > 0 {
			e.stationaryLimit = seconds
		}
	}
}

// Estimator computes airborne time. It is stateless between calls.
type Estimator struct {
	movementThreshold float64
	stationaryLimit   float64
}

// NewEstimator creates an estimator with configuration options.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		movementThreshold: DefaultMovementThreshold,
		stationaryLimit:   DefaultStationaryLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate sorts a copy of samples by time and walks consecutive pairs.
// Moving pairs are credited in full. Stationary pairs are credited until the
// current stationary run is older than the stationary limit; the tail of the
// run beyond that is excluded. Movement ends the run.
func (e *Estimator) Estimate(samples []model.Sample) (Estimate, error) {
	if len(samples) < minSamples {
		return Estimate{Samples: len(samples)}, fmt.Errorf("%w: %d samples", ErrEstimationDegraded, len(samples))
	}

	trace := make([]model.Sample, len(samples))
	copy(trace, samples)
	for _, s := range trace {
		if !finite(s.Lat) || !finite(s.Lon) || !finite(s.Time) {
			return Estimate{Samples: len(samples)}, fmt.Errorf("%w: non-finite sample", ErrEstimationDegraded)
		}
	}
	sort.SliceStable(trace, func(i, j int) bool { return trace[i].Time < trace[j].Time })

	est := Estimate{Samples: len(trace)}
	inRun := false
	runStart := 0.0
	for i := 1; i < len(trace); i++ {
		prev, cur := trace[i-1], trace[i]
		dt := cur.Time - prev.Time

		if distance(prev, cur) >= e.movementThreshold {
			inRun = false
			est.Seconds += dt
			continue
		}

		if !inRun {
			inRun = true
			runStart = prev.Time
		}
		credited := math.Min(cur.Time, runStart+e.stationaryLimit) - prev.Time
		credited = math.Max(0, credited)
		est.Seconds += credited
		est.Excluded += dt - credited
	}

	if !finite(est.Seconds) || est.Seconds < 0 {
		return Estimate{Samples: len(trace)}, fmt.Errorf("%w: invalid total", ErrEstimationDegraded)
	}
	return est, nil
}

// distance is the planar approximation of the displacement in meters.
func distance(a, b model.Sample) float64 {
	return math.Hypot(b.Lat-a.Lat, b.Lon-a.Lon) * MetersPerDegree
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
