// Package observable accumulates per-sweep energy and magnetization
// time series plus the cumulative accept/reject counters, and derives the
// variance/acceptance-ratio estimators on demand via gonum/stat.
package observable

import "gonum.org/v1/gonum/stat"

// Series holds one replica's observable history.
type Series struct {
	Energy        []float64
	Magnetization []float64

	Accepts int64
	Rejects int64
}

// New returns an empty series.
func New() *Series {
	return &Series{}
}

// AppendSweep records the state at the end of one sweep.
func (s *Series) AppendSweep(energy, magnetization float64) {
	s.Energy = append(s.Energy, energy)
	s.Magnetization = append(s.Magnetization, magnetization)
}

// RecordAccept increments the cumulative accept counter.
func (s *Series) RecordAccept() { s.Accepts++ }

// RecordReject increments the cumulative reject counter.
func (s *Series) RecordReject() { s.Rejects++ }

// LastEnergy returns the most recently recorded energy, or 0 if none has
// been recorded yet.
func (s *Series) LastEnergy() float64 {
	if len(s.Energy) == 0 {
		return 0
	}
	return s.Energy[len(s.Energy)-1]
}

// EnergyVariance returns the sample variance of the energy time series.
func (s *Series) EnergyVariance() float64 {
	if len(s.Energy) < 2 {
		return 0
	}
	return stat.Variance(s.Energy, nil)
}

// EnergyMean returns the sample mean of the energy time series.
func (s *Series) EnergyMean() float64 {
	if len(s.Energy) == 0 {
		return 0
	}
	return stat.Mean(s.Energy, nil)
}

// AcceptanceRatio returns accepts / (accepts + rejects), cumulative across
// every Run call since construction or the last Reset.
func (s *Series) AcceptanceRatio() (float64, bool) {
	total := s.Accepts + s.Rejects
	if total == 0 {
		return 0, false
	}
	return float64(s.Accepts) / float64(total), true
}

// Reset clears the time series and the accept/reject counters.
func (s *Series) Reset() {
	s.Energy = s.Energy[:0]
	s.Magnetization = s.Magnetization[:0]
	s.Accepts = 0
	s.Rejects = 0
}
