// Package spinstore holds the per-replica spin configuration: a unit
// 3-vector and a moment magnitude for every site.
package spinstore

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Store is the single writable state touched during a Metropolis sweep.
// It is not safe for concurrent access; the engine owns it exclusively
// between Run invocations.
type Store struct {
	n  int
	s  []r3.Vec
	mu []float64
}

// New allocates a store of n sites, each initialized to an arbitrary unit
// spin (pointing along +z) with moment magnitude 1.
func New(n int) *Store {
	st := &Store{n: n, s: make([]r3.Vec, n), mu: make([]float64, n)}
	for k := range st.s {
		st.s[k] = r3.Vec{X: 0, Y: 0, Z: 1}
		st.mu[k] = 1
	}
	return st
}

// N returns the number of sites.
func (st *Store) N() int { return st.n }

// Get returns the spin direction and moment magnitude at site k.
func (st *Store) Get(k int) (r3.Vec, float64) {
	return st.s[k], st.mu[k]
}

// Set commits a new spin and magnitude at site k. s is renormalized to
// unit length; mu is clamped at 0.
func (st *Store) Set(k int, s r3.Vec, mu float64) {
	norm := r3.Norm(s)
	if norm > 0 {
		s = r3.Vec{X: s.X / norm, Y: s.Y / norm, Z: s.Z / norm}
	}
	if mu < 0 {
		mu = 0
	}
	st.s[k] = s
	st.mu[k] = mu
}

// Moment returns the magnetic moment vector mu*s at site k.
func (st *Store) Moment(k int) r3.Vec {
	return r3.Scale(st.mu[k], st.s[k])
}

// Moments returns the array of magnetic moment vectors mu*s for every site,
// i.e. get_magnetic_moments().
func (st *Store) Moments() []r3.Vec {
	out := make([]r3.Vec, st.n)
	for k := range out {
		out[k] = st.Moment(k)
	}
	return out
}

// Magnetization returns sum(mu*s) / N.
func (st *Store) Magnetization() r3.Vec {
	var sum r3.Vec
	for k := range st.s {
		sum = r3.Add(sum, st.Moment(k))
	}
	return r3.Scale(1/float64(st.n), sum)
}

// MagnetizationNorm returns ||sum(mu*s)|| / N, the scalar order parameter
// recorded once per sweep.
func (st *Store) MagnetizationNorm() float64 {
	m := st.Magnetization()
	return math.Sqrt(r3.Dot(m, m))
}
