// Package sweep executes Metropolis sweeps over one or two lockstep
// replicas, folding in an optional metadynamics bias and an optional
// deterministic spin-dynamics precession step between sweeps.
package sweep

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fumin/mmc/internal/hamiltonian"
	"github.com/fumin/mmc/internal/metadynamics"
	"github.com/fumin/mmc/internal/observable"
	"github.com/fumin/mmc/internal/proposal"
	"github.com/fumin/mmc/internal/rngstream"
	"github.com/fumin/mmc/internal/spinstore"
)

// Replica is the (spin-store, Hamiltonian, energy-accumulator) triple
// spec.md section 9 describes.
type Replica struct {
	Store  *spinstore.Store
	Ham    *hamiltonian.Hamiltonian
	Obs    *observable.Series
	Energy float64
}

// NewReplica allocates a replica of n sites with an empty Hamiltonian.
func NewReplica(n int) *Replica {
	return &Replica{
		Store: spinstore.New(n),
		Ham:   hamiltonian.New(),
		Obs:   observable.New(),
	}
}

// Sync recomputes Energy from scratch against the current spin
// configuration, used after construction and after a spin-dynamics step.
func (r *Replica) Sync() {
	r.Energy = r.Ham.Total(r.Store)
}

// Chain owns the shared state of a (possibly two-replica) Metropolis chain:
// the spins, the installed Hamiltonians, the lambda-mixing fraction, the
// proposal kernel, and the optional metadynamics bias.
type Chain struct {
	N int

	Replicas [2]*Replica
	// Active[1] is true once the caller has installed a topology or
	// Landau coefficient for replica index 1; replica 0 is always
	// active.
	Active [2]bool
	Lambda float64

	Kernel *proposal.Kernel
	Bias   *metadynamics.Bias

	SpinDynamics bool
	Dt           float64

	// m is the incrementally tracked z-component of the system
	// magnetization, the collective variable metadynamics biases.
	m float64
}

// NewChain allocates a two-replica chain of n sites each, with the default
// isotropic proposal kernel and replica 1 inactive.
func NewChain(n int) *Chain {
	return &Chain{
		N:        n,
		Replicas: [2]*Replica{NewReplica(n), NewReplica(n)},
		Active:   [2]bool{true, false},
		Kernel:   proposal.NewIsotropic(),
		Dt:       0.01,
	}
}

// SyncAll recomputes every active replica's energy from scratch and
// refreshes the tracked magnetization. Call after any topology/coefficient
// mutation and once before the first sweep.
func (c *Chain) SyncAll() {
	c.Replicas[0].Sync()
	if c.Active[1] {
		c.Replicas[1].Sync()
	}
	c.m = c.Replicas[0].Store.Magnetization().Z
}

// MagnetizationNorm returns ||sum(mu*s)|| / N against replica 0's spin
// configuration, the per-sweep scalar recorded in observable buffers.
func (c *Chain) MagnetizationNorm() float64 {
	return c.Replicas[0].Store.MagnetizationNorm()
}

// Sweep performs N attempted single-site updates at inverse temperature
// beta, then (if enabled) the spin-dynamics precession step, then appends
// one sample to each active replica's observable series and, if
// metadynamics is enabled, deposits one bias kernel.
func (c *Chain) Sweep(rng *rngstream.Stream, beta float64) {
	r0, r1 := c.Replicas[0], c.Replicas[1]

	for attempt := 0; attempt < c.N; attempt++ {
		k := rng.IntN(c.N)
		s, mu := r0.Store.Get(k)
		sNew, muNew := c.Kernel.Propose(rng, s, mu)

		d0 := r0.Ham.Delta(r0.Store, k, sNew, muNew)
		var d1 float64
		if c.Active[1] {
			d1 = r1.Ham.Delta(r1.Store, k, sNew, muNew)
		}
		mixed := d0
		if c.Active[1] {
			mixed = (1-c.Lambda)*d0 + c.Lambda*d1
		}

		var deltaBias, mNew float64
		if c.Bias != nil {
			contribOld := mu * s.Z
			contribNew := muNew * sNew.Z
			mNew = c.m + (contribNew-contribOld)/float64(c.N)
			deltaBias = c.Bias.V(mNew) - c.Bias.V(c.m)
		}

		delta := mixed + deltaBias
		if accept(rng, beta, delta) {
			r0.Store.Set(k, sNew, muNew)
			r0.Energy += d0
			r0.Obs.RecordAccept()
			if c.Active[1] {
				r1.Store.Set(k, sNew, muNew)
				r1.Energy += d1
			}
			if c.Bias != nil {
				c.m = mNew
			}
		} else {
			r0.Obs.RecordReject()
		}
	}

	if c.SpinDynamics {
		c.precess(r0)
		if c.Active[1] {
			c.precess(r1)
		}
		c.SyncAll()
	}

	mNorm := c.MagnetizationNorm()
	r0.Obs.AppendSweep(r0.Energy, mNorm)
	if c.Active[1] {
		r1.Obs.AppendSweep(r1.Energy, mNorm)
	}

	if c.Bias != nil {
		c.Bias.Deposit(c.m)
	}
}

// precess applies the deterministic Landau-Lifshitz-like rotation
// s_k <- R(omega_k, dt)*s_k to every site, computed from a snapshot of the
// configuration so that all sites rotate simultaneously rather than seeing
// each other's updated spins mid-step.
func (c *Chain) precess(r *Replica) {
	n := r.Store.N()
	omegas := make([]r3.Vec, n)
	for k := 0; k < n; k++ {
		omegas[k] = r.Ham.EffectiveField(r.Store, k)
	}

	for k := 0; k < n; k++ {
		s, mu := r.Store.Get(k)
		omega := omegas[k]
		theta := r3.Norm(omega) * c.Dt
		if theta == 0 {
			continue
		}
		axis := r3.Scale(1/r3.Norm(omega), omega)
		r.Store.Set(k, proposal.Rodrigues(s, axis, theta), mu)
	}
}

// accept applies the Metropolis criterion, clamping beta*delta so that
// math.Exp never overflows: a sufficiently large positive exponent is
// treated as a guaranteed rejection.
func accept(rng *rngstream.Stream, beta, delta float64) bool {
	if delta <= 0 {
		return true
	}
	x := beta * delta
	const maxExpArg = 700
	if x > maxExpArg {
		return false
	}
	return rng.Uniform() < math.Exp(-x)
}
