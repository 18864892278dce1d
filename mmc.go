// Package mmc implements an interactive Magnetic Monte Carlo engine for
// classical lattice spin models: Metropolis sampling of a Heisenberg-plus-
// Landau Hamiltonian, optional thermodynamic integration between two
// lockstep Hamiltonians, optional metadynamics bias on the magnetization,
// and an optional deterministic spin-dynamics precession step.
//
// An Engine is configured incrementally — install a topology and/or Landau
// coefficients for one or both Hamiltonian indices, optionally set lambda,
// metadynamics, or spin dynamics — then driven with repeated calls to Run.
package mmc

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fumin/mmc/internal/metadynamics"
	"github.com/fumin/mmc/internal/proposal"
	"github.com/fumin/mmc/internal/rngstream"
	"github.com/fumin/mmc/internal/sweep"
	"github.com/fumin/mmc/internal/topology"
)

// defaultSeed seeds Engines constructed with New, giving reproducible runs
// without requiring every caller to thread a seed through the constructor.
const defaultSeed = 0x5eed

// defaultSpinDynamicsMaxAngle bounds the small-angle proposal kernel
// SwitchSpinDynamics installs, radians.
const defaultSpinDynamicsMaxAngle = 0.2

// Engine is a two-replica Metropolis chain over N sites. The zero value is
// not usable; construct with New or NewSeeded.
type Engine struct {
	chain *sweep.Chain
	rng   *rngstream.Stream
	seed  uint64

	ranAny bool
}

// New allocates an Engine of n sites, seeded deterministically so that two
// Engines built and driven identically reproduce the same trajectory.
func New(n int) (*Engine, error) {
	return NewSeeded(n, defaultSeed)
}

// NewSeeded allocates an Engine of n sites with an explicit 64-bit seed.
func NewSeeded(n int, seed uint64) (*Engine, error) {
	if n < 1 {
		return nil, errors.Wrap(ErrInvalidParameter, "n must be >= 1")
	}
	e := &Engine{
		chain: sweep.NewChain(n),
		rng:   rngstream.New(seed),
		seed:  seed,
	}
	e.chain.SyncAll()
	return e, nil
}

func (e *Engine) checkIndex(index int) error {
	if index != 0 && index != 1 {
		return errors.Wrapf(ErrInvalidParameter, "index %d must be 0 or 1", index)
	}
	return nil
}

// installTopology builds coo and installs it as Hamiltonian index's bond
// graph, replacing whatever topology was previously installed there.
func (e *Engine) installTopology(index int, coo *topology.COO) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	csr, err := coo.Build()
	if err != nil {
		return errors.Wrap(ErrInvalidTopology, err.Error())
	}
	e.chain.Replicas[index].Ham.SetTopology(csr)
	if index == 1 {
		e.chain.Active[1] = true
	}
	e.chain.SyncAll()
	return nil
}

// SetHeisenbergCoeff installs a Heisenberg bond graph for Hamiltonian index,
// one coupling constant j[k] per edge (i[k], jIdx[k]). Duplicate edges are
// summed; self-loops (i[k] == jIdx[k]) are accumulated separately from
// off-diagonal bonds. Replaces any topology previously installed at index.
func (e *Engine) SetHeisenbergCoeff(j []float64, i, jIdx []int, index int) error {
	coo, err := topology.FromArray(e.chain.N, j, i, jIdx)
	if err != nil {
		return errors.Wrap(ErrInvalidTopology, err.Error())
	}
	return e.installTopology(index, coo)
}

// SetHeisenbergCoeffScalar installs a Heisenberg bond graph where every edge
// in (i[k], jIdx[k]) shares the same coupling constant j.
func (e *Engine) SetHeisenbergCoeffScalar(j float64, i, jIdx []int, index int) error {
	coo, err := topology.FromScalar(e.chain.N, j, i, jIdx)
	if err != nil {
		return errors.Wrap(ErrInvalidTopology, err.Error())
	}
	return e.installTopology(index, coo)
}

// SetHeisenbergCoeffCOO installs a Heisenberg bond graph from a caller-built
// coordinate-format triplet list, the Go analogue of constructing a
// scipy.sparse.coo_matrix from (data, (row, col)) arrays.
func (e *Engine) SetHeisenbergCoeffCOO(entries []topology.Entry, index int) error {
	coo := topology.FromEntries(e.chain.N, entries)
	return e.installTopology(index, coo)
}

// SetHeisenbergCoeffCSR installs a Heisenberg bond graph from a
// scipy.sparse.csr_matrix-style (indptr, indices, data) triple.
func (e *Engine) SetHeisenbergCoeffCSR(indptr, indices []int, data []float64, index int) error {
	coo, err := topology.FromCSRArrays(e.chain.N, indptr, indices, data)
	if err != nil {
		return errors.Wrap(ErrInvalidTopology, err.Error())
	}
	return e.installTopology(index, coo)
}

// SetLandauCoeff sets the coefficient of mu^n in Hamiltonian index's on-site
// polynomial. n must be one of 2, 4, 6, 8, 10.
func (e *Engine) SetLandauCoeff(a float64, n int, index int) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	if err := e.chain.Replicas[index].Ham.SetLandauCoeff(a, n); err != nil {
		return errors.Wrap(ErrInvalidExponent, err.Error())
	}
	if index == 1 {
		e.chain.Active[1] = true
	}
	e.chain.SyncAll()
	return nil
}

// SetLambda sets the thermodynamic-integration mixing fraction, the weight
// given to Hamiltonian index 1's energy delta relative to index 0's.
func (e *Engine) SetLambda(lambda float64) error {
	if lambda < 0 || lambda > 1 {
		return errors.Wrap(ErrInvalidParameter, "lambda must be in [0, 1]")
	}
	e.chain.Lambda = lambda
	return nil
}

// SetMetadynamics enables a history-dependent Gaussian bias on the z-
// component of the system magnetization, ranging over
// [-maxRange, +maxRange]. nBins, height, and width may be left at their
// zero value to fall back to DefaultOptions(maxRange).
func (e *Engine) SetMetadynamics(maxRange float64, nBins int, height, width float64) error {
	if maxRange <= 0 {
		return errors.Wrap(ErrInvalidParameter, "max_range must be positive")
	}
	e.chain.Bias = metadynamics.New(maxRange, metadynamics.Options{NBins: nBins, Height: height, Width: width})
	e.chain.SyncAll()
	return nil
}

// SwitchSpinDynamics toggles the deterministic precession step between
// sweeps. Turning it on also switches the stochastic proposal kernel from a
// full isotropic resample to a bounded small-angle rotation, so the
// stochastic moves do not erase the correlations precession builds up;
// turning it off reverts to the isotropic kernel.
func (e *Engine) SwitchSpinDynamics() {
	e.chain.SpinDynamics = !e.chain.SpinDynamics
	if e.chain.SpinDynamics {
		e.chain.Kernel = proposal.NewSmallAngle(defaultSpinDynamicsMaxAngle)
	} else {
		e.chain.Kernel = proposal.NewIsotropic()
	}
}

// Run drives the chain for numberOfIterations sweeps at the given
// temperature (k_B = 1, so beta = 1/temperature). An optional seed
// reseeds the Engine's random stream before sweeping, for reproducing a
// trajectory exactly; omitted, the stream continues from wherever the
// previous Run left it.
func (e *Engine) Run(temperature, numberOfIterations float64, seed ...uint64) error {
	if temperature <= 0 {
		return errors.Wrap(ErrInvalidParameter, "temperature must be positive")
	}
	if numberOfIterations <= 0 {
		return errors.Wrap(ErrInvalidParameter, "number_of_iterations must be positive")
	}
	if len(seed) > 0 {
		e.seed = seed[0]
		e.rng = rngstream.New(e.seed)
	}

	beta := 1 / temperature
	n := int(numberOfIterations)
	for s := 0; s < n; s++ {
		e.chain.Sweep(e.rng, beta)
	}
	e.ranAny = true
	return nil
}

func (e *Engine) checkReady(index int) error {
	if err := e.checkIndex(index); err != nil {
		return err
	}
	if !e.ranAny {
		return errors.WithStack(ErrNotInitialized)
	}
	if index == 1 && !e.chain.Active[1] {
		return errors.Wrap(ErrNotInitialized, "replica 1 has no topology or landau coefficient installed")
	}
	return nil
}

// GetEnergy returns Hamiltonian index's current total energy, which is
// also the last sample appended to its energy time series.
func (e *Engine) GetEnergy(index int) (float64, error) {
	if err := e.checkReady(index); err != nil {
		return 0, err
	}
	return e.chain.Replicas[index].Obs.LastEnergy(), nil
}

// GetEnergyVariance returns the sample variance of Hamiltonian index's
// energy time series accumulated across every Run call since construction
// or the last Reset.
func (e *Engine) GetEnergyVariance(index int) (float64, error) {
	if err := e.checkReady(index); err != nil {
		return 0, err
	}
	return e.chain.Replicas[index].Obs.EnergyVariance(), nil
}

// GetEnergyMean returns the sample mean of Hamiltonian index's energy time
// series accumulated across every Run call since construction or the last
// Reset, the numerator thermodynamic integration needs to estimate <E>_lambda.
func (e *Engine) GetEnergyMean(index int) (float64, error) {
	if err := e.checkReady(index); err != nil {
		return 0, err
	}
	return e.chain.Replicas[index].Obs.EnergyMean(), nil
}

// GetAcceptanceRatio returns the cumulative fraction of accepted single-site
// moves since construction or the last Reset.
func (e *Engine) GetAcceptanceRatio() (float64, error) {
	if !e.ranAny {
		return 0, errors.WithStack(ErrNotInitialized)
	}
	ratio, ok := e.chain.Replicas[0].Obs.AcceptanceRatio()
	if !ok {
		return 0, errors.WithStack(ErrNotInitialized)
	}
	return ratio, nil
}

// GetMagneticMoments returns the current (spin, magnitude) state of every
// site as moment vectors mu_k*s_k.
func (e *Engine) GetMagneticMoments() ([]r3.Vec, error) {
	if !e.ranAny {
		return nil, errors.WithStack(ErrNotInitialized)
	}
	return e.chain.Replicas[0].Store.Moments(), nil
}

// GetMagnetization returns the per-sweep ||sum(mu*s)||/N time series
// accumulated since construction or the last Reset.
func (e *Engine) GetMagnetization() ([]float64, error) {
	if !e.ranAny {
		return nil, errors.WithStack(ErrNotInitialized)
	}
	return e.chain.Replicas[0].Obs.Magnetization, nil
}

// GetMetadynamicsFreeEnergy returns the bias histogram's bin-center
// magnetizations and their free energies -V(m), i.e.
// get_metadynamics_free_energy()'s "magnetization"/"free_energy" pair.
func (e *Engine) GetMetadynamicsFreeEnergy() (magnetization, freeEnergy []float64, err error) {
	if !e.ranAny {
		return nil, nil, errors.WithStack(ErrNotInitialized)
	}
	if e.chain.Bias == nil {
		return nil, nil, errors.Wrap(ErrNotInitialized, "metadynamics not enabled")
	}
	magnetization, freeEnergy = e.chain.Bias.FreeEnergy()
	return magnetization, freeEnergy, nil
}

// Reset clears every active replica's accumulated time series and
// accept/reject counters, without touching spins, topology, or coefficients.
func (e *Engine) Reset() {
	e.chain.Replicas[0].Obs.Reset()
	if e.chain.Active[1] {
		e.chain.Replicas[1].Obs.Reset()
	}
}

// N returns the number of lattice sites.
func (e *Engine) N() int {
	return e.chain.N
}
