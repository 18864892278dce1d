package mmc

import (
	"errors"
	"math"
	"testing"

	"github.com/fumin/mmc/internal/topology"
)

// chainNeighbors returns the i, j index arrays of a 1-D nearest-neighbor
// chain over n sites, the neighbor list every scenario below builds its
// Heisenberg bonds from.
func chainNeighbors(n int) (i, j []int) {
	for k := 0; k < n-1; k++ {
		i = append(i, k)
		j = append(j, k+1)
	}
	return i, j
}

func TestHeisenbergEquilibration(t *testing.T) {
	t.Parallel()
	n := 10
	i, j := chainNeighbors(n)
	eng, err := New(n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.SetHeisenbergCoeffScalar(0.1, i, j, 0); err != nil {
		t.Fatalf("SetHeisenbergCoeffScalar: %v", err)
	}
	if err := eng.Run(300, 1000); err != nil {
		t.Fatalf("Run: %v", err)
	}

	energy, err := eng.GetEnergy(0)
	if err != nil {
		t.Fatalf("GetEnergy: %v", err)
	}
	if energy >= 0 {
		t.Errorf("energy %f, want < 0 for a ferromagnetic chain", energy)
	}

	ratio, err := eng.GetAcceptanceRatio()
	if err != nil {
		t.Fatalf("GetAcceptanceRatio: %v", err)
	}
	if ratio <= 0 || ratio >= 1 {
		t.Errorf("acceptance ratio %f, want strictly between 0 and 1", ratio)
	}

	variance, err := eng.GetEnergyVariance(0)
	if err != nil {
		t.Fatalf("GetEnergyVariance: %v", err)
	}
	if variance <= 0 {
		t.Errorf("energy variance %f, want > 0", variance)
	}
}

func TestLandauTerm(t *testing.T) {
	t.Parallel()
	n := 8
	i, j := chainNeighbors(n)
	eng, err := New(n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.SetHeisenbergCoeffScalar(0.1, i, j, 0); err != nil {
		t.Fatalf("SetHeisenbergCoeffScalar: %v", err)
	}
	if err := eng.SetLandauCoeff(-0.1, 2, 0); err != nil {
		t.Fatalf("SetLandauCoeff(a2): %v", err)
	}
	if err := eng.SetLandauCoeff(0.01, 4, 0); err != nil {
		t.Fatalf("SetLandauCoeff(a4): %v", err)
	}
	if err := eng.Run(300, 1000); err != nil {
		t.Fatalf("Run: %v", err)
	}

	energy, err := eng.GetEnergy(0)
	if err != nil {
		t.Fatalf("GetEnergy: %v", err)
	}
	if energy >= 0 {
		t.Errorf("energy %f, want < 0", energy)
	}

	moments, err := eng.GetMagneticMoments()
	if err != nil {
		t.Fatalf("GetMagneticMoments: %v", err)
	}
	var sum, sumSq float64
	for _, m := range moments {
		norm := math.Sqrt(m.X*m.X + m.Y*m.Y + m.Z*m.Z)
		sum += norm
		sumSq += norm * norm
	}
	mean := sum / float64(len(moments))
	variance := sumSq/float64(len(moments)) - mean*mean
	if variance <= 0 {
		t.Errorf("variance(||mu||) = %f, want > 0 with a fluctuating Landau term", variance)
	}
}

func TestInvalidTopology(t *testing.T) {
	t.Parallel()
	i := []int{2}
	j := []int{5}
	n := 5 // max(i, j) = 5, but valid sites are 0..4
	eng, err := New(n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = eng.SetHeisenbergCoeffScalar(1.0, i, j, 0)
	if err == nil {
		t.Fatalf("expected ErrInvalidTopology for out-of-range site 5")
	}
	if !errors.Is(err, ErrInvalidTopology) {
		t.Errorf("error %v does not wrap ErrInvalidTopology", err)
	}
}

func TestLandauExponentValidation(t *testing.T) {
	t.Parallel()
	eng, err := New(3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := eng.SetLandauCoeff(1.0, 3, 0); err == nil {
		t.Fatalf("expected ErrInvalidExponent for n=3")
	} else if !errors.Is(err, ErrInvalidExponent) {
		t.Errorf("error %v does not wrap ErrInvalidExponent", err)
	}

	if err := eng.SetLandauCoeff(1.0, 12, 0); err == nil {
		t.Fatalf("expected ErrInvalidExponent for n=12")
	} else if !errors.Is(err, ErrInvalidExponent) {
		t.Errorf("error %v does not wrap ErrInvalidExponent", err)
	}
}

func TestThermodynamicIntegration(t *testing.T) {
	t.Parallel()
	n := 8
	i, j := chainNeighbors(n)
	eng, err := New(n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.SetHeisenbergCoeffScalar(0.1, i, j, 0); err != nil {
		t.Fatalf("SetHeisenbergCoeffScalar(0): %v", err)
	}
	if err := eng.SetHeisenbergCoeffScalar(-0.03, i, j, 1); err != nil {
		t.Fatalf("SetHeisenbergCoeffScalar(1): %v", err)
	}
	if err := eng.SetLambda(0.5); err != nil {
		t.Fatalf("SetLambda: %v", err)
	}
	if err := eng.Run(300, 100); err != nil {
		t.Fatalf("Run: %v", err)
	}

	e0, err := eng.GetEnergy(0)
	if err != nil {
		t.Fatalf("GetEnergy(0): %v", err)
	}
	e1, err := eng.GetEnergy(1)
	if err != nil {
		t.Fatalf("GetEnergy(1): %v", err)
	}
	if e0 >= e1 {
		t.Errorf("E(replica 0) = %f, E(replica 1) = %f, want E0 < E1 (antiferromagnetic H1)", e0, e1)
	}
}

func TestMetadynamics(t *testing.T) {
	t.Parallel()
	n := 6
	i, j := chainNeighbors(n)
	eng, err := New(n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.SetHeisenbergCoeffScalar(0.1, i, j, 0); err != nil {
		t.Fatalf("SetHeisenbergCoeffScalar: %v", err)
	}
	if err := eng.SetMetadynamics(1.0, 0, 0, 0); err != nil {
		t.Fatalf("SetMetadynamics: %v", err)
	}
	if err := eng.Run(300, 100); err != nil {
		t.Fatalf("Run: %v", err)
	}

	magnetization, freeEnergy, err := eng.GetMetadynamicsFreeEnergy()
	if err != nil {
		t.Fatalf("GetMetadynamicsFreeEnergy: %v", err)
	}
	if len(magnetization) < 2 {
		t.Fatalf("len(magnetization) = %d, want >= 2", len(magnetization))
	}

	first := magnetization[1] - magnetization[0]
	for k := 2; k < len(magnetization); k++ {
		diff := magnetization[k] - magnetization[k-1]
		if math.Abs(diff-first) > 1e-9 {
			t.Errorf("magnetization spacing at %d = %f, want %f (uniform bins)", k, diff, first)
		}
	}

	for k, fe := range freeEnergy {
		if fe > 1e-9 {
			t.Errorf("free_energy[%d] = %f, want <= 0", k, fe)
		}
	}
}

func TestSpinDynamics(t *testing.T) {
	t.Parallel()
	n := 8
	i, j := chainNeighbors(n)
	eng, err := New(n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.SetHeisenbergCoeffScalar(0.1, i, j, 0); err != nil {
		t.Fatalf("SetHeisenbergCoeffScalar: %v", err)
	}
	eng.SwitchSpinDynamics()
	if err := eng.Run(300, 200); err != nil {
		t.Fatalf("Run: %v", err)
	}

	energy, err := eng.GetEnergy(0)
	if err != nil {
		t.Fatalf("GetEnergy: %v", err)
	}
	if energy >= 0 {
		t.Errorf("energy %f, want < 0", energy)
	}

	moments, err := eng.GetMagneticMoments()
	if err != nil {
		t.Fatalf("GetMagneticMoments: %v", err)
	}
	for k, m := range moments {
		norm := math.Sqrt(m.X*m.X + m.Y*m.Y + m.Z*m.Z)
		if math.Abs(norm-1) > 1e-6 {
			t.Errorf("site %d: |moment| = %f, want 1 (mu was never perturbed)", k, norm)
		}
	}
}

func TestCOOAndCSREquivalence(t *testing.T) {
	t.Parallel()
	n := 4
	entries := []topology.Entry{
		{I: 0, J: 1, Val: 0.2},
		{I: 1, J: 2, Val: 0.2},
		{I: 2, J: 3, Val: 0.2},
	}

	cooEng, err := New(n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := cooEng.SetHeisenbergCoeffCOO(entries, 0); err != nil {
		t.Fatalf("SetHeisenbergCoeffCOO: %v", err)
	}

	indptr := []int{0, 1, 2, 3, 3}
	indices := []int{1, 2, 3}
	data := []float64{0.2, 0.2, 0.2}
	csrEng, err := New(n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := csrEng.SetHeisenbergCoeffCSR(indptr, indices, data, 0); err != nil {
		t.Fatalf("SetHeisenbergCoeffCSR: %v", err)
	}

	// Listing every COO entry twice must sum the couplings, mirroring
	// "mat = mat + mat" in the original test suite; verify against the
	// COO engine scaled accordingly.
	dupEntries := make([]topology.Entry, 0, 2*len(entries))
	for _, e := range entries {
		dupEntries = append(dupEntries, e, e)
	}
	dupEng, err := New(n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := dupEng.SetHeisenbergCoeffCOO(dupEntries, 0); err != nil {
		t.Fatalf("SetHeisenbergCoeffCOO (duplicated): %v", err)
	}

	// Compare the freshly-installed energies directly, before any
	// Metropolis move has had a chance to perturb the spins: mutators
	// call SyncAll internally, so Replicas[0].Energy already reflects
	// the installed topology.
	eCOO := cooEng.chain.Replicas[0].Energy
	eCSR := csrEng.chain.Replicas[0].Energy
	eDup := dupEng.chain.Replicas[0].Energy

	if math.Abs(eCOO-eCSR) > 1e-9 {
		t.Errorf("E(coo) = %f != E(csr) = %f", eCOO, eCSR)
	}
	if math.Abs(2*eCOO-eDup) > 1e-9 {
		t.Errorf("E(duplicated coo) = %f, want 2*E(coo) = %f", eDup, 2*eCOO)
	}
}

func TestAccessorsBeforeRunReturnErrNotInitialized(t *testing.T) {
	t.Parallel()
	eng, err := New(3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := eng.GetEnergy(0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GetEnergy before Run: %v, want ErrNotInitialized", err)
	}
	if _, err := eng.GetAcceptanceRatio(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GetAcceptanceRatio before Run: %v, want ErrNotInitialized", err)
	}
}

func TestSetLambdaOutOfRange(t *testing.T) {
	t.Parallel()
	eng, err := New(2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.SetLambda(1.5); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("SetLambda(1.5) = %v, want ErrInvalidParameter", err)
	}
}

func TestNewSeededReproducesTrajectory(t *testing.T) {
	t.Parallel()
	n := 6
	i, j := chainNeighbors(n)
	build := func() *Engine {
		eng, err := NewSeeded(n, 4242)
		if err != nil {
			t.Fatalf("NewSeeded: %v", err)
		}
		if err := eng.SetHeisenbergCoeffScalar(0.2, i, j, 0); err != nil {
			t.Fatalf("SetHeisenbergCoeffScalar: %v", err)
		}
		if err := eng.Run(100, 50); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return eng
	}

	a, b := build(), build()
	ea, _ := a.GetEnergy(0)
	eb, _ := b.GetEnergy(0)
	if ea != eb {
		t.Errorf("two identically-seeded engines diverged: %f != %f", ea, eb)
	}
}
