// Package hamiltonian evaluates total and local-move energies for a
// Heisenberg-plus-Landau spin Hamiltonian over a sparse neighbor graph.
//
// A single Hamiltonian type evaluates both terms inside its Total and Delta
// methods; the Heisenberg and Landau terms are not separate types.
package hamiltonian

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fumin/mmc/internal/spinstore"
	"github.com/fumin/mmc/internal/topology"
)

// ValidExponents are the only Landau exponents the model accepts.
var ValidExponents = [...]int{2, 4, 6, 8, 10}

// IsValidExponent reports whether n is one of the even exponents 2..10.
func IsValidExponent(n int) bool {
	for _, v := range ValidExponents {
		if v == n {
			return true
		}
	}
	return false
}

// Hamiltonian is the sum of a Heisenberg bond term and a Landau on-site
// polynomial over a fixed spin store.
type Hamiltonian struct {
	csr    *topology.CSR
	landau map[int]float64 // exponent -> coefficient
}

// New builds a Hamiltonian with no bonds and no Landau coefficients.
func New() *Hamiltonian {
	return &Hamiltonian{landau: make(map[int]float64)}
}

// SetTopology installs the adjacency the Heisenberg term sums over.
func (h *Hamiltonian) SetTopology(csr *topology.CSR) {
	h.csr = csr
}

// HasTopology reports whether a topology has been installed.
func (h *Hamiltonian) HasTopology() bool {
	return h.csr != nil
}

// SetLandauCoeff sets the coefficient of mu^n in the on-site polynomial.
// n must be one of 2, 4, 6, 8, 10.
func (h *Hamiltonian) SetLandauCoeff(a float64, n int) error {
	if !IsValidExponent(n) {
		return errors.Errorf("landau exponent %d is not one of %v", n, ValidExponents)
	}
	h.landau[n] = a
	return nil
}

// Total computes E = E_H + E_L from scratch against the given spin store.
// The Heisenberg term is -J*(m_i . m_j): positive J is ferromagnetic and
// favors aligned moments (lower energy), matching the -J*s_i.s_j
// convention.
func (h *Hamiltonian) Total(st *spinstore.Store) float64 {
	var e float64
	if h.csr != nil {
		for i, neighbors := range h.csr.Bonds {
			mi := st.Moment(i)
			for _, nb := range neighbors {
				if nb.Site <= i {
					// Each unordered bond is materialized in both
					// directions' adjacency; sum it once from the
					// lower-indexed side.
					continue
				}
				mj := st.Moment(nb.Site)
				e -= nb.J * r3.Dot(mi, mj)
			}
		}
		for i, j := range h.csr.Self {
			if j == 0 {
				continue
			}
			m := st.Moment(i)
			e -= j * r3.Dot(m, m)
		}
	}

	for n, a := range h.landau {
		for k := 0; k < st.N(); k++ {
			_, mu := st.Get(k)
			e += a * ipow(mu, n)
		}
	}
	return e
}

// Delta computes the energy change of replacing site k's (s, mu) with
// (sNew, muNew), without touching the store. Enumerating only the edges
// incident to k makes this O(deg(k)) rather than O(N).
func (h *Hamiltonian) Delta(st *spinstore.Store, k int, sNew r3.Vec, muNew float64) float64 {
	sOld, muOld := st.Get(k)
	mOld := r3.Scale(muOld, sOld)
	mNew := r3.Scale(muNew, sNew)

	var d float64
	if h.csr != nil {
		for _, nb := range h.csr.Bonds[k] {
			mj := st.Moment(nb.Site)
			d -= nb.J * (r3.Dot(mNew, mj) - r3.Dot(mOld, mj))
		}
		if j := h.csr.Self[k]; j != 0 {
			d -= j * (r3.Dot(mNew, mNew) - r3.Dot(mOld, mOld))
		}
	}

	for n, a := range h.landau {
		d += a * (ipow(muNew, n) - ipow(muOld, n))
	}
	return d
}

// EffectiveField returns omega_k = -dH/ds_k, the local field driving the
// deterministic precession step of spin dynamics. The on-site Landau term
// and the Heisenberg self-loop both depend only on mu_k, not on the
// direction s_k, so neither contributes; only the off-diagonal Heisenberg
// bonds do. Since H's bond term is -J*(m_i.m_j), -dH/ds_k = +mu_k*sum_j(J*m_j).
func (h *Hamiltonian) EffectiveField(st *spinstore.Store, k int) r3.Vec {
	var field r3.Vec
	if h.csr == nil {
		return field
	}
	_, muK := st.Get(k)
	var sum r3.Vec
	for _, nb := range h.csr.Bonds[k] {
		mj := st.Moment(nb.Site)
		sum = r3.Add(sum, r3.Scale(nb.J, mj))
	}
	return r3.Scale(muK, sum)
}

func ipow(x float64, n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= x
	}
	return v
}
