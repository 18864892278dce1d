// Package topology builds the sparse neighbor graph a Hamiltonian is
// evaluated over. It is adapted from the teacher's mat.COO/mat.DiskMatrix
// sparse-triplet container: the same (value, row, col) triplet idea, but
// carrying real-valued exchange constants for classical spins instead of
// complex quantum operators, and with no disk backing (see DESIGN.md).
package topology

import (
	"slices"

	"github.com/pkg/errors"
)

// Entry is a single (i, j, J) triplet, the Go-native analogue of the COO
// format scipy.sparse.coo_matrix uses in the original Python test suite.
type Entry struct {
	I, J int
	Val  float64
}

// COO is a coordinate-format sparse triplet list. Entries referring to the
// same (i, j) are summed on Build, mirroring scipy's coo_matrix duplicate
// accumulation (exercised by the "mat = mat + mat" step of the original
// test suite).
type COO struct {
	N       int
	Entries []Entry
}

// NewCOO allocates an empty COO triplet list over n sites.
func NewCOO(n int) *COO {
	return &COO{N: n}
}

// Add appends a triplet. Validation of bounds happens at Build time so that
// a caller may append triplets in any order before finalizing.
func (c *COO) Add(i, j int, v float64) {
	c.Entries = append(c.Entries, Entry{I: i, J: j, Val: v})
}

// CSR is the compressed sparse row form of a symmetric bond graph: for each
// site, the list of (neighbor, J) pairs incident to it plus any self-loop
// coefficient. It is the structure the Hamiltonian's Delta-energy evaluator
// walks, turning a proposal's cost into O(deg(k)).
type CSR struct {
	N int
	// Bonds holds, per site, the neighbors reachable by an off-diagonal
	// edge together with the coupling constant of that bond.
	Bonds [][]Neighbor
	// Self holds the coefficient of the i==i edge at each site, or 0 if
	// none was supplied.
	Self []float64
}

// Neighbor is one off-diagonal adjacency entry.
type Neighbor struct {
	Site int
	J    float64
}

// Build canonicalizes the COO's triplets into a CSR adjacency.
//
// Off-diagonal pairs are folded into a single unordered (min(i,j),
// max(i,j)) key, with duplicate values summed, and then materialized
// symmetrically in both directions' adjacency lists. This is the
// dedup-on-ingestion convention documented in SPEC_FULL.md section 4.3: it
// guarantees the total-energy half-factor and the per-site Delta-energy
// enumeration agree regardless of whether the caller's edge list already
// listed each bond once or twice (i,j) and (j,i).
func (c *COO) Build() (*CSR, error) {
	bonds := make(map[[2]int]float64)
	self := make(map[int]float64)
	for _, e := range c.Entries {
		if e.I < 0 || e.J < 0 || e.I >= c.N || e.J >= c.N {
			return nil, errors.Errorf("edge (%d, %d) out of range for %d sites", e.I, e.J, c.N)
		}
		if e.I == e.J {
			self[e.I] += e.Val
			continue
		}
		key := [2]int{e.I, e.J}
		if e.I > e.J {
			key = [2]int{e.J, e.I}
		}
		bonds[key] += e.Val
	}

	adj := make([][]Neighbor, c.N)
	keys := make([][2]int, 0, len(bonds))
	for k := range bonds {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	for _, k := range keys {
		j := bonds[k]
		adj[k[0]] = append(adj[k[0]], Neighbor{Site: k[1], J: j})
		adj[k[1]] = append(adj[k[1]], Neighbor{Site: k[0], J: j})
	}

	selfs := make([]float64, c.N)
	for i, v := range self {
		selfs[i] = v
	}

	return &CSR{N: c.N, Bonds: adj, Self: selfs}, nil
}

// FromScalar builds a COO where every edge (i[k], j[k]) shares the same
// coupling constant j, the Go analogue of set_heisenberg_coeff(J, i, j)
// being called with a scalar J.
func FromScalar(n int, j float64, i, jIdx []int) (*COO, error) {
	if len(i) != len(jIdx) {
		return nil, errors.Errorf("mismatched edge index lengths %d != %d", len(i), len(jIdx))
	}
	c := NewCOO(n)
	for k := range i {
		c.Add(i[k], jIdx[k], j)
	}
	return c, nil
}

// FromArray builds a COO where each edge carries its own coupling constant,
// the analogue of set_heisenberg_coeff being called with a per-edge J array.
func FromArray(n int, j []float64, i, jIdx []int) (*COO, error) {
	if len(i) != len(jIdx) || len(i) != len(j) {
		return nil, errors.Errorf("mismatched edge array lengths i=%d j=%d val=%d", len(i), len(jIdx), len(j))
	}
	c := NewCOO(n)
	for k := range i {
		c.Add(i[k], jIdx[k], j[k])
	}
	return c, nil
}

// FromEntries wraps a caller-supplied triplet list, the direct analogue of
// constructing a scipy.sparse.coo_matrix from (data, (row, col)) arrays.
func FromEntries(n int, entries []Entry) *COO {
	c := NewCOO(n)
	c.Entries = append(c.Entries, entries...)
	return c
}

// FromCSRArrays builds a COO from a scipy.sparse.csr_matrix-style
// (indptr, indices, data) triple, the other ingestion format the original
// test suite round-trips a Heisenberg coupling matrix through.
func FromCSRArrays(n int, indptr, indices []int, data []float64) (*COO, error) {
	if len(indptr) != n+1 {
		return nil, errors.Errorf("indptr length %d, expected n+1=%d", len(indptr), n+1)
	}
	if len(indices) != len(data) {
		return nil, errors.Errorf("mismatched indices/data lengths %d != %d", len(indices), len(data))
	}
	c := NewCOO(n)
	for row := 0; row < n; row++ {
		lo, hi := indptr[row], indptr[row+1]
		if lo < 0 || hi > len(indices) || lo > hi {
			return nil, errors.Errorf("indptr out of range at row %d: [%d, %d)", row, lo, hi)
		}
		for p := lo; p < hi; p++ {
			c.Add(row, indices[p], data[p])
		}
	}
	return c, nil
}
