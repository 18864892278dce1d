// Package proposal generates trial single-site moves for the Metropolis
// sweep: either a fresh isotropic draw on S^2, or a small-angle rotation
// used when spin dynamics is interleaved with stochastic moves.
package proposal

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/fumin/mmc/internal/rngstream"
)

// Kernel draws trial (spin, magnitude) pairs for a single site.
type Kernel struct {
	// SigmaMu is the standard deviation of the Gaussian perturbation
	// applied to the moment magnitude. Zero (the default) leaves
	// magnitudes fixed.
	SigmaMu float64
	// SmallAngle switches the spin proposal from a full isotropic
	// resample to a small rotation of the current spin, the mode spin
	// dynamics uses so that the stochastic moves do not erase the
	// correlations the precessional step builds up.
	SmallAngle bool
	// MaxAngle bounds the rotation angle (radians) when SmallAngle is
	// set.
	MaxAngle float64
}

// NewIsotropic returns the default, large-step proposal kernel.
func NewIsotropic() *Kernel {
	return &Kernel{}
}

// NewSmallAngle returns the spin-dynamics-coupled proposal kernel.
func NewSmallAngle(maxAngle float64) *Kernel {
	return &Kernel{SmallAngle: true, MaxAngle: maxAngle}
}

// Propose draws a trial (s', mu') for site k, whose current state is
// (s, mu).
func (k *Kernel) Propose(rng *rngstream.Stream, s r3.Vec, mu float64) (r3.Vec, float64) {
	var sNew r3.Vec
	if k.SmallAngle {
		sNew = rotateSmallAngle(rng, s, k.MaxAngle)
	} else {
		sNew = rng.UnitSphere()
	}

	muNew := mu + rng.Normal(k.SigmaMu)
	if muNew < 0 {
		muNew = 0
	}
	return sNew, muNew
}

// rotateSmallAngle rotates s by a random angle in [0, maxAngle) about a
// uniformly random axis, via Rodrigues' rotation formula.
func rotateSmallAngle(rng *rngstream.Stream, s r3.Vec, maxAngle float64) r3.Vec {
	axis := rng.UnitSphere()
	theta := rng.Uniform() * maxAngle
	return rodrigues(s, axis, theta)
}

// rodrigues rotates v by angle theta (radians) about the unit axis k.
func rodrigues(v, k r3.Vec, theta float64) r3.Vec {
	cos, sin := math.Cos(theta), math.Sin(theta)
	term1 := r3.Scale(cos, v)
	term2 := r3.Scale(sin, r3.Cross(k, v))
	term3 := r3.Scale(r3.Dot(k, v)*(1-cos), k)
	return r3.Add(r3.Add(term1, term2), term3)
}

// Rodrigues exposes the rotation used both here and by the spin-dynamics
// precession step, so the two stay consistent.
func Rodrigues(v, axis r3.Vec, theta float64) r3.Vec {
	return rodrigues(v, axis, theta)
}
