package mmc

import "github.com/pkg/errors"

// Sentinel errors an Engine method's returned error chain can be tested
// against with errors.Is. Methods wrap these with context via
// errors.Wrap(sentinel, detail) rather than returning them bare.
var (
	// ErrInvalidTopology is returned when a Heisenberg edge list fails to
	// build: an out-of-range site index, or a malformed CSR triple.
	ErrInvalidTopology = errors.New("mmc: invalid topology")

	// ErrInvalidExponent is returned when a Landau exponent is not one of
	// the even exponents 2, 4, 6, 8, 10.
	ErrInvalidExponent = errors.New("mmc: invalid landau exponent")

	// ErrInvalidParameter is returned for any other out-of-range
	// constructor or mutator argument: a non-positive site count, a lambda
	// outside [0, 1], a non-positive temperature or iteration count.
	ErrInvalidParameter = errors.New("mmc: invalid parameter")

	// ErrNotInitialized is returned by accessors called before Run, or
	// before the feature they report on (replica 1, metadynamics) was
	// configured.
	ErrNotInitialized = errors.New("mmc: not initialized")
)
