package vectfit

import "errors"

// Failure conditions surfaced by Fit. All are detected synchronously before
// or between the solve stages; no partial output accompanies any of them.
var (
	// ErrShapeMismatch reports inconsistent dimensions among f, s and
	// weight, or too few sample points to carry the least-squares systems.
	ErrShapeMismatch = errors.New("vectfit: shape mismatch")

	// ErrInvalidParameter reports an out-of-range option, such as a
	// polynomial order outside [0, 11].
	ErrInvalidParameter = errors.New("vectfit: invalid parameter")

	// ErrInvalidPoleConfiguration reports a complex pole that is not
	// immediately followed by its exact complex conjugate. It is checked
	// on the input poles and again on relocated poles before residue
	// identification.
	ErrInvalidPoleConfiguration = errors.New("vectfit: invalid pole configuration")
)
