// Package basis constructs the complex partial-fraction basis matrix used by
// both the pole relocation and residue identification stages.
//
// Each real pole contributes the column 1/(s-p). A conjugate pair (p, p̄)
// contributes two columns, 1/(s-p) + 1/(s-p̄) and i/(s-p̄) - i/(s-p), which
// span the same subspace as {1/(s-p), 1/(s-p̄)} but keep the later
// least-squares unknowns real. Polynomial columns s^k follow the pole
// columns.
package basis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/paulromano/vectfit/poles"
	"gonum.org/v1/gonum/mat"
)

// Sentinel replaces non-finite basis entries produced when a sample point
// coincides with a pole, so that infinities never reach a solver.
const Sentinel = 1e18

// ErrUnknownKind guards against a pole classification state that Classify
// can never produce.
var ErrUnknownKind = errors.New("unknown pole kind")

// Build returns the len(s) x (len(set)+npolys) basis matrix for the given
// classified pole set, with npolys polynomial columns s^0 .. s^(npolys-1)
// appended after the pole columns.
//
// The relaxation basis of the pole identification stage always carries a
// constant column; callers building it pass max(npolys, 1).
func Build(s []complex128, set poles.Set, npolys int) (*mat.CDense, error) {
	ns := len(s)
	n := len(set)
	dk := mat.NewCDense(ns, n+npolys, nil)
	for m, p := range set {
		switch p.Kind {
		case poles.Real:
			for k := 0; k < ns; k++ {
				dk.Set(k, m, sanitize(1/(s[k]-p.Value)))
			}
		case poles.ComplexPrimary:
			q := cmplx.Conj(p.Value)
			for k := 0; k < ns; k++ {
				dk.Set(k, m, sanitize(1/(s[k]-p.Value)+1/(s[k]-q)))
			}
		case poles.ComplexConjugate:
			q := cmplx.Conj(p.Value) // the pair's primary pole
			for k := 0; k < ns; k++ {
				dk.Set(k, m, sanitize(1i/(s[k]-q)-1i/(s[k]-p.Value)))
			}
		default:
			return nil, fmt.Errorf("%w: %v", ErrUnknownKind, p.Kind)
		}
	}
	for c := 0; c < npolys; c++ {
		for k := 0; k < ns; k++ {
			dk.Set(k, n+c, powInt(s[k], c))
		}
	}
	return dk, nil
}

// Cauchy returns the len(s) x len(p) matrix with entries 1/(s_k - p_m),
// one plain column per pole. The fit evaluation applies it to the complex
// residues directly, so no conjugate-pair recombination of columns is done.
func Cauchy(s, p []complex128) *mat.CDense {
	dk := mat.NewCDense(len(s), len(p), nil)
	for m := range p {
		for k := range s {
			dk.Set(k, m, sanitize(1/(s[k]-p[m])))
		}
	}
	return dk
}

// sanitize replaces a non-finite value by the large finite Sentinel.
func sanitize(v complex128) complex128 {
	if cmplx.IsInf(v) || cmplx.IsNaN(v) {
		return complex(Sentinel, 0)
	}
	return v
}

// powInt computes s^k by repeated multiplication. The polynomial order is
// bounded by 11, so this beats cmplx.Pow and stays exact for s on the real
// axis.
func powInt(s complex128, k int) complex128 {
	v := complex(1, 0)
	for i := 0; i < k; i++ {
		v *= s
	}
	return v
}
