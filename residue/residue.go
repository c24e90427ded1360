// Package residue implements the residue identification stage: given a
// (possibly just-relocated) pole set, it solves a weighted least-squares
// problem per response vector for the residues and polynomial coefficients,
// folds conjugate-pair components back into complex-conjugate residues, and
// evaluates the fitted curve and its RMS error.
package residue

import (
	"math"
	"sync"

	"github.com/paulromano/vectfit/basis"
	"github.com/paulromano/vectfit/gonumExtensions"
	"github.com/paulromano/vectfit/poles"
	"gonum.org/v1/gonum/mat"
)

// Model holds the identified rational model and its fit quality for a fixed
// pole set.
type Model struct {
	// Residues is Nv x N; conjugate pole pairs carry exact conjugate
	// residue pairs by construction.
	Residues *mat.CDense
	// Polys is Nv x Nc, the real polynomial coefficients.
	Polys *mat.Dense
	// Fit is the Nv x Ns reconstructed curve.
	Fit *mat.Dense
	// RMSErr is the Frobenius norm of (fit - f) over sqrt(Nv*Ns).
	RMSErr float64
}

// Solve identifies residues and polynomial coefficients for every response
// vector against the given classified pole set, then evaluates the fit.
// npolys is the exact polynomial column count; unlike the sigma basis of
// the pole identification stage, no constant column is forced here.
func Solve(f, weight *mat.Dense, s []complex128, set poles.Set, npolys int) (*Model, error) {
	nv, ns := f.Dims()
	n := len(set)

	dk, err := basis.Build(s, set, npolys)
	if err != nil {
		return nil, err
	}

	// Per-response solves are independent; one goroutine per response,
	// each writing a disjoint row of the coefficient matrix.
	raw := mat.NewDense(nv, n+npolys, nil)
	errs := make([]error, nv)
	var wg sync.WaitGroup
	wg.Add(nv)
	for v := 0; v < nv; v++ {
		go func(v int) {
			defer wg.Done()
			a1 := mat.NewCDense(ns, n+npolys, nil)
			b := mat.NewVecDense(2*ns, nil)
			for k := 0; k < ns; k++ {
				w := complex(weight.At(v, k), 0)
				for m := 0; m < n+npolys; m++ {
					a1.Set(k, m, w*dk.At(k, m))
				}
				b.SetVec(k, weight.At(v, k)*f.At(v, k))
			}
			a := gonumExtensions.StackRealImag(a1, 0)
			x, err := gonumExtensions.ScaledLeastSquares(a, b)
			if err != nil {
				errs[v] = err
				return
			}
			for m := 0; m < n+npolys; m++ {
				raw.Set(v, m, x.AtVec(m))
			}
		}(v)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	model := &Model{
		Residues: recombine(raw, set),
		Polys:    mat.NewDense(nv, max(npolys, 1), nil),
		Fit:      mat.NewDense(nv, ns, nil),
	}
	for v := 0; v < nv; v++ {
		for c := 0; c < npolys; c++ {
			model.Polys.Set(v, c, raw.At(v, n+c))
		}
	}
	evaluate(model, f, s, set.Values(), npolys)
	return model, nil
}

// recombine folds the real/imaginary component pair solved for each
// conjugate pole pair into a true conjugate residue pair: (r1, r2) becomes
// r1 + i*r2 on the primary pole and r1 - i*r2 on its conjugate. Real poles
// take their component directly.
func recombine(raw *mat.Dense, set poles.Set) *mat.CDense {
	nv, _ := raw.Dims()
	n := len(set)
	residues := mat.NewCDense(nv, max(n, 1), nil)
	for m, p := range set {
		switch p.Kind {
		case poles.Real:
			for v := 0; v < nv; v++ {
				residues.Set(v, m, complex(raw.At(v, m), 0))
			}
		case poles.ComplexPrimary:
			for v := 0; v < nv; v++ {
				r1, r2 := raw.At(v, m), raw.At(v, m+1)
				residues.Set(v, m, complex(r1, r2))
				residues.Set(v, m+1, complex(r1, -r2))
			}
		}
	}
	return residues
}

// evaluate reconstructs the fitted curve from the plain partial-fraction
// basis applied to the residues plus the polynomial terms, and computes the
// RMS error against f.
func evaluate(model *Model, f *mat.Dense, s, poleValues []complex128, npolys int) {
	nv, ns := f.Dims()
	n := len(poleValues)
	var dk2 *mat.CDense
	if n > 0 {
		dk2 = basis.Cauchy(s, poleValues)
	}
	for v := 0; v < nv; v++ {
		for k := 0; k < ns; k++ {
			sum := complex(0, 0)
			for m := 0; m < n; m++ {
				sum += dk2.At(k, m) * model.Residues.At(v, m)
			}
			sk := complex(1, 0)
			for c := 0; c < npolys; c++ {
				sum += complex(model.Polys.At(v, c), 0) * sk
				sk *= s[k]
			}
			model.Fit.Set(v, k, real(sum))
		}
	}
	var diff mat.Dense
	diff.Sub(model.Fit, f)
	model.RMSErr = mat.Norm(&diff, 2) / math.Sqrt(float64(nv*ns))
}
