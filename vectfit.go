// Package vectfit fits a set of frequency-domain response vectors, sampled
// at common points, with a rational function sharing a common pole set plus
// an optional low-order polynomial term:
//
//	f(s) ≈ Σ_m R[:,m]/(s - p_m) + Σ_k P[:,k] s^k
//
// The identification uses the pole relocating method known as vector
// fitting with a relaxed non-triviality constraint and a QR block reduction
// of the pole identification step, so the joint system stays proportional
// to poles, not to samples times responses.
//
// One call runs up to two stages: pole identification (estimate the relaxed
// scaling function sigma and take its zeros as the new poles) and residue
// identification (weighted least squares against the relocated poles). Both
// stages can be skipped independently, which lets an external driver
// iterate relocation before a final residue pass.
package vectfit

import (
	"fmt"
	"math"

	"github.com/paulromano/vectfit/poleid"
	"github.com/paulromano/vectfit/poles"
	"github.com/paulromano/vectfit/residue"
	"gonum.org/v1/gonum/mat"
)

// Default bounds on the magnitude of the relaxed scaling denominator.
// Outside them the relaxed solve has collapsed to a trivial solution and
// the non-relaxed fallback runs instead.
const (
	DefaultTolLow  = 1e-18
	DefaultTolHigh = 1e+18
)

// Options controls a single Fit invocation.
type Options struct {
	// NPolys is the number of polynomial coefficients Nc in [0, 11].
	NPolys int
	// SkipPole skips the pole identification stage; the input poles are
	// returned unmodified.
	SkipPole bool
	// SkipRes skips the residue identification stage; residues, polynomial
	// coefficients and fit come back zero with a zero RMS error.
	SkipRes bool
	// TolLow and TolHigh override the relaxation denominator bounds for
	// targeted testing of the fallback branch. Zero means the default.
	TolLow  float64
	TolHigh float64
}

// Result is the outcome of a Fit call.
type Result struct {
	// Residues is Nv x N; conjugate pole pairs carry exact conjugate
	// residue pairs.
	Residues [][]complex128
	// Polys is Nv x Nc, the real polynomial coefficients.
	Polys [][]float64
	// Poles is the final pole set: relocated unless SkipPole was set.
	Poles []complex128
	// RMSErr is ||fit - f||_F / sqrt(Nv*Ns); zero when SkipRes is set.
	RMSErr float64
	// Fit is the Nv x Ns reconstructed curve.
	Fit [][]float64
}

// Fit approximates the Nv x Ns real samples f, taken at the common sample
// points s, with a rational model over a shared pole set. initPoles holds
// the initial pole guesses, real or adjacent-conjugate-paired, and weight
// scales the least-squares residuals row-wise (same shape as f).
//
// With zero poles and zero polynomial order no solve is attempted: the
// model is vacuous and RMSErr reports the norm of the target.
func Fit(f [][]float64, s, initPoles []complex128, weight [][]float64, opts Options) (*Result, error) {
	nv, ns, err := checkShapes(f, s, weight)
	if err != nil {
		return nil, err
	}
	n := len(initPoles)
	nc := opts.NPolys
	if nc < 0 || nc > 11 {
		return nil, fmt.Errorf("%w: NPolys %d outside [0, 11]", ErrInvalidParameter, nc)
	}
	tolLow, tolHigh, err := tolerances(opts)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Residues: make([][]complex128, nv),
		Polys:    make([][]float64, nv),
		Poles:    append([]complex128(nil), initPoles...),
		Fit:      make([][]float64, nv),
	}
	for v := 0; v < nv; v++ {
		res.Residues[v] = make([]complex128, n)
		res.Polys[v] = make([]float64, nc)
		res.Fit[v] = make([]float64, ns)
	}

	// Vacuous model: report the target norm as the error.
	if n == 0 && nc == 0 {
		var norm float64
		for v := range f {
			for k := range f[v] {
				norm += f[v][k] * f[v][k]
			}
		}
		res.RMSErr = math.Sqrt(norm) / math.Sqrt(float64(nv*ns))
		return res, nil
	}

	if !opts.SkipPole && n > 0 {
		if 2*ns+1 < 2*n+nc+1 {
			return nil, fmt.Errorf("%w: %d samples cannot determine %d poles with %d polynomial terms",
				ErrShapeMismatch, ns, n, nc)
		}
		set, err := poles.Classify(res.Poles)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPoleConfiguration, err)
		}
		fm, wm := toDense(f), toDense(weight)
		relocated, err := poleid.Relocate(fm, wm, s, set, nc, tolLow, tolHigh)
		if err != nil {
			return nil, err
		}
		res.Poles = relocated
	}

	if !opts.SkipRes {
		if 2*ns < n+nc {
			return nil, fmt.Errorf("%w: %d samples cannot determine %d residues with %d polynomial terms",
				ErrShapeMismatch, ns, n, nc)
		}
		set, err := poles.Classify(res.Poles)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPoleConfiguration, err)
		}
		fm, wm := toDense(f), toDense(weight)
		model, err := residue.Solve(fm, wm, s, set, nc)
		if err != nil {
			return nil, err
		}
		for v := 0; v < nv; v++ {
			for m := 0; m < n; m++ {
				res.Residues[v][m] = model.Residues.At(v, m)
			}
			for c := 0; c < nc; c++ {
				res.Polys[v][c] = model.Polys.At(v, c)
			}
			for k := 0; k < ns; k++ {
				res.Fit[v][k] = model.Fit.At(v, k)
			}
		}
		res.RMSErr = model.RMSErr
	}

	return res, nil
}

// checkShapes validates the rectangular shape of f and weight and the
// length of s, returning (Nv, Ns).
func checkShapes(f [][]float64, s []complex128, weight [][]float64) (nv, ns int, err error) {
	nv = len(f)
	if nv == 0 {
		return 0, 0, fmt.Errorf("%w: f has no rows", ErrShapeMismatch)
	}
	ns = len(f[0])
	if ns == 0 {
		return 0, 0, fmt.Errorf("%w: f has no columns", ErrShapeMismatch)
	}
	for v := range f {
		if len(f[v]) != ns {
			return 0, 0, fmt.Errorf("%w: f row %d has length %d, want %d",
				ErrShapeMismatch, v, len(f[v]), ns)
		}
	}
	if len(s) != ns {
		return 0, 0, fmt.Errorf("%w: len(s) = %d does not match 2nd dimension of f (%d)",
			ErrShapeMismatch, len(s), ns)
	}
	if len(weight) != nv {
		return 0, 0, fmt.Errorf("%w: weight has %d rows, f has %d",
			ErrShapeMismatch, len(weight), nv)
	}
	for v := range weight {
		if len(weight[v]) != ns {
			return 0, 0, fmt.Errorf("%w: weight row %d has length %d, want %d",
				ErrShapeMismatch, v, len(weight[v]), ns)
		}
	}
	return nv, ns, nil
}

// tolerances resolves the relaxation bounds, applying defaults for zero
// values.
func tolerances(opts Options) (tolLow, tolHigh float64, err error) {
	tolLow, tolHigh = opts.TolLow, opts.TolHigh
	if tolLow == 0 {
		tolLow = DefaultTolLow
	}
	if tolHigh == 0 {
		tolHigh = DefaultTolHigh
	}
	if tolLow < 0 || tolHigh < 0 || tolLow >= tolHigh {
		return 0, 0, fmt.Errorf("%w: relaxation tolerances (%g, %g)",
			ErrInvalidParameter, tolLow, tolHigh)
	}
	return tolLow, tolHigh, nil
}

// toDense copies a rectangular [][]float64 into a mat.Dense.
func toDense(rows [][]float64) *mat.Dense {
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}
