// Package poleid implements the pole identification stage of relaxed
// vector fitting: it estimates an auxiliary scaling function sigma, shared
// by all response vectors, whose zeros become the relocated poles.
//
// The per-response least-squares systems are never stacked into one dense
// matrix. Each response is reduced by a QR decomposition to the trailing
// square block of its triangular factor, and only those blocks enter the
// joint solve, so the joint system has Nv*(N+1) rows regardless of the
// sample count.
package poleid

import (
	"errors"
	"math"
	"sync"

	"github.com/paulromano/vectfit/basis"
	"github.com/paulromano/vectfit/gonumExtensions"
	"github.com/paulromano/vectfit/poles"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrEigenFailed reports a failed eigendecomposition of the sigma zero
// matrix.
var ErrEigenFailed = errors.New("eigendecomposition of sigma zeros failed")

// Relocate runs one pole relocation pass and returns the new pole set: the
// eigenvalues of the sigma zero matrix built from the estimated scaling
// function. f and weight are Nv x Ns, s has length Ns, and npolys is the
// requested polynomial order of the overall fit (the sigma basis always
// carries a constant column on top of it).
//
// When the estimated sigma denominator falls outside [tolLow, tolHigh] the
// relaxed formulation has collapsed; the denominator is clamped and the
// numerator re-solved without relaxation.
func Relocate(f, weight *mat.Dense, s []complex128, set poles.Set, npolys int,
	tolLow, tolHigh float64) ([]complex128, error) {

	nv, ns := f.Dims()
	n := len(set)

	sigmaPolys := npolys
	if sigmaPolys < 1 {
		sigmaPolys = 1
	}
	dk, err := basis.Build(s, set, sigmaPolys)
	if err != nil {
		return nil, err
	}

	// Weighted norm of all responses, for the integral criterion row.
	scale := 0.0
	row := make([]float64, ns)
	wrow := make([]float64, ns)
	for v := 0; v < nv; v++ {
		mat.Row(row, v, f)
		mat.Row(wrow, v, weight)
		floats.Mul(row, wrow)
		nrm := floats.Norm(row, 2)
		scale += nrm * nrm
	}
	scale = math.Sqrt(scale) / float64(ns)

	nSigma := n + 1 // sigma numerator columns plus denominator

	// Column sums of the sigma basis, needed only by the last response's
	// criterion row but cheap to precompute once.
	colSum := make([]complex128, nSigma)
	for m := 0; m < nSigma; m++ {
		for k := 0; k < ns; k++ {
			colSum[m] += dk.At(k, m)
		}
	}

	// Reduce every response system concurrently; each worker owns the
	// disjoint row block [v*nSigma, (v+1)*nSigma) of the joint system.
	joint := mat.NewDense(nv*nSigma, nSigma, nil)
	rhs := mat.NewVecDense(nv*nSigma, nil)
	var wg sync.WaitGroup
	wg.Add(nv)
	for v := 0; v < nv; v++ {
		go func(v int) {
			defer wg.Done()
			reduceResponse(f, weight, dk, colSum, scale, v, nv, npolys, n, joint, rhs)
		}(v)
	}
	wg.Wait()

	x, err := gonumExtensions.ScaledLeastSquares(joint, rhs)
	if err != nil {
		return nil, err
	}
	c := make([]float64, n)
	for m := 0; m < n; m++ {
		c[m] = x.AtVec(m)
	}
	d := x.AtVec(n)

	if math.Abs(d) < tolLow || math.Abs(d) > tolHigh {
		d = clampDenominator(d, tolLow, tolHigh)
		c, err = solveNonRelaxed(f, weight, dk, n, npolys, d)
		if err != nil {
			return nil, err
		}
	}

	return Update(set, c, d)
}

// reduceResponse builds response v's weighted system, QR-decomposes it and
// stores the trailing square block of R into the joint matrix. The last
// response also contributes the right-hand side, derived from the matching
// row of Q and the integral criterion scale.
func reduceResponse(f, weight *mat.Dense, dk *mat.CDense, colSum []complex128,
	scale float64, v, nv, npolys, n int, joint *mat.Dense, rhs *mat.VecDense) {

	ns, _ := dk.Dims()
	nLeft := n + npolys
	nSigma := n + 1
	last := v == nv-1

	a1 := mat.NewCDense(ns, nLeft+nSigma, nil)
	for k := 0; k < ns; k++ {
		w := complex(weight.At(v, k), 0)
		wf := w * complex(f.At(v, k), 0)
		for m := 0; m < nLeft; m++ {
			a1.Set(k, m, w*dk.At(k, m))
		}
		for m := 0; m < nSigma; m++ {
			a1.Set(k, nLeft+m, -wf*dk.At(k, m))
		}
	}

	a := gonumExtensions.StackRealImag(a1, 1)
	if last {
		for m := 0; m < nSigma; m++ {
			a.Set(2*ns, nLeft+m, real(complex(scale, 0)*colSum[m]))
		}
	}

	var qr mat.QR
	qr.Factorize(a)
	var r mat.Dense
	qr.RTo(&r)
	for i := 0; i < nSigma; i++ {
		for j := 0; j < nSigma; j++ {
			joint.Set(v*nSigma+i, j, r.At(nLeft+i, nLeft+j))
		}
	}
	if last {
		var q mat.Dense
		qr.QTo(&q)
		for j := 0; j < nSigma; j++ {
			rhs.SetVec(v*nSigma+j, float64(ns)*scale*q.At(2*ns, nLeft+j))
		}
	}
}

// clampDenominator pulls a degenerate sigma denominator back to the nearest
// tolerance bound, keeping its sign, or to 1 when it vanished exactly.
func clampDenominator(d, tolLow, tolHigh float64) float64 {
	switch {
	case d == 0:
		return 1
	case math.Abs(d) < tolLow:
		return math.Copysign(tolLow, d)
	case math.Abs(d) > tolHigh:
		return math.Copysign(tolHigh, d)
	}
	return d
}

// solveNonRelaxed re-estimates the sigma numerator with the denominator d
// held fixed. The relaxation column disappears from the reduced systems and
// d*w*f moves to the right-hand side.
func solveNonRelaxed(f, weight *mat.Dense, dk *mat.CDense, n, npolys int,
	d float64) ([]float64, error) {

	nv, ns := f.Dims()
	nLeft := n + npolys

	joint := mat.NewDense(nv*n, n, nil)
	rhs := mat.NewVecDense(nv*n, nil)
	var wg sync.WaitGroup
	wg.Add(nv)
	for v := 0; v < nv; v++ {
		go func(v int) {
			defer wg.Done()
			a1 := mat.NewCDense(ns, nLeft+n, nil)
			b := mat.NewVecDense(2*ns, nil)
			for k := 0; k < ns; k++ {
				w := complex(weight.At(v, k), 0)
				wf := w * complex(f.At(v, k), 0)
				for m := 0; m < nLeft; m++ {
					a1.Set(k, m, w*dk.At(k, m))
				}
				for m := 0; m < n; m++ {
					a1.Set(k, nLeft+m, -wf*dk.At(k, m))
				}
				b.SetVec(k, d*real(wf))
			}
			a := gonumExtensions.StackRealImag(a1, 0)

			var qr mat.QR
			qr.Factorize(a)
			var r, q mat.Dense
			qr.RTo(&r)
			qr.QTo(&q)
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					joint.Set(v*n+i, j, r.At(nLeft+i, nLeft+j))
				}
			}
			// rhs block = Q[:, sigma columns]^T b
			for j := 0; j < n; j++ {
				sum := 0.0
				for i := 0; i < 2*ns; i++ {
					sum += q.At(i, nLeft+j) * b.AtVec(i)
				}
				rhs.SetVec(v*n+j, sum)
			}
		}(v)
	}
	wg.Wait()

	x, err := gonumExtensions.ScaledLeastSquares(joint, rhs)
	if err != nil {
		return nil, err
	}
	c := make([]float64, n)
	for m := 0; m < n; m++ {
		c[m] = x.AtVec(m)
	}
	return c, nil
}

// Update forms the real sigma zero matrix from the pole set and the scaling
// function coefficients and returns its eigenvalues, the relocated poles.
// Real poles sit on the diagonal; a conjugate pair (x±iy) occupies a 2x2
// rotation block, with the selector carrying 2 on the primary row and 0 on
// the conjugate row.
func Update(set poles.Set, c []float64, d float64) ([]complex128, error) {
	n := len(set)
	lambd := mat.NewDense(n, n, nil)
	sel := mat.NewVecDense(n, nil)
	for m, p := range set {
		switch p.Kind {
		case poles.Real:
			lambd.Set(m, m, real(p.Value))
			sel.SetVec(m, 1)
		case poles.ComplexPrimary:
			x, y := real(p.Value), imag(p.Value)
			lambd.Set(m, m, x)
			lambd.Set(m+1, m+1, x)
			lambd.Set(m, m+1, y)
			lambd.Set(m+1, m, -y)
			sel.SetVec(m, 2)
			sel.SetVec(m+1, 0)
		}
	}

	var zer mat.Dense
	zer.Outer(1/d, sel, mat.NewVecDense(n, c))
	zer.Sub(lambd, &zer)

	var eig mat.Eigen
	if ok := eig.Factorize(&zer, mat.EigenNone); !ok {
		return nil, ErrEigenFailed
	}
	return eig.Values(nil), nil
}
