// Package gonumExtensions collects small dense-matrix utilities shared by
// the pole identification and residue identification stages.
package gonumExtensions

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// StackRealImag returns the real (2m+extraRows) x n matrix whose first m
// rows are the real part of src and next m rows its imaginary part. The
// extra rows are left zero for the caller to fill (the pole identification
// stage appends its integral criterion row there).
func StackRealImag(src *mat.CDense, extraRows int) *mat.Dense {
	m, n := src.Dims()
	dst := mat.NewDense(2*m+extraRows, n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			v := src.At(i, j)
			dst.Set(i, j, real(v))
			dst.Set(m+i, j, imag(v))
		}
	}
	return dst
}

// ScaleColumns divides each column of a by its Euclidean norm in place and
// returns the applied factors (1/norm per column). Zero columns are left
// untouched with factor 1. Solutions of the scaled system must be
// multiplied element-wise by the returned factors.
func ScaleColumns(a *mat.Dense) []float64 {
	m, n := a.Dims()
	col := make([]float64, m)
	factors := make([]float64, n)
	for j := 0; j < n; j++ {
		mat.Col(col, j, a)
		norm := floats.Norm(col, 2)
		factors[j] = 1
		if norm != 0 {
			factors[j] = 1 / norm
		}
		for i := 0; i < m; i++ {
			a.Set(i, j, a.At(i, j)*factors[j])
		}
	}
	return factors
}

// ScaledLeastSquares solves min ||a x - b|| after normalizing the columns
// of a, then rescales the solution back. a is modified in place. An
// ill-conditioned system is solved anyway; only a hard failure is
// returned.
func ScaledLeastSquares(a *mat.Dense, b mat.Vector) (*mat.VecDense, error) {
	factors := ScaleColumns(a)
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
	}
	for j := 0; j < x.Len(); j++ {
		x.SetVec(j, x.AtVec(j)*factors[j])
	}
	return &x, nil
}

// NANORINF checks if there are any NaN or Inf entries in matrix.
func NANORINF(matrix mat.Matrix) bool {
	m, n := matrix.Dims()
	for row := 0; row < m; row++ {
		for col := 0; col < n; col++ {
			v := matrix.At(row, col)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}
