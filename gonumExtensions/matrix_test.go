package gonumExtensions

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStackRealImag(t *testing.T) {
	src := mat.NewCDense(2, 2, []complex128{
		complex(1, 2), complex(3, 4),
		complex(5, 6), complex(7, 8),
	})
	dst := StackRealImag(src, 1)
	if r, c := dst.Dims(); r != 5 || c != 2 {
		t.Fatalf("dims (%d, %d), want (5, 2)", r, c)
	}
	want := [][]float64{{1, 3}, {5, 7}, {2, 4}, {6, 8}, {0, 0}}
	for i := range want {
		for j := range want[i] {
			if dst.At(i, j) != want[i][j] {
				t.Errorf("(%d, %d): %v, want %v", i, j, dst.At(i, j), want[i][j])
			}
		}
	}
}

func TestScaleColumns(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{3, 0, 4, 0})
	factors := ScaleColumns(a)
	if math.Abs(factors[0]-0.2) > 1e-15 {
		t.Errorf("factor 0: %v, want 0.2", factors[0])
	}
	if factors[1] != 1 {
		t.Errorf("zero column factor: %v, want 1", factors[1])
	}
	if math.Abs(a.At(0, 0)-0.6) > 1e-15 || math.Abs(a.At(1, 0)-0.8) > 1e-15 {
		t.Errorf("scaled column (%v, %v), want (0.6, 0.8)", a.At(0, 0), a.At(1, 0))
	}
}

func TestScaledLeastSquares(t *testing.T) {
	// Overdetermined system with exact solution x = (1, -2).
	a := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 2,
		1, 2,
	})
	b := mat.NewVecDense(3, []float64{1, -4, -3})
	x, err := ScaledLeastSquares(a, b)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(x.AtVec(0)-1) > 1e-12 || math.Abs(x.AtVec(1)+2) > 1e-12 {
		t.Errorf("solution (%v, %v), want (1, -2)", x.AtVec(0), x.AtVec(1))
	}
}

func TestNANORINF(t *testing.T) {
	clean := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if NANORINF(clean) {
		t.Error("clean matrix flagged")
	}
	dirty := mat.NewDense(2, 2, []float64{1, math.NaN(), 3, 4})
	if !NANORINF(dirty) {
		t.Error("NaN entry not flagged")
	}
	dirty.Set(0, 1, math.Inf(1))
	if !NANORINF(dirty) {
		t.Error("Inf entry not flagged")
	}
}
