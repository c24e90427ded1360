package poleid

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/paulromano/vectfit/poles"
	"gonum.org/v1/gonum/mat"
)

// sampleAxis returns ns real sample points spread over [0, 10].
func sampleAxis(ns int) []complex128 {
	s := make([]complex128, ns)
	for k := range s {
		s[k] = complex(10*float64(k)/float64(ns-1), 0)
	}
	return s
}

func TestUpdateRealPole(t *testing.T) {
	set, err := poles.Classify([]complex128{-3})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	// ZER = -3 - 1*2/2 = -4.
	relocated, err := Update(set, []float64{2}, 2)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(relocated) != 1 {
		t.Fatalf("got %d poles, want 1", len(relocated))
	}
	if cmplx.Abs(relocated[0]+4) > 1e-12 {
		t.Errorf("relocated pole %v, want -4", relocated[0])
	}
}

func TestUpdateConjugatePairZeroNumerator(t *testing.T) {
	p := complex(-1, 2)
	set, err := poles.Classify([]complex128{p, cmplx.Conj(p)})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	// Zero numerator coefficients leave the pole block untouched, so the
	// eigenvalues are the original pair.
	relocated, err := Update(set, []float64{0, 0}, 1)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(relocated) != 2 {
		t.Fatalf("got %d poles, want 2", len(relocated))
	}
	if _, err := poles.Classify(relocated); err != nil {
		t.Fatalf("relocated poles not a conjugate pair: %v", err)
	}
	for _, z := range relocated {
		if math.Abs(real(z)+1) > 1e-12 || math.Abs(math.Abs(imag(z))-2) > 1e-12 {
			t.Errorf("relocated pole %v, want -1±2i", z)
		}
	}
}

func TestRelocateExactOrderData(t *testing.T) {
	// f(s) = 1/(s+2) is rational of order one, so a single relocation from
	// any starting guess lands on the true pole.
	ns := 15
	s := sampleAxis(ns)
	f := mat.NewDense(1, ns, nil)
	weight := mat.NewDense(1, ns, nil)
	for k := 0; k < ns; k++ {
		f.Set(0, k, real(1/(s[k]+2)))
		weight.Set(0, k, 1)
	}
	set, err := poles.Classify([]complex128{-5})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	relocated, err := Relocate(f, weight, s, set, 0, 1e-18, 1e18)
	if err != nil {
		t.Fatalf("relocate: %v", err)
	}
	if len(relocated) != 1 {
		t.Fatalf("got %d poles, want 1", len(relocated))
	}
	if cmplx.Abs(relocated[0]+2) > 1e-6 {
		t.Errorf("relocated pole %v, want -2", relocated[0])
	}
}

func TestRelocateConjugatePair(t *testing.T) {
	p := complex(-1, 2)
	r := complex(0.5, 0.3)
	ns := 30
	s := sampleAxis(ns)
	f := mat.NewDense(1, ns, nil)
	weight := mat.NewDense(1, ns, nil)
	for k := 0; k < ns; k++ {
		// Real on the real axis by conjugate symmetry.
		f.Set(0, k, real(r/(s[k]-p)+cmplx.Conj(r)/(s[k]-cmplx.Conj(p))))
		weight.Set(0, k, 1)
	}
	guess := complex(-3, 1)
	set, err := poles.Classify([]complex128{guess, cmplx.Conj(guess)})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	relocated, err := Relocate(f, weight, s, set, 0, 1e-18, 1e18)
	if err != nil {
		t.Fatalf("relocate: %v", err)
	}
	if _, err := poles.Classify(relocated); err != nil {
		t.Fatalf("relocated poles not a conjugate pair: %v", err)
	}
	for _, z := range relocated {
		if math.Abs(real(z)+1) > 1e-6 || math.Abs(math.Abs(imag(z))-2) > 1e-6 {
			t.Errorf("relocated pole %v, want -1±2i", z)
		}
	}
}

func TestRelocateFallbackStillFinite(t *testing.T) {
	// An absurdly high lower tolerance forces every denominator into the
	// non-relaxed branch; the relocation must still land on the true pole.
	ns := 15
	s := sampleAxis(ns)
	f := mat.NewDense(1, ns, nil)
	weight := mat.NewDense(1, ns, nil)
	for k := 0; k < ns; k++ {
		f.Set(0, k, real(1/(s[k]+2)))
		weight.Set(0, k, 1)
	}
	set, err := poles.Classify([]complex128{-5})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	relocated, err := Relocate(f, weight, s, set, 0, 1e10, 1e18)
	if err != nil {
		t.Fatalf("relocate: %v", err)
	}
	for _, z := range relocated {
		if cmplx.IsNaN(z) || cmplx.IsInf(z) {
			t.Fatalf("non-finite relocated pole %v", z)
		}
	}
	if cmplx.Abs(relocated[0]+2) > 1e-6 {
		t.Errorf("relocated pole %v, want -2", relocated[0])
	}
}
