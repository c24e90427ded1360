// Package poles classifies a pole sequence into real poles and adjacent
// complex-conjugate pairs. The classification is the entry ticket to every
// other stage: basis construction, pole relocation and residue
// identification all consume a validated Set rather than re-deriving
// conjugacy on the fly.
package poles

import (
	"errors"
	"fmt"
)

// ErrNotConjugatePair reports a complex pole that is not immediately
// followed by its exact complex conjugate.
var ErrNotConjugatePair = errors.New("complex poles are not conjugate pairs")

// Kind tags the role of a pole within the sequence.
type Kind int

const (
	// Real marks a pole with zero imaginary part.
	Real Kind = iota
	// ComplexPrimary marks the first pole of a conjugate pair.
	ComplexPrimary
	// ComplexConjugate marks the second pole of a conjugate pair.
	ComplexConjugate
)

func (k Kind) String() string {
	switch k {
	case Real:
		return "real"
	case ComplexPrimary:
		return "complex primary"
	case ComplexConjugate:
		return "complex conjugate"
	}
	return fmt.Sprintf("unknown kind %d", int(k))
}

// Pole is a single classified pole. Partner is the index of the paired pole
// for a conjugate pair and -1 for a real pole.
type Pole struct {
	Value   complex128
	Kind    Kind
	Partner int
}

// Set is an ordered, validated pole sequence. A Set is only obtained through
// Classify and must be rebuilt whenever the underlying pole values change.
type Set []Pole

// Classify scans a pole sequence once and tags every pole. A pole with
// nonzero imaginary part must be immediately followed by its exact complex
// conjugate; the pair is tagged (ComplexPrimary, ComplexConjugate) and the
// scan advances two positions. Real poles advance one position.
func Classify(values []complex128) (Set, error) {
	set := make(Set, len(values))
	for m := 0; m < len(values); m++ {
		p := values[m]
		if imag(p) == 0 {
			set[m] = Pole{Value: p, Kind: Real, Partner: -1}
			continue
		}
		if m+1 >= len(values) || values[m+1] != complex(real(p), -imag(p)) {
			return nil, fmt.Errorf("%w: pole %d (%v)", ErrNotConjugatePair, m, p)
		}
		set[m] = Pole{Value: p, Kind: ComplexPrimary, Partner: m + 1}
		set[m+1] = Pole{Value: values[m+1], Kind: ComplexConjugate, Partner: m}
		m++
	}
	return set, nil
}

// Values returns the bare pole values in sequence order.
func (s Set) Values() []complex128 {
	values := make([]complex128, len(s))
	for m, p := range s {
		values[m] = p.Value
	}
	return values
}
