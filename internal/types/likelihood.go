package types

import (
	"fmt"
	"strings"
)

// Likelihood is the service's ordered confidence scale. The zero value is
// LikelihoodUnspecified and is never a valid threshold.
type Likelihood int

const (
	LikelihoodUnspecified Likelihood = iota
	VeryUnlikely
	Unlikely
	Possible
	Likely
	VeryLikely
)

var likelihoodNames = [...]string{
	LikelihoodUnspecified: "LIKELIHOOD_UNSPECIFIED",
	VeryUnlikely:          "VERY_UNLIKELY",
	Unlikely:              "UNLIKELY",
	Possible:              "POSSIBLE",
	Likely:                "LIKELY",
	VeryLikely:            "VERY_LIKELY",
}

// Likelihoods lists the valid values in ascending order.
func Likelihoods() []Likelihood {
	return []Likelihood{VeryUnlikely, Unlikely, Possible, Likely, VeryLikely}
}

func (l Likelihood) String() string {
	if l < 0 || int(l) >= len(likelihoodNames) {
		return fmt.Sprintf("Likelihood(%d)", int(l))
	}
	return likelihoodNames[l]
}

// Valid reports whether l is one of the five ordered values.
func (l Likelihood) Valid() bool { return l >= VeryUnlikely && l <= VeryLikely }

// AtLeast reports whether l meets threshold.
func (l Likelihood) AtLeast(threshold Likelihood) bool { return l >= threshold }

// ParseLikelihood accepts the canonical names case-insensitively, with '-'
// or ' ' in place of '_' ("very-likely", "Possible").
func ParseLikelihood(s string) (Likelihood, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for i, name := range likelihoodNames {
		if name == norm {
			return Likelihood(i), nil
		}
	}
	return LikelihoodUnspecified, fmt.Errorf("unknown likelihood %q (want one of VERY_UNLIKELY, UNLIKELY, POSSIBLE, LIKELY, VERY_LIKELY)", s)
}

func (l Likelihood) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Likelihood) UnmarshalText(b []byte) error {
	v, err := ParseLikelihood(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
