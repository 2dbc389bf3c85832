package formats

import (
	"errors"
	"fmt"
)

// Check verifies the structural validity of the record: a non-empty
// identifier, a non-empty sequence of alphabetic bytes, and quality data
// (when present) of matching length with values in the printable ASCII
// range. It reads only the record and may be called any number of times.
//
// A Check failure is a data-quality signal, distinct from a parse error:
// the record was well-formed on disk but its content is suspect.
func (r *Record) Check() error {
	if r.ID == "" {
		return errors.New("seqio/formats: missing record identifier")
	}
	if len(r.Seq) == 0 {
		return fmt.Errorf("seqio/formats: record %q has an empty sequence", r.ID)
	}
	for i, b := range r.Seq {
		if !isAlpha(b) {
			return fmt.Errorf("seqio/formats: record %q: non-alphabetic byte %q in sequence at position %d", r.ID, b, i)
		}
	}
	if r.Qual != nil {
		if len(r.Qual) != len(r.Seq) {
			return fmt.Errorf("seqio/formats: record %q: quality length %d does not match sequence length %d", r.ID, len(r.Qual), len(r.Seq))
		}
		for i, b := range r.Qual {
			if b < '!' || b > '~' {
				return fmt.Errorf("seqio/formats: record %q: quality value %q out of range at position %d", r.ID, b, i)
			}
		}
	}
	return nil
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

///////////

// Alphabet is a set of byte values permitted in sequence data.
type Alphabet struct {
	name  string
	valid [256]bool
}

// NewAlphabet builds an Alphabet permitting exactly the given letters.
func NewAlphabet(name, letters string) *Alphabet {
	a := &Alphabet{name: name}
	for i := 0; i < len(letters); i++ {
		a.valid[letters[i]] = true
	}
	return a
}

// Contains reports whether b is part of the Alphabet.
func (a *Alphabet) Contains(b byte) bool {
	return a.valid[b]
}

// DNA permits the four nucleotide codes plus the N placeholder,
// upper or lower case.
var DNA = NewAlphabet("dna", "ACGTNacgtn")

// CheckAlphabet verifies that every sequence byte of the record belongs
// to the given Alphabet. Like Check it is read-only and idempotent.
func (r *Record) CheckAlphabet(a *Alphabet) error {
	for i, b := range r.Seq {
		if !a.Contains(b) {
			return fmt.Errorf("seqio/formats: record %q: byte %q at position %d is outside the %s alphabet", r.ID, b, i, a.name)
		}
	}
	return nil
}
