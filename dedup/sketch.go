// Package dedup estimates how many duplicate sequences a record stream
// contains, without holding the sequences themselves in memory.
package dedup

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"math"

	"github.com/minio/highwayhash"
)

const (
	// DefaultExpected is the default expected number of sequences.
	DefaultExpected = 75000

	// DefaultErrorRate is the default target false-positive rate.
	// Range 0.0 - 1.0, default value is 1%.
	DefaultErrorRate = 0.01
)

// Sketch is a bloom filter over sequence bytes: one can be fully certain a
// sequence was NOT seen before, and have a reasonably bounded idea whether
// it may have been. N.B. for the error bound to hold, the expected size
// given to New should be at least the number of sequences added.
//
// e.g. the question "was this read seen already?" has answers "no" and
// "maybe".
type Sketch struct {
	expected int64
	estError float64

	nadded uint64
	keys   uint64
	size   uint64

	parts []uint64

	h0State []byte
	h1State []byte
}

// New returns a Sketch sized for the expected number of sequences at the
// default error rate. Pass 0 to use DefaultExpected.
func New(expected int) *Sketch {
	s := &Sketch{expected: int64(expected), estError: DefaultErrorRate}
	if expected <= 0 {
		s.expected = DefaultExpected
	}
	s.resize()
	return s
}

func (s *Sketch) resize() {
	if s.nadded != 0 {
		panic("cannot resize Sketch after sequences have been added")
	}
	m, k := estimateBloomParams(uint64(s.expected), s.estError)
	if k < 1 {
		k = 1
	}
	s.size, s.keys = uint64(m), uint64(k)
	s.parts = make([]uint64, 1+(s.size/64))
}

// ErrorRate sets the desired false-positive rate for the Sketch.
func (s *Sketch) ErrorRate(rate float64) {
	s.estError = rate
	s.resize()
}

// Add records the sequence in the Sketch and reports whether it was
// (probably) seen before: true marks a likely duplicate.
func (s *Sketch) Add(seq []byte) bool {
	if s.keys == 0 {
		s.resize()
	}
	h0, h1 := s.hash(seq)
	seen := true
	hx := h0 % s.size
	for k := uint64(0); k < s.keys; k++ {
		if (s.parts[hx/64] & (1 << (hx % 64))) == 0 {
			seen = false
		}
		s.parts[hx/64] |= 1 << (hx % 64)
		hx = (hx + h1) % s.size
	}
	s.nadded++
	return seen
}

// Has predicts whether the sequence was added to the Sketch.
// It returns true/false for the prediction, along with a confidence
// score from 0.0-1.0. A score of 0.0 means most likely not present,
// and a score of 1.0 means most likely present.
func (s *Sketch) Has(seq []byte) (bool, float64) {
	h0, h1 := s.hash(seq)
	hx := h0 % s.size
	for k := uint64(0); k < s.keys; k++ {
		if (s.parts[hx/64] & (1 << (hx % 64))) == 0 {
			return false, 0.0
		}
		hx = (hx + h1) % s.size
	}
	return true, 1.0 - s.estimateError()
}

// Count returns the number of sequences added to the Sketch.
func (s *Sketch) Count() uint64 {
	return s.nadded
}

// Pack the Sketch into serializable bytes for storage.
func (s *Sketch) Pack() []byte {
	buf := &bytes.Buffer{}
	gw, _ := gzip.NewWriterLevel(buf, gzip.BestCompression)
	binary.Write(gw, binary.LittleEndian, []uint64{s.size, s.keys, s.nadded})
	binary.Write(gw, binary.LittleEndian, s.parts)
	gw.Close()
	return buf.Bytes()
}

// Unpack the Sketch from serialized bytes.
func (s *Sketch) Unpack(rawbytes []byte) error {
	tmp := [3]uint64{0, 0, 0}
	gr, err := gzip.NewReader(bytes.NewReader(rawbytes))
	if err != nil {
		return err
	}
	err = binary.Read(gr, binary.LittleEndian, &tmp)
	if err != nil {
		return err
	}
	s.expected = 0
	s.estError = 0.0
	s.size = tmp[0]
	s.keys = tmp[1]
	s.nadded = tmp[2]

	s.parts = make([]uint64, 1+(s.size/64))

	// force reload on next hash
	s.h0State = s.h0State[:0]
	s.h1State = s.h1State[:0]

	return binary.Read(gr, binary.LittleEndian, s.parts)
}

///////////////////////////////////////////////////////

/// mf = n*log(errRate)/(-ln 2)^2
func estimateBloomParams(n uint64, errRate float64) (m, k int) {
	div := 1.0 / (-math.Ln2 * math.Ln2)
	mf := float64(n) * math.Log(errRate) * div
	kf := math.Ln2 * mf / float64(n)
	return int(mf), int(kf)
}

// b=bits per element
// (1.0 - e^(-k/b))^k
func (s *Sketch) estimateError() float64 {
	return math.Pow(1.0-math.Exp(-float64(s.keys*s.nadded)/float64(s.size)), float64(s.keys))
}

func (s *Sketch) hash(seq []byte) (uint64, uint64) {
	if len(s.h0State) == 0 {
		s.h0State = make([]byte, 32)
		s.h1State = make([]byte, 32)
		// we care about reproducability, not uniqueness...
		binary.LittleEndian.PutUint64(s.h0State, s.size)
		binary.LittleEndian.PutUint64(s.h1State, s.keys)
	}

	h0 := highwayhash.Sum64(seq, s.h0State)
	h1 := highwayhash.Sum64(seq, s.h1State)
	return h0, h1
}
