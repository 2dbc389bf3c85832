package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckValid(t *testing.T) {
	rec := &Record{ID: "seq1", Seq: []byte("ACGTacgt")}
	assert.NoError(t, rec.Check())

	rec = &Record{ID: "read1", Seq: []byte("ACGT"), Qual: []byte("II!~")}
	assert.NoError(t, rec.Check())
}

func TestCheckFailures(t *testing.T) {
	cases := []struct {
		name string
		rec  *Record
		want string
	}{
		{"missing id", &Record{Seq: []byte("ACGT")}, "missing record identifier"},
		{"empty sequence", &Record{ID: "seq1"}, "empty sequence"},
		{"bad sequence byte", &Record{ID: "seq1", Seq: []byte("ACG.T")}, "non-alphabetic byte '.' in sequence at position 3"},
		{"quality length", &Record{ID: "r", Seq: []byte("ACGT"), Qual: []byte("II")}, "quality length 2 does not match sequence length 4"},
		{"quality range", &Record{ID: "r", Seq: []byte("ACGT"), Qual: []byte("II I")}, "quality value ' ' out of range at position 2"},
	}
	for _, c := range cases {
		err := c.rec.Check()
		require.Error(t, err, c.name)
		assert.Contains(t, err.Error(), c.want, c.name)
	}
}

func TestCheckIdempotent(t *testing.T) {
	rec := &Record{ID: "r", Seq: []byte("ACGT"), Qual: []byte("II")}
	first := rec.Check()
	require.Error(t, first)
	assert.Equal(t, first.Error(), rec.Check().Error())
	assert.Equal(t, []byte("ACGT"), rec.Seq)
	assert.Equal(t, []byte("II"), rec.Qual)
}

func TestCheckAlphabet(t *testing.T) {
	rec := &Record{ID: "seq1", Seq: []byte("ACGTN")}
	assert.NoError(t, rec.CheckAlphabet(DNA))

	// U is alphabetic (passes Check) but not DNA
	rec = &Record{ID: "seq1", Seq: []byte("ACGU")}
	assert.NoError(t, rec.Check())
	err := rec.CheckAlphabet(DNA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the dna alphabet")

	strict := NewAlphabet("strict dna", "ACGT")
	assert.NoError(t, (&Record{ID: "s", Seq: []byte("ACGT")}).CheckAlphabet(strict))
	assert.Error(t, (&Record{ID: "s", Seq: []byte("acgt")}).CheckAlphabet(strict))
}
