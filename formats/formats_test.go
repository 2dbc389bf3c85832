package formats

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) *os.File {
	t.Helper()
	fn := filepath.Join(t.TempDir(), name)
	require.NoError(t, ioutil.WriteFile(fn, []byte(content), 0644))
	f, err := os.Open(fn)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestOpenByExtension(t *testing.T) {
	f := writeTempFile(t, "in.fa", ">seq1\nACGT\n")
	r, err := Open(f)
	require.NoError(t, err)
	_, ok := r.(*FASTA)
	assert.True(t, ok, "extension .fa should pick the FASTA reader directly")

	recs := readAll(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "seq1", recs[0].ID)
}

func TestOpenUnknownExtensionSniffs(t *testing.T) {
	f := writeTempFile(t, "in.dat", "@read1\nACGT\n+\nIIII\n")
	r, err := Open(f)
	require.NoError(t, err)
	a, ok := r.(*Auto)
	require.True(t, ok, "unknown extension should fall back to content detection")

	recs := readAll(t, r)
	require.Len(t, recs, 1)
	assert.Equal(t, "fastq", a.FormatName())
	assert.Equal(t, []byte("IIII"), recs[0].Qual)
}

func TestLookup(t *testing.T) {
	require.NotNil(t, Lookup("fasta"))
	require.NotNil(t, Lookup("fastq"))
	assert.Nil(t, Lookup("sam"))
}
