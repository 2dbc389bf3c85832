package index

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joiningdata/seqio/formats"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestIndexFile(t *testing.T) {
	db := openTestDB(t)

	in := ">seq1\nACGTACGTAC\n>seq2\nACGTACGTACGTACG\n"
	info, err := db.IndexFile("a.fasta", formats.NewAuto(strings.NewReader(in)))
	require.NoError(t, err)
	assert.Equal(t, "fasta", info.Format)
	assert.Equal(t, 2, info.Records)
	assert.Equal(t, int64(25), info.Bases)

	files, err := db.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.fasta", files[0].Path)
	assert.Equal(t, 2, files[0].Records)
}

func TestIndexFileReplace(t *testing.T) {
	db := openTestDB(t)

	_, err := db.IndexFile("a.fasta", formats.NewAuto(strings.NewReader(">seq1\nACGT\n")))
	require.NoError(t, err)
	info, err := db.IndexFile("a.fasta", formats.NewAuto(strings.NewReader(">seq9\nACGTACGT\n")))
	require.NoError(t, err)
	assert.Equal(t, 1, info.Records)

	files, err := db.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)

	hits, err := db.FindRecord("seq1")
	require.NoError(t, err)
	assert.Empty(t, hits, "replaced record must not be found")
}

func TestFindRecord(t *testing.T) {
	db := openTestDB(t)

	_, err := db.IndexFile("a.fasta", formats.NewAuto(strings.NewReader(">seq1\nACGTACGTAC\n>seq2\nTTTT\n")))
	require.NoError(t, err)
	_, err = db.IndexFile("b.fastq", formats.NewAuto(strings.NewReader("@seq2\nACGT\n+\nIIII\n")))
	require.NoError(t, err)

	hits, err := db.FindRecord("seq1")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a.fasta", hits[0].Path)
	assert.Equal(t, 1, hits[0].Ordinal)
	assert.Equal(t, 10, hits[0].Length)

	hits, err = db.FindRecord("seq2")
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = db.FindRecord("nosuch")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexFileFailureLeavesNoPartialState(t *testing.T) {
	db := openTestDB(t)

	_, err := db.IndexFile("good.fasta", formats.NewAuto(strings.NewReader(">seq1\nACGT\n")))
	require.NoError(t, err)

	_, err = db.IndexFile("bad.dat", formats.NewAuto(strings.NewReader("garbage\n")))
	require.Error(t, err)

	// the failed ingest must not leave a files row behind,
	// and listing must still work
	files, err := db.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "good.fasta", files[0].Path)
}

func TestIndexFileFailedReindexKeepsOldRecords(t *testing.T) {
	db := openTestDB(t)

	_, err := db.IndexFile("a.fasta", formats.NewAuto(strings.NewReader(">seq1\nACGT\n")))
	require.NoError(t, err)

	// re-ingest of the same path fails mid-stream
	_, err = db.IndexFile("a.fasta", formats.NewAuto(strings.NewReader("@read1\nACGT\n")))
	require.Error(t, err)

	files, err := db.Files()
	require.NoError(t, err)
	require.Len(t, files, 1)

	hits, err := db.FindRecord("seq1")
	require.NoError(t, err)
	require.Len(t, hits, 1, "previous records must survive a failed re-index")
}

func TestSketchesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "test.sqlite")

	db, err := Open(fn)
	require.NoError(t, err)
	_, err = db.IndexFile("a.fasta", formats.NewAuto(strings.NewReader(">seq1\nACGT\n")))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db2, err := Open(fn)
	require.NoError(t, err)
	defer db2.Close()

	hits, err := db2.FindRecord("seq1")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a.fasta", hits[0].Path)
}
