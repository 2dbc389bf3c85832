package formats

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

// Compare the cost of reading through a hand-picked concrete reader
// against the format-detecting Auto path for the same input.

const (
	benchRecords = 1000
	benchIDLen   = 10
	benchDescLen = 20
	benchSeqLen  = 100
)

func genRandomFASTA(tb testing.TB) []byte {
	tb.Helper()
	rng := rand.New(rand.NewSource(42))
	letters := []byte("abcdefghijklmnopqrstuvwxyz0123456789")
	bases := []byte("ACTG")

	pick := func(n int, from []byte) []byte {
		b := make([]byte, n)
		for i := range b {
			b[i] = from[rng.Intn(len(from))]
		}
		return b
	}

	buf := &bytes.Buffer{}
	w := NewFASTAWriter(buf)
	for i := 0; i < benchRecords; i++ {
		rec := &Record{
			ID:   string(pick(benchIDLen, letters)),
			Desc: string(pick(benchDescLen, letters)),
			Seq:  pick(benchSeqLen, bases),
		}
		if err := w.Write(rec); err != nil {
			tb.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		tb.Fatal(err)
	}
	return buf.Bytes()
}

func countBases(tb testing.TB, r Reader) int {
	n := 0
	rec, err := r.Next()
	for err == nil {
		n += len(rec.Seq)
		rec, err = r.Next()
	}
	if err != io.EOF {
		tb.Fatal(err)
	}
	return n
}

func checkAll(tb testing.TB, r Reader) {
	rec, err := r.Next()
	for err == nil {
		if cerr := rec.Check(); cerr != nil {
			tb.Fatal(cerr)
		}
		rec, err = r.Next()
	}
	if err != io.EOF {
		tb.Fatal(err)
	}
}

func BenchmarkFASTACount(b *testing.B) {
	data := genRandomFASTA(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if n := countBases(b, NewFASTAReader(bytes.NewReader(data))); n != benchRecords*benchSeqLen {
			b.Fatalf("counted %d bases", n)
		}
	}
}

func BenchmarkAutoCount(b *testing.B) {
	data := genRandomFASTA(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if n := countBases(b, NewAuto(bytes.NewReader(data))); n != benchRecords*benchSeqLen {
			b.Fatalf("counted %d bases", n)
		}
	}
}

func BenchmarkFASTACheck(b *testing.B) {
	data := genRandomFASTA(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		checkAll(b, NewFASTAReader(bytes.NewReader(data)))
	}
}

func BenchmarkAutoCheck(b *testing.B) {
	data := genRandomFASTA(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		checkAll(b, NewAuto(bytes.NewReader(data)))
	}
}
