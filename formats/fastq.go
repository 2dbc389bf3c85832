package formats

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

var _ = Register(&Format{
	Name:       "fastq",
	Extensions: []string{".fastq", ".fq"},
	Detect:     func(prefix []byte) bool { return len(prefix) > 0 && prefix[0] == '@' },
	NewReader:  func(r io.Reader) Reader { return NewFASTQReader(r) },
	NewWriter:  func(w io.Writer) Writer { return NewFASTQWriter(w) },
})

// FASTQ supports reading sequence records from a FASTQ file.
//
// Records are strictly four lines: '@' header, sequence, '+' separator
// (optionally repeating the header, which must then match), and quality.
// Blank lines between records and CRLF line endings are tolerated.
// Multi-line sequence or quality blocks are not supported.
//
// A quality line whose length differs from the sequence line still parses;
// the mismatch is reported by (*Record).Check, not as a parse error.
type FASTQ struct {
	br     *bufio.Reader
	lineno int

	stickyErr error
}

// NewFASTQReader returns a formats.Reader over the FASTQ stream r.
// No bytes are read until the first call to Next.
func NewFASTQReader(r io.Reader) *FASTQ {
	return &FASTQ{br: bufio.NewReader(r)}
}

// readLine returns the next line with the line ending and surrounding
// whitespace removed, or io.EOF once the input is exhausted.
func (x *FASTQ) readLine() ([]byte, error) {
	raw, err := x.br.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, io.EOF
	}
	x.lineno++
	return bytes.TrimSpace(raw), nil
}

func (x *FASTQ) parseError(msg string) error {
	x.stickyErr = fmt.Errorf("seqio/formats: fastq: line %d: %s", x.lineno, msg)
	return x.stickyErr
}

// Next returns the next Record in the stream.
// (Implements the formats.Reader interface)
func (x *FASTQ) Next() (*Record, error) {
	if x.stickyErr != nil {
		return nil, x.stickyErr
	}

	// header, skipping blank lines between records
	var hdr []byte
	for {
		line, err := x.readLine()
		if err != nil {
			x.stickyErr = err
			return nil, err
		}
		if len(line) == 0 {
			continue
		}
		if line[0] != '@' {
			return nil, x.parseError("expected '@' to start a record")
		}
		hdr = line[1:]
		break
	}

	seq, err := x.readLine()
	if err != nil {
		return nil, x.truncated(err)
	}
	plus, err := x.readLine()
	if err != nil {
		return nil, x.truncated(err)
	}
	if len(plus) == 0 || plus[0] != '+' {
		return nil, x.parseError("expected '+' separator line")
	}
	if len(plus) > 1 && !bytes.Equal(plus[1:], hdr) {
		return nil, x.parseError("separator line does not match record header")
	}
	qual, err := x.readLine()
	if err != nil {
		return nil, x.truncated(err)
	}

	if qual == nil {
		qual = []byte{}
	}
	return newRecord(hdr, seq, qual), nil
}

func (x *FASTQ) truncated(err error) error {
	if err == io.EOF {
		return x.parseError("unexpected end of input in record")
	}
	x.stickyErr = err
	return err
}

// Err returns the last error that occured.
func (x *FASTQ) Err() error {
	return x.stickyErr
}

///////////

// FASTQWriter serializes records to FASTQ.
type FASTQWriter struct {
	w *bufio.Writer

	stickyErr error
}

// NewFASTQWriter returns a FASTQ Writer applied to the given stream.
func NewFASTQWriter(w io.Writer) *FASTQWriter {
	return &FASTQWriter{w: bufio.NewWriter(w)}
}

// Write serializes the Record. Records without quality data cannot be
// represented in FASTQ and are rejected.
// (Implements the formats.Writer interface)
func (x *FASTQWriter) Write(r *Record) error {
	if x.stickyErr != nil {
		return x.stickyErr
	}
	if r.Qual == nil {
		x.stickyErr = fmt.Errorf("seqio/formats: fastq: record %q has no quality data", r.ID)
		return x.stickyErr
	}
	x.w.WriteByte('@')
	x.w.WriteString(r.ID)
	if r.Desc != "" {
		x.w.WriteByte(' ')
		x.w.WriteString(r.Desc)
	}
	x.w.WriteByte('\n')
	x.w.Write(r.Seq)
	x.w.WriteString("\n+\n")
	x.w.Write(r.Qual)
	x.stickyErr = x.w.WriteByte('\n')
	return x.stickyErr
}

// Flush writes any buffered output to the underlying stream.
func (x *FASTQWriter) Flush() error {
	if x.stickyErr != nil {
		return x.stickyErr
	}
	x.stickyErr = x.w.Flush()
	return x.stickyErr
}

// Err returns the last error that occured.
func (x *FASTQWriter) Err() error {
	return x.stickyErr
}
