package formats

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

var _ = Register(&Format{
	Name:       "fasta",
	Extensions: []string{".fasta", ".fa", ".fna", ".ffn", ".faa", ".frn"},
	Detect:     func(prefix []byte) bool { return len(prefix) > 0 && prefix[0] == '>' },
	NewReader:  func(r io.Reader) Reader { return NewFASTAReader(r) },
	NewWriter:  func(w io.Writer) Writer { return NewFASTAWriter(w) },
})

// FASTA supports reading sequence records from a FASTA file.
//
// A record starts at a '>' header line holding the identifier and optional
// description; every following line up to the next header (or end of input)
// is sequence data. Blank lines and CRLF line endings are tolerated.
type FASTA struct {
	br     *bufio.Reader
	lineno int

	// header of the record after the current one, already consumed
	// from the stream
	pending []byte

	started   bool
	stickyErr error
}

// NewFASTAReader returns a formats.Reader over the FASTA stream r.
// No bytes are read until the first call to Next.
func NewFASTAReader(r io.Reader) *FASTA {
	return &FASTA{br: bufio.NewReader(r)}
}

// Next returns the next Record in the stream.
// (Implements the formats.Reader interface)
func (x *FASTA) Next() (*Record, error) {
	if x.stickyErr != nil {
		return nil, x.stickyErr
	}

	var hdr, seq []byte
	inRecord := false
	if x.pending != nil {
		hdr, x.pending = x.pending, nil
		inRecord = true
	}

	for {
		raw, err := x.br.ReadBytes('\n')
		eof := err == io.EOF
		if err != nil && !eof {
			x.stickyErr = err
			return nil, err
		}
		if len(raw) > 0 {
			x.lineno++
		}
		line := bytes.TrimSpace(raw)
		switch {
		case len(line) == 0:
			// blank line
		case line[0] == '>':
			if inRecord {
				// start of the following record; hold its header
				x.pending = append([]byte(nil), line[1:]...)
				return newRecord(hdr, seq, nil), nil
			}
			inRecord = true
			hdr = append([]byte(nil), line[1:]...)
		default:
			if !inRecord {
				x.stickyErr = fmt.Errorf("seqio/formats: fasta: line %d: expected '>' to start a record", x.lineno)
				return nil, x.stickyErr
			}
			seq = append(seq, bytes.Join(bytes.Fields(line), nil)...)
		}
		if eof {
			x.stickyErr = io.EOF
			if inRecord {
				return newRecord(hdr, seq, nil), nil
			}
			return nil, io.EOF
		}
	}
}

// Err returns the last error that occured.
func (x *FASTA) Err() error {
	return x.stickyErr
}

// newRecord builds a Record from a raw header line (marker byte removed),
// splitting the identifier from the optional description.
func newRecord(hdr, seq, qual []byte) *Record {
	h := strings.TrimSpace(string(hdr))
	id, desc := h, ""
	if i := strings.IndexAny(h, " \t"); i >= 0 {
		id, desc = h[:i], strings.TrimSpace(h[i+1:])
	}
	return &Record{ID: id, Desc: desc, Seq: seq, Qual: qual}
}

///////////

// FASTAWriter serializes records to FASTA.
type FASTAWriter struct {
	w    *bufio.Writer
	wrap int

	stickyErr error
}

// NewFASTAWriter returns a FASTA Writer applied to the given stream.
// Sequences are written on a single line unless Wrap is set.
func NewFASTAWriter(w io.Writer) *FASTAWriter {
	return &FASTAWriter{w: bufio.NewWriter(w)}
}

// Wrap sets the output line width for sequence data.
// A width of 0 disables wrapping.
func (x *FASTAWriter) Wrap(width int) *FASTAWriter {
	x.wrap = width
	return x
}

// Write serializes the Record. Quality data, if any, is dropped.
// (Implements the formats.Writer interface)
func (x *FASTAWriter) Write(r *Record) error {
	if x.stickyErr != nil {
		return x.stickyErr
	}
	x.w.WriteByte('>')
	x.w.WriteString(r.ID)
	if r.Desc != "" {
		x.w.WriteByte(' ')
		x.w.WriteString(r.Desc)
	}
	x.w.WriteByte('\n')

	seq := r.Seq
	if x.wrap > 0 {
		for len(seq) > x.wrap {
			x.w.Write(seq[:x.wrap])
			x.w.WriteByte('\n')
			seq = seq[x.wrap:]
		}
	}
	x.w.Write(seq)
	x.stickyErr = x.w.WriteByte('\n')
	return x.stickyErr
}

// Flush writes any buffered output to the underlying stream.
func (x *FASTAWriter) Flush() error {
	if x.stickyErr != nil {
		return x.stickyErr
	}
	x.stickyErr = x.w.Flush()
	return x.stickyErr
}

// Err returns the last error that occured.
func (x *FASTAWriter) Err() error {
	return x.stickyErr
}
