package formats

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnknownFormat indicates that the leading bytes of the input match
	// no registered format, or that the input is empty.
	ErrUnknownFormat = errors.New("seqio/formats: unrecognized or empty input")
)

// Reader returns Records from a supported Format.
//
// Iteration is forward-only and not restartable: Next consumes bytes from
// the underlying stream and io.EOF is terminal. A parse error is likewise
// terminal; no position after it is reliably parseable.
type Reader interface {
	// Next returns the next Record in the stream, io.EOF at end of input,
	// or a parse error describing the malformed input.
	Next() (*Record, error)

	// Err returns the last error that occured.
	Err() error
}

// Writer serializes records to a supported Format.
type Writer interface {
	// Write serializes the Record.
	Write(*Record) error

	// Flush writes any buffered output to the underlying stream.
	Flush() error

	// Err returns the last error that occured.
	Err() error
}

// Record represents a single sequence record sourced from the Format.
type Record struct {
	// ID is the record identifier: the first whitespace-delimited token
	// of the header line.
	ID string

	// Desc is the free-text remainder of the header line, if any.
	Desc string

	// Seq contains the sequence data with line breaks removed.
	Seq []byte

	// Qual contains per-base quality values for formats that record them,
	// nil otherwise. A valid record has len(Qual) == len(Seq).
	Qual []byte
}

///////////

// Format describes a supported sequence file format.
type Format struct {
	// Name of the Format used for locating the Reader/Writer to use.
	Name string

	// Extensions lists the file extensions that typically denote this
	// Format. Note each extension MUST begin with a "." dot prefix.
	Extensions []string

	// Detect reports whether the given prefix of the stream (leading
	// blank lines already removed) starts a record in this Format.
	Detect func(prefix []byte) bool

	// NewReader returns a new format Reader for the given stream.
	NewReader func(r io.Reader) Reader

	// NewWriter returns a new format Writer applied to the given stream.
	NewWriter func(w io.Writer) Writer
}

// Register a Format for inclusion in any subsequent detection and
// read/write tasks. Registration order defines detection priority.
// Returns the number of formats currently registered, thus it can be used
// as a global initializer by ignoring the result:
//
//    var _ = formats.Register(&formats.Format{...})
//
func Register(f *Format) int {
	for _, known := range supportedFormats {
		if known.Name == f.Name {
			panic("the format '" + f.Name + "' is already in use.")
		}
	}
	supportedFormats = append(supportedFormats, f)
	return len(supportedFormats)
}

// Lookup returns the registered Format with the given name, or nil.
func Lookup(name string) *Format {
	for _, f := range supportedFormats {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Open returns a Reader for the input file. If the file extension denotes a
// registered Format its reader is used directly; otherwise an Auto reader
// sniffs the content on first read.
func Open(in *os.File) (Reader, error) {
	info, err := in.Stat()
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(info.Name()))
	for _, f := range supportedFormats {
		for _, x := range f.Extensions {
			if x == ext {
				return f.NewReader(in), nil
			}
		}
	}
	return NewAuto(in), nil
}

var (
	supportedFormats []*Format
)
