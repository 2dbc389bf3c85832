package formats

import (
	"bufio"
	"io"
)

// autoPeekSize bounds how much of the stream is inspected for detection.
const autoPeekSize = 4096

// Auto reads sequence records from a stream whose format is not known in
// advance. The first call to Next peeks at the leading bytes, matches them
// against each registered Format in registration order, and hands the
// stream to the first match. Every later call is forwarded to that reader;
// the choice is never revisited.
//
// Construction performs no I/O, so a detection failure (ErrUnknownFormat)
// surfaces on first use, not from NewAuto.
type Auto struct {
	br *bufio.Reader
	r  Reader

	format    string
	stickyErr error
}

// NewAuto returns a format-detecting Reader over the stream in.
func NewAuto(in io.Reader) *Auto {
	return &Auto{br: bufio.NewReaderSize(in, autoPeekSize)}
}

// resolve performs one-shot format detection. Leading blank lines are
// consumed; the record data itself is only peeked, never discarded.
func (x *Auto) resolve() error {
	if x.r != nil || x.stickyErr != nil {
		return x.stickyErr
	}

	for {
		b, err := x.br.Peek(1)
		if err != nil {
			if err == io.EOF {
				x.stickyErr = ErrUnknownFormat
			} else {
				x.stickyErr = err
			}
			return x.stickyErr
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			x.br.Discard(1)
		default:
			prefix, err := x.br.Peek(autoPeekSize)
			if err != nil && err != io.EOF {
				x.stickyErr = err
				return x.stickyErr
			}
			for _, f := range supportedFormats {
				if f.Detect(prefix) {
					x.format = f.Name
					x.r = f.NewReader(x.br)
					return nil
				}
			}
			x.stickyErr = ErrUnknownFormat
			return x.stickyErr
		}
	}
}

// Next returns the next Record in the stream, detecting the stream format
// on first use.
// (Implements the formats.Reader interface)
func (x *Auto) Next() (*Record, error) {
	if err := x.resolve(); err != nil {
		return nil, err
	}
	return x.r.Next()
}

// Err returns the last error that occured.
func (x *Auto) Err() error {
	if x.stickyErr != nil {
		return x.stickyErr
	}
	if x.r != nil {
		return x.r.Err()
	}
	return nil
}

// FormatName reports which format was detected, or "" before the first
// successful call to Next.
func (x *Auto) FormatName() string {
	return x.format
}
