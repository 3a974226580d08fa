package tagstream

import (
	"errors"
	"fmt"
	"io"

	"animexport/internal/tagcode"
)

// ErrTagNotAllowed is returned when a tag above the target level is written.
var ErrTagNotAllowed = errors.New("feature tag not allowed at target level")

// Gate decides which tags may be written. compat.Gate satisfies it.
type Gate interface {
	Allows(tag tagcode.Code) bool
}

// Writer frames tags onto an underlying writer. The first error, including a
// gate denial, sticks and is returned by every later call and by Err.
type Writer struct {
	w       io.Writer
	gate    Gate
	buf     []byte
	written int64
	err     error
}

// NewWriter returns a Writer that consults gate before every tag.
func NewWriter(w io.Writer, gate Gate) *Writer {
	return &Writer{w: w, gate: gate}
}

// WriteTag writes one tag with payload.
func (w *Writer) WriteTag(code tagcode.Code, payload []byte) error {
	if w.err != nil {
		return w.err
	}
	if code != tagcode.End && !w.gate.Allows(code) {
		w.err = fmt.Errorf("%w: %v", ErrTagNotAllowed, code)
		return w.err
	}
	buf, err := AppendHeader(w.buf[:0], code, len(payload))
	if err != nil {
		w.err = err
		return err
	}
	w.buf = append(buf, payload...)
	n, err := w.w.Write(w.buf)
	w.written += int64(n)
	if err != nil {
		w.err = fmt.Errorf("write tag %v: %w", code, err)
		return w.err
	}
	return nil
}

// WriteEnd terminates a tag block.
func (w *Writer) WriteEnd() error {
	return w.WriteTag(tagcode.End, nil)
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 { return w.written }

// Err returns the sticky error, if any.
func (w *Writer) Err() error { return w.err }
