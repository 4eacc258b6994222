// Package sink provides the byte-sink capability handed to value
// deserializers: a resizable, position-addressed destination for the
// bytes of a deserialized value.
package sink

import "errors"

var (
	// ErrNegativeSize is returned by SetSize for a negative size.
	ErrNegativeSize = errors.New("sink: negative size")
	// ErrPositionOutOfRange is returned by PutByte for a position
	// outside [0, size).
	ErrPositionOutOfRange = errors.New("sink: position out of range")
)

// Sink receives the bytes of a deserialized value. Implementations fail
// fast on invalid arguments, with no partial mutation beyond what
// already occurred before the check.
type Sink interface {
	// SetSize prepares the sink for size bytes, discarding previous
	// contents.
	SetSize(size int) error

	// PutByte stores v at position pos, which must lie in [0, size).
	PutByte(pos int, v byte) error
}

// ByteSink is the reference Sink implementation backed by one
// contiguous buffer.
type ByteSink struct {
	buf []byte
}

// SetSize allocates a fresh buffer of size bytes.
func (s *ByteSink) SetSize(size int) error {
	if size < 0 {
		return ErrNegativeSize
	}
	s.buf = make([]byte, size)
	return nil
}

// PutByte stores v at pos.
func (s *ByteSink) PutByte(pos int, v byte) error {
	if pos < 0 || pos >= len(s.buf) {
		return ErrPositionOutOfRange
	}
	s.buf[pos] = v
	return nil
}

// Bytes returns the sink's current contents.
func (s *ByteSink) Bytes() []byte { return s.buf }

// String renders the contents as text for diagnostics.
func (s *ByteSink) String() string { return string(s.buf) }

var _ Sink = (*ByteSink)(nil)
