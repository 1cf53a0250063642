package strutil

import "fmt"

// OverflowMode controls what a Builder does once its initial capacity is
// exceeded, mirroring the tstr_flag_overflow_* choices a caller makes when
// declaring a scratch buffer: keep growing in memory and hand the result
// to the heap as a string object (OverflowToObject, the default), keep
// growing in memory without ever producing a heap object
// (OverflowToAlloc, for callers that only need the bytes transiently), or
// treat any growth past capacity as a caller error (OverflowIsError, for
// fixed-size formatting where truncation would silently corrupt output).
type OverflowMode int

const (
	OverflowToObject OverflowMode = iota
	OverflowToAlloc
	OverflowIsError
)

// Builder is a growable byte buffer that starts with a caller-chosen
// initial capacity and applies an explicit policy once that capacity is
// exceeded. It exists to give callers the same three-way choice muon's
// tstr gives: most string-building call sites don't care how the
// overflow is handled, but a few (fixed-width install-path formatting,
// for instance) want an overflow to be a hard error rather than silent
// growth.
type Builder struct {
	buf       []byte
	cap       int
	mode      OverflowMode
	overflown bool
}

// NewBuilder returns a Builder with the given initial capacity reserved
// up front, using mode when that capacity would be exceeded.
func NewBuilder(initialCap int, mode OverflowMode) *Builder {
	return &Builder{buf: make([]byte, 0, initialCap), cap: initialCap, mode: mode}
}

// WriteString appends s to the buffer. It returns an error only when the
// Builder's mode is OverflowIsError and appending s would exceed the
// initial capacity.
func (b *Builder) WriteString(s string) error {
	if b.mode == OverflowIsError && len(b.buf)+len(s) > b.cap {
		return fmt.Errorf("strutil: tstr overflow: %d-byte buffer cannot hold %d more bytes", b.cap, len(s))
	}
	if len(b.buf)+len(s) > b.cap {
		b.overflown = true
	}
	b.buf = append(b.buf, s...)
	return nil
}

// WriteByte appends a single byte, subject to the same overflow policy as
// WriteString.
func (b *Builder) WriteByte(c byte) error {
	return b.WriteString(string(c))
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int { return len(b.buf) }

// Overflown reports whether the buffer has grown past its initial
// capacity.
func (b *Builder) Overflown() bool { return b.overflown }

// String returns the accumulated bytes. Valid regardless of overflow
// mode; callers using OverflowToObject typically pass this to a Heap's
// MakeString once building is complete rather than calling String
// mid-stream.
func (b *Builder) String() string { return string(b.buf) }

// Reset empties the buffer for reuse, clearing the overflow flag but
// keeping the originally allocated backing array when possible.
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
	b.overflown = false
}
