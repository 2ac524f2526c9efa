package irc

import (
	"bytes"
	"errors"
	"iter"
)

// MaxLineLength is the RFC 1459 limit on a protocol line, terminator included
const MaxLineLength = 512

// ErrLineTooLong is yielded in place of a line that exceeds the framer's limit
var ErrLineTooLong = errors.New("irc: line too long")

// Framer accumulates raw bytes from one connection and cuts them into
// protocol lines. It is not safe for concurrent use.
type Framer struct {
	buf        []byte
	max        int
	discarding bool
}

// NewFramer returns a framer that rejects lines longer than max bytes
// including the terminator. A max below 3 selects MaxLineLength.
func NewFramer(max int) *Framer {
	if max < 3 {
		max = MaxLineLength
	}
	return &Framer{max: max}
}

// Write appends p to the pending input. It never fails.
func (f *Framer) Write(p []byte) (int, error) {
	f.buf = append(f.buf, p...)
	return len(p), nil
}

// Buffered returns the number of bytes waiting for a terminator
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Lines returns the complete lines currently buffered. Lines are consumed as
// the sequence is iterated; stopping early leaves the rest for the next call.
// An oversized line is yielded once as ("", ErrLineTooLong) and its bytes are
// dropped through the next terminator.
func (f *Framer) Lines() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			i := bytes.IndexByte(f.buf, '\n')
			if i < 0 {
				f.overflow(yield)
				return
			}

			raw := f.buf[:i]
			f.buf = f.buf[i+1:]

			if f.discarding {
				f.discarding = false
				continue
			}

			raw = bytes.TrimSuffix(raw, []byte{'\r'})
			if len(raw) > f.max-2 {
				if !yield("", ErrLineTooLong) {
					return
				}
				continue
			}
			if len(raw) == 0 {
				continue
			}
			if !yield(string(raw), nil) {
				return
			}
		}
	}
}

// overflow handles a partial line that can no longer fit. Its bytes are
// dropped now and the remainder of the line when its terminator arrives.
func (f *Framer) overflow(yield func(string, error) bool) {
	if len(f.buf) < f.max {
		return
	}
	f.buf = f.buf[:0]
	if f.discarding {
		return
	}
	f.discarding = true
	yield("", ErrLineTooLong)
}
