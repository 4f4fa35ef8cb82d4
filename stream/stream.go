// The MIT License (MIT)
//
// # Copyright (c) sshim contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package stream holds the per-stream replay state shared by the three
// sshim roles: a bounded ring of produced bytes, the count of bytes
// acknowledged as delivered, and the running total of bytes ever read.
package stream

import "github.com/pkg/errors"

// Index identifies one of the three standard streams carried by a session.
type Index int

const (
	// Stdin is input flowing app -> command.
	Stdin Index = 0
	// Stdout is output flowing command -> app.
	Stdout Index = 1
	// Stderr is error output flowing command -> app.
	Stderr Index = 2
)

func (i Index) String() string {
	switch i {
	case Stdin:
		return "stdin"
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "stream?"
	}
}

const (
	// BufSize is the per-stream replay window: 1024 * 8192 = 8 MiB.
	BufSize = 1024 * 8192
	// MaxBuf is the point at which the oldest BufSize bytes are discarded.
	MaxBuf = 3 * BufSize
	// ChunkSize is the read/write quantum used by the forwarding loop.
	ChunkSize = 8192
)

// ErrWindowExhausted is returned when a resume request asks for bytes that
// have already been discarded from the bounded replay buffer.
var ErrWindowExhausted = errors.New("stream: replay window exhausted, resume impossible")

// State tracks one stream's produced bytes and replay position. It is held
// by whichever side produces the stream: L for stdin, D for stdout/stderr.
type State struct {
	idx    Index
	rbytes int64  // total bytes ever read from the producer
	buf    []byte // bounded replay ring: most recent bytes read
	ibuf   int    // bytes of buf already acknowledged as delivered
	eof    bool   // end-of-stream marker emitted
}

// New returns a zeroed stream state for the given index.
func New(idx Index) *State {
	return &State{idx: idx}
}

// Index returns the stream this state tracks.
func (s *State) Index() Index { return s.idx }

// RBytes returns the total number of bytes ever read for this stream.
func (s *State) RBytes() int64 { return s.rbytes }

// EOF reports whether the end-of-stream marker has been emitted.
func (s *State) EOF() bool { return s.eof }

// Pending returns the bytes not yet acknowledged as delivered: buf[ibuf:].
func (s *State) Pending() []byte { return s.buf[s.ibuf:] }

// Drained reports whether every produced byte has been acknowledged and the
// stream has reached its end-of-stream marker.
func (s *State) Drained() bool { return s.eof && s.ibuf == len(s.buf) }

// Append records newly-read bytes, growing the replay buffer and advancing
// rbytes. When the buffer reaches MaxBuf, the oldest BufSize bytes are
// discarded and ibuf is shifted down to match; invariant is
// ibuf >= BufSize at that point, or the session has a bookkeeping bug.
//
// If the newly-extended buffer now ends with the EOF marker, eof is set —
// this is what lets a relay (R forwarding sockets; L or D relaying a
// stream they don't themselves produce) learn end-of-stream the same way
// a real producer does, without re-deriving it from its own handle
// reaching io.EOF.
func (s *State) Append(p []byte) {
	s.buf = append(s.buf, p...)
	s.rbytes += int64(len(p))
	if len(s.buf) >= MaxBuf {
		if s.ibuf < BufSize {
			// Unreachable under a correctly-driven protocol: a consumer
			// cannot have fallen BufSize bytes behind without the
			// producer-side backpressure check in the forwarding loop
			// having already paused reads.
			s.ibuf = BufSize
		}
		s.buf = s.buf[BufSize:]
		s.ibuf -= BufSize
	}
	if !s.eof && HasTrailingMarker(s.buf) {
		s.eof = true
	}
}

// MarkEOF appends the in-band EOF marker as if it were produced data and
// sets eof. Safe to call more than once; only the first call has effect.
func (s *State) MarkEOF() {
	if s.eof {
		return
	}
	s.eof = true
	s.Append(EOFMarker)
}

// Advance records n bytes of buf[ibuf:] as delivered to the consumer.
func (s *State) Advance(n int) {
	s.ibuf += n
	if s.ibuf > len(s.buf) {
		s.ibuf = len(s.buf)
	}
}

// Discard marks every currently-buffered byte as delivered without
// actually writing it, used when the consumer end has vanished for good
// and the forwarding loop must still be able to observe Drained().
func (s *State) Discard() {
	s.ibuf = len(s.buf)
}

// Backlog reports how many produced-but-undelivered bytes are outstanding,
// used by the forwarding loop to apply producer-side backpressure.
func (s *State) Backlog() int {
	return len(s.buf) - s.ibuf
}

// Rewind implements the resume-handshake rewind described in spec.md §4.2:
// given the number of bytes the peer confirms having fully delivered
// downstream, move ibuf back to the first byte not yet confirmed. Returns
// ErrWindowExhausted if those bytes have already been discarded.
func (s *State) Rewind(confirmed int64) error {
	behind := s.rbytes - confirmed
	if behind < 0 {
		behind = 0
	}
	newIbuf := len(s.buf) - int(behind)
	if newIbuf < 0 {
		return ErrWindowExhausted
	}
	s.ibuf = newIbuf
	return nil
}
