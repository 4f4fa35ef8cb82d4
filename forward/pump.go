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

// Package forward wires one stream's replay state to its read and write
// handles. Each of the three roles runs its own select loop over a handful
// of Pumps (the loops differ enough in their EOF/reconnect semantics that
// sharing them wouldn't simplify anything), but the read/append and
// write/advance bookkeeping — including never leaking the in-band EOF
// marker to a user-facing endpoint — is identical everywhere, so it lives
// here once.
package forward

import (
	"github.com/renangraciano/sshim/ioevent"
	"github.com/renangraciano/sshim/stream"
)

// Pump binds one stream.State to an optional reader and an optional
// writer. A read-only pump (Writer nil) only ever appends; a write-only
// pump (Reader nil) only ever drains what something else appended.
type Pump struct {
	State  *stream.State
	Reader *ioevent.Reader
	Writer *ioevent.Writer

	// StripMarker is set for pumps writing to a user-facing endpoint (the
	// app, or the command's real stdin) where the 17-byte EOF sentinel
	// must never appear in the delivered bytes.
	StripMarker bool

	writeInFlight bool
	inFlightRaw   int
}

// NewPump constructs a Pump for idx with a fresh zeroed replay state.
func NewPump(idx stream.Index, r *ioevent.Reader, w *ioevent.Writer, stripMarker bool) *Pump {
	return &Pump{State: stream.New(idx), Reader: r, Writer: w, StripMarker: stripMarker}
}

// Rebind attaches a fresh reader/writer pair to an existing pump after a
// reconnect, keeping the replay State (and therefore the session's byte
// counters) intact across the old connection's handles being discarded.
func (p *Pump) Rebind(r *ioevent.Reader, w *ioevent.Writer) {
	p.Reader = r
	p.Writer = w
	p.writeInFlight = false
}

// Append records newly-read bytes into the replay buffer.
func (p *Pump) Append(data []byte) {
	if len(data) > 0 {
		p.State.Append(data)
	}
}

// ResumeIfRoom grants the reader another permit as long as backpressure
// doesn't require holding off: spec.md's "more than BUF_SIZE bytes
// buffered but unwritten" pause.
func (p *Pump) ResumeIfRoom() {
	if p.Reader == nil {
		return
	}
	if p.State.Backlog() <= stream.BufSize {
		p.Reader.Resume()
	}
}

// TryFlush submits the next writable chunk when nothing is already in
// flight. It returns true if a write was submitted. Marker bytes that
// would be the only thing deliverable are swallowed directly (ibuf
// advances with no actual Write call) so Drained() can still become true
// on a pump with no further real data to send.
func (p *Pump) TryFlush() bool {
	if p.Writer == nil || p.writeInFlight {
		return false
	}
	pending := p.State.Pending()
	if len(pending) == 0 {
		return false
	}
	chunkN := len(pending)
	if chunkN > stream.ChunkSize {
		chunkN = stream.ChunkSize
	}
	deliverN := chunkN
	advanceN := chunkN
	if p.StripMarker {
		deliverN = stream.DeliverableLen(pending, chunkN, p.State.EOF())
		// Never advance past a marker byte this flush didn't deliver: if
		// the marker straddles chunkN, stop the raw cursor exactly where
		// the marker starts too, so it arrives intact (never split) on
		// the next TryFlush instead of being leaked a piece at a time.
		advanceN = deliverN
	}
	if deliverN == 0 {
		// chunkN <= MarkerLen and advanceN capped it to 0 on every prior
		// flush, so pending can only be the whole, intact marker here.
		if p.State.EOF() && stream.HasTrailingMarker(pending[:chunkN]) {
			p.State.Advance(chunkN)
		}
		return false
	}
	chunk := append([]byte(nil), pending[:deliverN]...)
	if !p.Writer.Submit(chunk) {
		return false
	}
	p.writeInFlight = true
	p.inFlightRaw = advanceN
	return true
}

// ApplyWrite consumes the result of a previously-submitted write. On
// success it advances the replay cursor by the length of the submitted
// chunk, without consulting res.N; a submitted chunk never contains marker
// bytes on a StripMarker pump (see TryFlush).
func (p *Pump) ApplyWrite(res ioevent.WriteResult) error {
	p.writeInFlight = false
	if res.Err != nil {
		return res.Err
	}
	p.State.Advance(p.inFlightRaw)
	return nil
}

// Abandon gives up on delivering this pump's buffered and future bytes,
// used once its write endpoint is known to be permanently gone (a broken
// local pipe with no peer to reconnect to). It forces Drained() to become
// true so the loop can still observe overall completion.
func (p *Pump) Abandon() {
	p.writeInFlight = false
	p.State.MarkEOF()
	p.State.Discard()
}

// Idle reports whether this pump has nothing left to read or write: its
// reader (if any) is done and every produced byte has been delivered.
func (p *Pump) Idle() bool {
	return p.State.Drained() && !p.writeInFlight
}
