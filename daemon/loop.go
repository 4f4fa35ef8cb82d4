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

package daemon

import (
	"github.com/hashicorp/go-hclog"

	"github.com/renangraciano/sshim/ioevent"
	"github.com/renangraciano/sshim/proto"
	"github.com/renangraciano/sshim/stream"
)

// mainLoop is D's select-driven forwarding loop. It runs until every
// stream has drained, every finack is in, and the command has been
// reaped — see session.done.
func (s *session) mainLoop(log hclog.Logger) error {
	s.pump0.TryFlush()
	s.pump1.TryFlush()
	s.pump2.TryFlush()
	s.pump1.ResumeIfRoom()
	s.pump2.ResumeIfRoom()

	for {
		if s.pump0.Idle() && !s.stdinClosed {
			s.closeCmdStdin(log)
		}
		if s.done() {
			log.Info("session complete, tearing down sockdir")
			return nil
		}

		select {
		case n := <-s.conn1Ch:
			s.handleConn1(n, log)

		case n := <-s.conn2Ch:
			s.handleConn2(n, log)

		case fev := <-s.finackCh:
			if fev.err != nil {
				log.Warn("sock.2 finack read broke, awaiting reconnect", "error", fev.err)
				s.evictConn2(log)
				continue
			}
			delete(s.finackSet, fev.idx)
			log.Debug("finack received", "stream", fev.idx.String())

		case ev := <-readerEvents(s.pump0.Reader):
			if !s.pump0.State.EOF() {
				s.pump0.Append(ev.Data)
			}
			if ev.Err != nil {
				// D's view of the app's stream 0 arriving over R is never
				// an originating EOF (the app is); the socket itself died.
				log.Warn("sock.1 read broke, awaiting reconnect", "error", ev.Err)
				s.evictConn1(log)
				continue
			}
			s.pump0.ResumeIfRoom()
			s.pump0.TryFlush()

		case ev := <-s.pump1.Reader.Events:
			s.pump1.Append(ev.Data)
			if ev.Err != nil {
				// D IS the originating producer for stream 1: the command's
				// real stdout hit EOF.
				s.pump1.State.MarkEOF()
			} else {
				s.pump1.ResumeIfRoom()
			}
			s.pump1.TryFlush()

		case ev := <-s.pump2.Reader.Events:
			s.pump2.Append(ev.Data)
			if ev.Err != nil {
				s.pump2.State.MarkEOF()
			} else {
				s.pump2.ResumeIfRoom()
			}
			s.pump2.TryFlush()

		case res := <-s.pump0.Writer.Done:
			if err := s.pump0.ApplyWrite(res); err != nil {
				// cmd's stdin pipe broke: nothing more we can deliver on
				// stream 0; abandon it so done() can still converge.
				log.Warn("command stdin write failed", "error", err)
				s.pump0.Abandon()
			}
			s.pump0.TryFlush()

		case res := <-writerDone(s.pump1.Writer):
			if err := s.pump1.ApplyWrite(res); err != nil {
				log.Warn("sock.1 write broke, awaiting reconnect", "error", err)
				s.evictConn1(log)
				continue
			}
			s.pump1.TryFlush()

		case res := <-writerDone(s.pump2.Writer):
			if err := s.pump2.ApplyWrite(res); err != nil {
				log.Warn("sock.2 write broke, awaiting reconnect", "error", err)
				s.evictConn2(log)
				continue
			}
			s.pump2.TryFlush()

		case err := <-s.cmdDone:
			s.cmdReaped = true
			if err != nil {
				log.Info("command exited", "error", err)
			} else {
				log.Info("command exited cleanly")
			}
		}
	}
}

// readerEvents returns r.Events, or a nil channel (blocks forever, never
// selected) when r hasn't been bound yet — used for pump0's reader, which
// starts nil until the first R connection arrives.
func readerEvents(r *ioevent.Reader) <-chan ioevent.ReadEvent {
	if r == nil {
		return nil
	}
	return r.Events
}

// writerDone is the Writer-side equivalent of readerEvents, used for
// pump1/pump2 whose writers start nil until a connection is registered.
func writerDone(w *ioevent.Writer) <-chan ioevent.WriteResult {
	if w == nil {
		return nil
	}
	return w.Done
}

func (s *session) closeCmdStdin(log hclog.Logger) {
	s.stdinClosed = true
	s.pump0.Writer.Close()
	log.Debug("command stdin closed")
}

// handleConn1 admits or rejects an incoming sock.1 connection per
// spec.md §4.2 step 2-4: reject stale epochs, otherwise evict whatever
// was previously registered, report D's stream-0 byte count, and rewind
// D's stream-1 replay cursor to what the new R confirms L has received.
func (s *session) handleConn1(n conn1Ready, log hclog.Logger) {
	if n.epoch.Stale(s.currentEpoch) {
		log.Debug("rejecting stale sock.1 connection", "epoch", n.epoch, "current", s.currentEpoch)
		n.conn.Close()
		return
	}
	s.evictConn1(log)
	s.currentEpoch = n.epoch
	s.conn1 = n.conn

	if err := proto.WriteInt(n.conn, s.pump0.State.RBytes()); err != nil {
		log.Warn("writing stream-0 rbytes to new R failed", "error", err)
		s.evictConn1(log)
		return
	}
	if err := s.pump1.State.Rewind(n.pair.Stream1); err != nil {
		log.Error("stream-1 resume window exhausted, session unrecoverable", "error", err)
		s.evictConn1(log)
		return
	}

	// Only the R-facing half of each pump rotates; pump0's writer
	// (cmd's stdin) and pump1's reader (cmd's stdout) are fixed for D's
	// whole lifetime.
	s.pump0.Rebind(ioevent.NewReader(n.conn, stream.ChunkSize), s.pump0.Writer)
	s.pump1.Rebind(s.pump1.Reader, ioevent.NewWriter(n.conn))
	s.pump0.ResumeIfRoom()
	s.pump1.TryFlush()
	log.Info("sock.1 connected", "epoch", n.epoch)
}

// handleConn2 is the sock.2 equivalent: epoch check and eviction only,
// no resume data exchanged on this socket per spec.md §4.2.
func (s *session) handleConn2(n conn2Ready, log hclog.Logger) {
	if n.epoch.Stale(s.currentEpoch) {
		log.Debug("rejecting stale sock.2 connection", "epoch", n.epoch, "current", s.currentEpoch)
		n.conn.Close()
		return
	}
	s.evictConn2(log)
	if n.epoch > s.currentEpoch {
		s.currentEpoch = n.epoch
	}
	s.conn2 = n.conn
	s.pump2.Rebind(s.pump2.Reader, ioevent.NewWriter(n.conn))
	go watchFinacks(n.conn, s.finackCh)
	s.pump2.TryFlush()
	log.Info("sock.2 connected", "epoch", n.epoch)
}

func (s *session) evictConn1(log hclog.Logger) {
	if s.conn1 != nil {
		s.conn1.Close()
		s.conn1 = nil
	}
	s.pump0.Rebind(nil, s.pump0.Writer)
	s.pump1.Rebind(s.pump1.Reader, nil)
}

func (s *session) evictConn2(log hclog.Logger) {
	if s.conn2 != nil {
		s.conn2.Close()
		s.conn2 = nil
	}
	s.pump2.Rebind(s.pump2.Reader, nil)
}
