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

package local

import (
	"io"
	"log"

	"github.com/renangraciano/sshim/ioevent"
)

// connResult tells the outer retry loop what happened to one transport
// incarnation.
type connResult int

const (
	// connDone means every stream reached eof+drained: the session ended
	// cleanly and L should exit 0.
	connDone connResult = iota
	// connBroken means the transport pipe itself failed; L should
	// respawn R with an incremented epoch.
	connBroken
)

// runForwarding drives one transport incarnation's three pipes against
// app's own stdio until either the whole session drains cleanly or the
// transport breaks. App reads/writes use l's long-lived pumps so replay
// state survives into the next incarnation on a break.
func (l *session) runForwarding(p *transportProc, appIn io.Reader, appOut, appErr io.Writer) (connResult, error) {
	appInR := ioevent.NewReader(appIn, 8192)
	tOutR := ioevent.NewReader(p.stdout, 8192)
	tErrR := ioevent.NewReader(p.stderr, 8192)
	tInW := ioevent.NewWriter(p.stdin)
	appOutW := ioevent.NewWriter(appOut)
	appErrW := ioevent.NewWriter(appErr)
	defer tInW.Close()
	defer appOutW.Close()
	defer appErrW.Close()

	l.stream0.Rebind(appInR, tInW)
	l.stream1.Rebind(tOutR, appOutW)
	l.stream2.Rebind(tErrR, appErrW)

	l.stream0.TryFlush()
	l.stream1.TryFlush()
	l.stream2.TryFlush()
	l.stream0.ResumeIfRoom()
	l.stream1.ResumeIfRoom()
	l.stream2.ResumeIfRoom()

	for {
		if l.stream0.Idle() && l.stream1.Idle() && l.stream2.Idle() {
			return connDone, nil
		}

		select {
		case ev := <-appInR.Events:
			if !l.stream0.State.EOF() {
				l.stream0.Append(ev.Data)
				if ev.Err != nil {
					// App's own stdin reached EOF: L is the originating
					// producer for stream 0, so this is a true
					// end-of-stream.
					l.stream0.State.MarkEOF()
				} else {
					l.stream0.ResumeIfRoom()
				}
			}
			l.stream0.TryFlush()

		case ev := <-tOutR.Events:
			l.stream1.Append(ev.Data)
			if ev.Err != nil {
				// Transport's stdout closing mid-session is not a command
				// EOF (that arrives in-band as the marker) — it means the
				// transport pipe itself died; reconnect.
				return connBroken, nil
			}
			l.stream1.ResumeIfRoom()
			l.stream1.TryFlush()

		case ev := <-tErrR.Events:
			l.stream2.Append(ev.Data)
			if ev.Err != nil {
				return connBroken, nil
			}
			l.stream2.ResumeIfRoom()
			l.stream2.TryFlush()

		case res := <-tInW.Done:
			if err := l.stream0.ApplyWrite(res); err != nil {
				return connBroken, nil
			}
			l.stream0.TryFlush()

		case res := <-appOutW.Done:
			if err := l.stream1.ApplyWrite(res); err != nil {
				// App's stdout consumer vanished: stop reading further
				// app input and give up on delivering stream 1, per
				// spec.md §4.3 step 5 (S5, broken local pipe).
				if !isBrokenPipe(err) {
					log.Printf("local[%s]: app stdout write failed: %v", l.cfg.Session, err)
				}
				l.stream0.State.MarkEOF()
				l.stream1.Abandon()
				continue
			}
			l.stream1.TryFlush()

		case res := <-appErrW.Done:
			if err := l.stream2.ApplyWrite(res); err != nil {
				if !isBrokenPipe(err) {
					log.Printf("local[%s]: app stderr write failed: %v", l.cfg.Session, err)
				}
				l.stream0.State.MarkEOF()
				l.stream2.Abandon()
				continue
			}
			l.stream2.TryFlush()
		}
	}
}
