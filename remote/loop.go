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

package remote

import (
	"net"
	"os"

	"github.com/renangraciano/sshim/forward"
	"github.com/renangraciano/sshim/ioevent"
	"github.com/renangraciano/sshim/proto"
	"github.com/renangraciano/sshim/stream"
)

// runLoop relays R's three streams between its own stdio (facing L, over
// the transport) and D's two sockets, until every stream has drained or a
// handle breaks. R never strips the in-band EOF marker — it is not a
// user-facing endpoint on either side, so the marker must pass through
// intact for L or D to detect it themselves.
func runLoop(conn1, conn2 net.Conn) error {
	p0 := forward.NewPump(stream.Stdin, ioevent.NewReader(os.Stdin, stream.ChunkSize), ioevent.NewWriter(conn1), false)
	p1 := forward.NewPump(stream.Stdout, ioevent.NewReader(conn1, stream.ChunkSize), ioevent.NewWriter(os.Stdout), false)
	p2 := forward.NewPump(stream.Stderr, ioevent.NewReader(conn2, stream.ChunkSize), ioevent.NewWriter(os.Stderr), false)
	defer p0.Writer.Close()
	defer p1.Writer.Close()
	defer p2.Writer.Close()

	p0.TryFlush()
	p1.TryFlush()
	p2.TryFlush()
	p0.ResumeIfRoom()
	p1.ResumeIfRoom()
	p2.ResumeIfRoom()

	sentFinack1, sentFinack2 := false, false

	for {
		if !sentFinack1 && p1.Idle() {
			_ = proto.WriteFinack(conn2, stream.Stdout)
			sentFinack1 = true
		}
		if !sentFinack2 && p2.Idle() {
			_ = proto.WriteFinack(conn2, stream.Stderr)
			sentFinack2 = true
		}
		if p0.Idle() && p1.Idle() && p2.Idle() {
			return nil
		}

		select {
		case ev := <-p0.Reader.Events:
			p0.Append(ev.Data)
			if ev.Err != nil {
				// R is never stream 0's originating producer (the app
				// is); a broken handle here is the transport connection
				// itself dying, not end-of-stream.
				return errBroken
			}
			p0.ResumeIfRoom()
			p0.TryFlush()

		case ev := <-p1.Reader.Events:
			p1.Append(ev.Data)
			if ev.Err != nil {
				return errBroken
			}
			p1.ResumeIfRoom()
			p1.TryFlush()

		case ev := <-p2.Reader.Events:
			p2.Append(ev.Data)
			if ev.Err != nil {
				return errBroken
			}
			p2.ResumeIfRoom()
			p2.TryFlush()

		case res := <-p0.Writer.Done:
			if err := p0.ApplyWrite(res); err != nil {
				return errBroken
			}
			p0.TryFlush()

		case res := <-p1.Writer.Done:
			if err := p1.ApplyWrite(res); err != nil {
				return errBroken
			}
			p1.TryFlush()

		case res := <-p2.Writer.Done:
			if err := p2.ApplyWrite(res); err != nil {
				return errBroken
			}
			p2.TryFlush()
		}
	}
}
