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
	"fmt"

	"github.com/pkg/errors"

	"github.com/renangraciano/sshim/proto"
)

// errFatalUnreachable is returned when D replied with the literal "X"
// token: the daemon could not be contacted at all, and per spec.md §4.2
// the session is fatal — no further respawn is attempted.
var errFatalUnreachable = errors.New("local: daemon unreachable (X)")

// bootstrap performs R's first-incarnation dance: read the sockdir path
// off R's stdout, then acknowledge with "OK\n" on its stdin.
func (l *session) bootstrap(p *transportProc) (string, error) {
	line, err := proto.ReadLineTimeout(p.stdout, l.cfg.Timeout)
	if err != nil {
		return "", errors.Wrap(err, "local: reading sockdir from R bootstrap")
	}
	if err := proto.WriteLine(p.stdin, proto.TokenOK); err != nil {
		return "", errors.Wrap(err, "local: acking R bootstrap")
	}
	return line, nil
}

// resumeHandshake performs the leading-bytes exchange described in
// spec.md §4.2 "On L's side": L's view of bytes received on streams 1 and
// 2 travels as the first line of stream-0 data; D's reply — how many
// stream-0 bytes it has read so far, or the literal "X" if unreachable —
// arrives as the first line R relays back on stream 1. Both lines ride
// the ordinary data pipes; R never parses them, it just forwards bytes.
func (l *session) resumeHandshake(p *transportProc) error {
	line := fmt.Sprintf("%d,%d", l.stream1.State.RBytes(), l.stream2.State.RBytes())
	if err := proto.WriteLine(p.stdin, line); err != nil {
		return errors.Wrap(err, "local: writing resume byte-count pair")
	}
	reply, err := proto.ReadLineTimeout(p.stdout, l.cfg.Timeout)
	if err != nil {
		return errors.Wrap(err, "local: reading daemon resume reply")
	}
	if reply == proto.TokenUnreachable {
		return errFatalUnreachable
	}
	confirmed, err := proto.ParseInt(reply)
	if err != nil {
		return err
	}
	if err := l.stream0.State.Rewind(confirmed); err != nil {
		return errors.Wrap(err, "local: rewinding stream-0 replay buffer")
	}
	return nil
}
