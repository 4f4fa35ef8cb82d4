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
	"net"

	"github.com/renangraciano/sshim/proto"
	"github.com/renangraciano/sshim/stream"
)

// finackEvent is one line read off sock.2's reverse direction: R
// confirming it has fully delivered stream idx to L, or a terminal error
// when the connection dies.
type finackEvent struct {
	idx stream.Index
	err error
}

// watchFinacks reads finack lines off conn until one fails, reporting
// each on ch. sock.2 carries no other inbound traffic (D only ever
// writes stream-2 data on it), so a plain line-at-a-time loop is enough —
// no chunked ioevent.Reader needed here.
func watchFinacks(conn net.Conn, ch chan<- finackEvent) {
	for {
		idx, err := proto.ReadFinack(conn)
		ch <- finackEvent{idx: idx, err: err}
		if err != nil {
			return
		}
	}
}
