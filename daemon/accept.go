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
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/renangraciano/sshim/proto"
)

// conn1Ready is handed from an accept goroutine to the main loop once a
// sock.1 connection has completed its epoch and resume-handshake reads.
// Doing the blocking reads off the accept goroutine, not the main loop,
// keeps one slow or hostile connection from stalling every other handle.
type conn1Ready struct {
	conn  net.Conn
	epoch proto.Epoch
	pair  proto.ByteCountPair
}

// conn2Ready is the sock.2 equivalent; no resume data rides this socket,
// only the epoch announcement.
type conn2Ready struct {
	conn  net.Conn
	epoch proto.Epoch
}

// acceptLoop1 accepts sock.1 connections forever, performing each one's
// epoch + byte-count-pair handshake before handing it to ready.
func acceptLoop1(ln net.Listener, timeout time.Duration, ready chan<- conn1Ready, log hclog.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Debug("sock.1 listener closed", "error", err)
			return
		}
		go func() {
			epoch, err := proto.ReadEpoch(conn)
			if err != nil {
				log.Warn("sock.1 epoch read failed", "error", err)
				conn.Close()
				return
			}
			line, err := proto.ReadLineTimeout(conn, timeout)
			if err != nil {
				log.Warn("sock.1 resume byte-count read failed", "error", err)
				conn.Close()
				return
			}
			pair, err := proto.ParseByteCountPair(line)
			if err != nil {
				log.Warn("sock.1 malformed byte-count pair", "error", err)
				conn.Close()
				return
			}
			ready <- conn1Ready{conn: conn, epoch: epoch, pair: pair}
		}()
	}
}

// acceptLoop2 is the sock.2 equivalent: epoch only, no resume data.
func acceptLoop2(ln net.Listener, ready chan<- conn2Ready, log hclog.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Debug("sock.2 listener closed", "error", err)
			return
		}
		go func() {
			epoch, err := proto.ReadEpoch(conn)
			if err != nil {
				log.Warn("sock.2 epoch read failed", "error", err)
				conn.Close()
				return
			}
			ready <- conn2Ready{conn: conn, epoch: epoch}
		}()
	}
}
