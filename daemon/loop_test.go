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
	"io"
	"net"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/renangraciano/sshim/ioevent"
	"github.com/renangraciano/sshim/proto"
)

// TestHandleConn1RebindsOnlyTheSocketFacingHalf is the regression test for
// the fixed-vs-rotating pump-half design: pump0's writer (the command's
// real stdin) and pump1's reader (the command's real stdout) must survive
// a sock.1 reconnect untouched, while pump0's reader and pump1's writer
// rotate onto the new connection.
func TestHandleConn1RebindsOnlyTheSocketFacingHalf(t *testing.T) {
	s := newTestSession()

	cmdStdin := ioevent.NewWriter(io.Discard)
	cmdStdoutR, cmdStdoutW := io.Pipe()
	defer cmdStdoutW.Close()
	cmdStdout := ioevent.NewReader(cmdStdoutR, 4096)

	s.pump0.Rebind(nil, cmdStdin)
	s.pump1.Rebind(cmdStdout, nil)

	conn, peer := net.Pipe()
	defer peer.Close()
	n := conn1Ready{conn: conn, epoch: proto.Epoch(1)}

	done := make(chan struct{})
	go func() {
		s.handleConn1(n, hclog.NewNullLogger())
		close(done)
	}()

	if _, err := proto.ReadLine(peer); err != nil {
		t.Fatalf("reading stream-0 rbytes announcement: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handleConn1 to finish")
	}

	if s.pump0.Reader == nil {
		t.Fatal("pump0.Reader should now be bound to the new connection")
	}
	if s.pump0.Writer != cmdStdin {
		t.Fatal("pump0.Writer (cmd stdin) must not change across a sock.1 reconnect")
	}
	if s.pump1.Reader != cmdStdout {
		t.Fatal("pump1.Reader (cmd stdout) must not change across a sock.1 reconnect")
	}
	if s.pump1.Writer == nil {
		t.Fatal("pump1.Writer should now be bound to the new connection")
	}

	// Eviction must nil only the rotating half, never the fixed one —
	// getting this backwards is what causes a nil Writer.Done panic in
	// the select loop after a later reconnect attempt.
	s.evictConn1(hclog.NewNullLogger())
	if s.pump0.Reader != nil {
		t.Fatal("pump0.Reader should be nil after eviction")
	}
	if s.pump0.Writer != cmdStdin {
		t.Fatal("pump0.Writer must survive eviction")
	}
	if s.pump1.Writer != nil {
		t.Fatal("pump1.Writer should be nil after eviction")
	}
	if s.pump1.Reader != cmdStdout {
		t.Fatal("pump1.Reader must survive eviction")
	}
}

// TestHandleConn1RejectsStaleEpoch confirms a connection announcing an
// epoch older than the one already registered is closed without touching
// any pump state.
func TestHandleConn1RejectsStaleEpoch(t *testing.T) {
	s := newTestSession()
	s.currentEpoch = proto.Epoch(5)

	conn, peer := net.Pipe()
	n := conn1Ready{conn: conn, epoch: proto.Epoch(2)}

	done := make(chan struct{})
	go func() {
		s.handleConn1(n, hclog.NewNullLogger())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handleConn1 to reject the stale epoch")
	}

	if s.pump0.Reader != nil {
		t.Fatal("a stale connection must not be bound to pump0")
	}
	if s.currentEpoch != 5 {
		t.Fatalf("currentEpoch = %d, want unchanged 5", s.currentEpoch)
	}

	buf := make([]byte, 1)
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := peer.Read(buf); err == nil {
		t.Fatal("expected the rejected connection to be closed")
	}
}

// TestHandleConn2RebindsOnlyTheWriter mirrors the sock.1 regression test
// for sock.2: pump2's reader (cmd stderr) must survive the reconnect.
func TestHandleConn2RebindsOnlyTheWriter(t *testing.T) {
	s := newTestSession()

	cmdStderrR, cmdStderrW := io.Pipe()
	defer cmdStderrW.Close()
	cmdStderr := ioevent.NewReader(cmdStderrR, 4096)
	s.pump2.Rebind(cmdStderr, nil)

	conn, peer := net.Pipe()
	defer conn.Close()
	defer peer.Close()
	n := conn2Ready{conn: conn, epoch: proto.Epoch(1)}

	s.handleConn2(n, hclog.NewNullLogger())

	if s.pump2.Reader != cmdStderr {
		t.Fatal("pump2.Reader (cmd stderr) must not change across a sock.2 reconnect")
	}
	if s.pump2.Writer == nil {
		t.Fatal("pump2.Writer should now be bound to the new connection")
	}

	s.evictConn2(hclog.NewNullLogger())
	if s.pump2.Writer != nil {
		t.Fatal("pump2.Writer should be nil after eviction")
	}
	if s.pump2.Reader != cmdStderr {
		t.Fatal("pump2.Reader must survive eviction")
	}
}
