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
	"bytes"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/renangraciano/sshim/proto"
	"github.com/renangraciano/sshim/stream"
)

// redirectStdio swaps os.Stdin/Stdout/Stderr for pipes the test drives
// directly, returning the write end of stdin and the read ends of
// stdout/stderr, plus a restore func.
func redirectStdio(t *testing.T) (stdinW, stdoutR, stderrR *os.File, restore func()) {
	t.Helper()
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe (stdin): %v", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe (stdout): %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe (stderr): %v", err)
	}

	origIn, origOut, origErr := os.Stdin, os.Stdout, os.Stderr
	os.Stdin, os.Stdout, os.Stderr = stdinR, stdoutW, stderrW

	return stdinW, stdoutR, stderrR, func() {
		os.Stdin, os.Stdout, os.Stderr = origIn, origOut, origErr
		stdinR.Close()
		stdinW.Close()
		stdoutW.Close()
		stderrW.Close()
	}
}

// readExactly blocks until n bytes are read from r or t fails.
func readExactly(t *testing.T, r io.Reader, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("readExactly: %v", err)
	}
	return buf
}

// TestRunLoopRelaysBothDirectionsAndFinishesCleanly drives runLoop against
// fake conn1/conn2 peers standing in for D, and fake stdio standing in for
// the transport connection back to L. Every stream's in-band EOF marker
// arrives, so the loop should observe all three pumps idle and return nil
// without ever hitting errBroken.
func TestRunLoopRelaysBothDirectionsAndFinishesCleanly(t *testing.T) {
	stdinW, stdoutR, stderrR, restore := redirectStdio(t)
	defer restore()

	conn1, daemon1 := net.Pipe()
	conn2, daemon2 := net.Pipe()
	defer daemon1.Close()
	defer daemon2.Close()

	stream0Payload := append([]byte("app input"), stream.EOFMarker...)
	stream1Payload := append([]byte("command stdout"), stream.EOFMarker...)
	stream2Payload := append([]byte("command stderr"), stream.EOFMarker...)

	done := make(chan error, 1)
	go func() { done <- runLoop(conn1, conn2) }()

	// Fake D's sock.1 side: drain R's relayed stream 0, then produce
	// stream 1 for R to relay on to (the faked) os.Stdout.
	go func() {
		_, _ = io.ReadFull(daemon1, make([]byte, len(stream0Payload)))
		_, _ = daemon1.Write(stream1Payload)
	}()

	// Fake D's sock.2 side: produce stream 2, then collect both finacks.
	finacksCh := make(chan error, 1)
	go func() {
		_, err := daemon2.Write(stream2Payload)
		if err != nil {
			finacksCh <- err
			return
		}
		seen := map[stream.Index]bool{}
		for len(seen) < 2 {
			idx, err := proto.ReadFinack(daemon2)
			if err != nil {
				finacksCh <- err
				return
			}
			seen[idx] = true
		}
		finacksCh <- nil
	}()

	if _, err := stdinW.Write(stream0Payload); err != nil {
		t.Fatalf("writing fake app stdin: %v", err)
	}

	gotStdout := readExactly(t, stdoutR, len(stream1Payload))
	if !bytes.Equal(gotStdout, stream1Payload) {
		t.Fatalf("stdout = %q, want %q", gotStdout, stream1Payload)
	}
	gotStderr := readExactly(t, stderrR, len(stream2Payload))
	if !bytes.Equal(gotStderr, stream2Payload) {
		t.Fatalf("stderr = %q, want %q", gotStderr, stream2Payload)
	}

	select {
	case err := <-finacksCh:
		if err != nil {
			t.Fatalf("reading finacks: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for finacks")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runLoop returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for runLoop to return")
	}
}

// TestRunLoopAbortsOnBrokenSocket confirms R treats any terminal error on
// its D-facing sockets as grounds to abort the whole incarnation, since R
// never originates any of the three streams itself.
func TestRunLoopAbortsOnBrokenSocket(t *testing.T) {
	_, _, _, restore := redirectStdio(t)
	defer restore()

	conn1, daemon1 := net.Pipe()
	conn2, daemon2 := net.Pipe()
	defer conn2.Close()
	defer daemon2.Close()

	done := make(chan error, 1)
	go func() { done <- runLoop(conn1, conn2) }()

	daemon1.Close() // sock.1 dies out from under R

	select {
	case err := <-done:
		if err != errBroken {
			t.Fatalf("runLoop returned %v, want errBroken", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for runLoop to abort")
	}
}
