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
	"testing"
	"time"

	"github.com/renangraciano/sshim/proto"
	"github.com/renangraciano/sshim/stream"
)

func TestWatchFinacksDeliversBothStreamsThenError(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()

	ch := make(chan finackEvent, 2)
	go watchFinacks(local, ch)

	if err := proto.WriteFinack(remote, stream.Stdout); err != nil {
		t.Fatalf("WriteFinack(stdout): %v", err)
	}
	select {
	case ev := <-ch:
		if ev.err != nil || ev.idx != stream.Stdout {
			t.Fatalf("got %+v, want {idx:Stdout err:nil}", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stdout finack")
	}

	if err := proto.WriteFinack(remote, stream.Stderr); err != nil {
		t.Fatalf("WriteFinack(stderr): %v", err)
	}
	select {
	case ev := <-ch:
		if ev.err != nil || ev.idx != stream.Stderr {
			t.Fatalf("got %+v, want {idx:Stderr err:nil}", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stderr finack")
	}

	remote.Close()
	select {
	case ev := <-ch:
		if ev.err == nil {
			t.Fatal("expected a terminal error after the connection closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watchFinacks to observe the close")
	}
}
