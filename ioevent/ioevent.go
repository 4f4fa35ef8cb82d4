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

// Package ioevent turns a blocking io.Reader/io.Writer into a channel of
// events a select-driven loop can multiplex. The three roles each manage a
// handful of handles (pipes to a child process, unix sockets) that offer no
// portable readiness primitive in Go; a goroutine blocked in a syscall per
// handle, reporting back over a channel, is the idiomatic replacement for
// the source's single-threaded select/poll loop (see spec notes on the
// "busy-wait" open question). Adapted in spirit from the teacher's
// generic.Copy, but exposed as discrete, resumable events rather than a
// fire-and-forget io.Copy, since the forwarding loop needs to inspect and
// throttle every chunk individually.
package ioevent

import "io"

// ReadEvent is one outcome of a Reader's pump loop: either n>0 bytes of
// Data, or a terminal Err (io.EOF or an I/O failure).
type ReadEvent struct {
	Data []byte
	Err  error
}

// Reader pumps chunks from an io.Reader into Events, one Read call at a
// time, advancing only when the consumer grants permission via Resume.
// This is how backpressure is applied without busy-waiting: the pump
// goroutine simply blocks on its permit channel instead of calling Read.
type Reader struct {
	Events chan ReadEvent
	permit chan struct{}
}

// NewReader starts a pump goroutine reading from r in chunks of size
// chunk, armed with one initial permit so the first Read happens
// immediately.
func NewReader(r io.Reader, chunk int) *Reader {
	rd := &Reader{
		Events: make(chan ReadEvent, 1),
		permit: make(chan struct{}, 1),
	}
	rd.permit <- struct{}{}
	go rd.loop(r, chunk)
	return rd
}

func (rd *Reader) loop(r io.Reader, chunk int) {
	buf := make([]byte, chunk)
	for {
		<-rd.permit
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			rd.Events <- ReadEvent{Data: data}
		}
		if err != nil {
			rd.Events <- ReadEvent{Err: err}
			return
		}
	}
}

// Resume grants one more read. Non-blocking: calling it while a permit is
// already outstanding is a no-op, so callers can call it unconditionally
// after every event without double-arming the pump.
func (rd *Reader) Resume() {
	select {
	case rd.permit <- struct{}{}:
	default:
	}
}

// WriteResult is the outcome of one Writer.Submit: the byte count actually
// written (Go's io.Writer never reports a short write without an error,
// but callers check N defensively) and any error.
type WriteResult struct {
	N   int
	Err error
}

// Writer pumps at most one in-flight chunk at a time to an io.Writer,
// reporting the result on Done so the caller can advance its replay
// cursor and submit the next chunk.
type Writer struct {
	submit chan []byte
	Done   chan WriteResult
}

// NewWriter starts a drain goroutine writing whatever is submitted to w.
func NewWriter(w io.Writer) *Writer {
	wr := &Writer{
		submit: make(chan []byte, 1),
		Done:   make(chan WriteResult, 1),
	}
	go wr.loop(w)
	return wr
}

func (wr *Writer) loop(w io.Writer) {
	for chunk := range wr.submit {
		n, err := w.Write(chunk)
		wr.Done <- WriteResult{N: n, Err: err}
	}
}

// Submit hands chunk to the writer goroutine. It returns false without
// blocking if a write is already in flight; the caller should wait for
// Done before submitting again.
func (wr *Writer) Submit(chunk []byte) bool {
	select {
	case wr.submit <- chunk:
		return true
	default:
		return false
	}
}

// Close stops the writer goroutine. Safe to call once all submits have
// drained; it is the caller's responsibility not to Submit afterward.
func (wr *Writer) Close() { close(wr.submit) }
