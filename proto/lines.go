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

// Package proto implements the control-line wire format shared by L, R and
// D: newline-terminated decimal integers and a handful of literal tokens
// (OK, X, epoch, byte-count pairs, finack). Every control line is read one
// byte at a time (see ReadLine) because the same handle carries raw stream
// data immediately afterward, and a buffered reader would overconsume it.
package proto

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// TokenOK acknowledges the sockdir handoff during L's first bootstrap.
	TokenOK = "OK"
	// TokenUnreachable is sent in place of a byte count when D could not be
	// contacted at all on first connect.
	TokenUnreachable = "X"
)

// ReadLine reads one newline-terminated line a byte at a time, returning
// the line without its trailing newline. Required because bufio.Reader
// would pull ahead into the raw data that follows the control line on the
// same handle.
func ReadLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				return sb.String(), nil
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
	}
}

// ReadLineTimeout reads a line, failing if it takes longer than d. The
// deadline is applied to r when r supports it (sockets, pipes); otherwise
// the read races against a timer and may leak a goroutine blocked on a
// handle that never becomes ready — acceptable here since a timeout on a
// non-deadline-capable handle is itself a fatal condition for the caller.
func ReadLineTimeout(r io.Reader, d time.Duration) (string, error) {
	type result struct {
		line string
		err  error
	}
	if dl, ok := r.(interface{ SetReadDeadline(time.Time) error }); ok {
		_ = dl.SetReadDeadline(time.Now().Add(d))
		defer dl.SetReadDeadline(time.Time{})
		return ReadLine(r)
	}
	ch := make(chan result, 1)
	go func() {
		line, err := ReadLine(r)
		ch <- result{line, err}
	}()
	select {
	case res := <-ch:
		return res.line, res.err
	case <-time.After(d):
		return "", errors.New("proto: timed out waiting for control line")
	}
}

// WriteLine writes s followed by a newline.
func WriteLine(w io.Writer, s string) error {
	_, err := io.WriteString(w, s+"\n")
	return errors.WithStack(err)
}

// WriteInt writes n as a decimal control line.
func WriteInt(w io.Writer, n int64) error {
	return WriteLine(w, strconv.FormatInt(n, 10))
}

// ParseInt parses a decimal control line into an int64.
func ParseInt(line string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "proto: malformed integer control line %q", line)
	}
	return n, nil
}

// ByteCountPair is the "n1,n2" line L sends at the start of each resume,
// relayed by R onto sock.1 for D's handshake, reporting how many stream-1
// and stream-2 bytes L has received.
type ByteCountPair struct {
	Stream1 int64
	Stream2 int64
}

// WriteByteCountPair writes "n1,n2\n".
func WriteByteCountPair(w io.Writer, p ByteCountPair) error {
	return WriteLine(w, fmt.Sprintf("%d,%d", p.Stream1, p.Stream2))
}

// ParseByteCountPair parses an "n1,n2" control line.
func ParseByteCountPair(line string) (ByteCountPair, error) {
	parts := strings.SplitN(strings.TrimSpace(line), ",", 2)
	if len(parts) != 2 {
		return ByteCountPair{}, errors.Errorf("proto: malformed byte-count pair %q", line)
	}
	n1, err := ParseInt(parts[0])
	if err != nil {
		return ByteCountPair{}, err
	}
	n2, err := ParseInt(parts[1])
	if err != nil {
		return ByteCountPair{}, err
	}
	return ByteCountPair{Stream1: n1, Stream2: n2}, nil
}
