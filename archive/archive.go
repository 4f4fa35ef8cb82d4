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

// Package archive optionally tees a session's marker-stripped transcript to
// disk, snappy-compressed. Adapted from the teacher's std.CompStream (a
// net.Conn wrapper compressing with snappy over the wire) into a sink for
// an io.Writer rather than a wire codec, since sshim's sockets carry raw
// bytes by design (see spec.md §9 on the EOF marker's in-band tradeoff).
package archive

import (
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/renangraciano/sshim/stream"
)

// Writer tees marker-stripped bytes for one stream into a snappy-compressed
// file. A nil *Writer is a valid no-op sink (archiving disabled).
type Writer struct {
	f *os.File
	w *snappy.Writer
}

// Open creates prefix.<streamname>.snappy and returns a Writer for it. If
// prefix is empty, archiving is disabled and Open returns a nil *Writer
// with a nil error — callers write through it unconditionally.
func Open(prefix string, idx stream.Index) (*Writer, error) {
	if prefix == "" {
		return nil, nil
	}
	path := prefix + "." + idx.String() + ".snappy"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "archive: mkdir for %s", path)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "archive: open %s", path)
	}
	return &Writer{f: f, w: snappy.NewBufferedWriter(f)}, nil
}

// Write appends p to the archive. A nil receiver discards silently.
func (w *Writer) Write(p []byte) (int, error) {
	if w == nil {
		return len(p), nil
	}
	if _, err := w.w.Write(p); err != nil {
		return 0, errors.WithStack(err)
	}
	return len(p), nil
}

var _ io.Writer = (*Writer)(nil)

// Close flushes and closes the archive file. A nil receiver is a no-op.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	if err := w.w.Close(); err != nil {
		_ = w.f.Close()
		return errors.WithStack(err)
	}
	return errors.WithStack(w.f.Close())
}
