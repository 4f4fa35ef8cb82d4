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

package proto

import (
	"io"

	"github.com/pkg/errors"

	"github.com/renangraciano/sshim/stream"
)

// WriteFinack sends the single control byte ('1' or '2') plus newline that
// R writes to sock.2 once a stream is fully EOF and fully delivered.
func WriteFinack(w io.Writer, idx stream.Index) error {
	if idx != stream.Stdout && idx != stream.Stderr {
		return errors.Errorf("proto: finack only valid for stdout/stderr, got %s", idx)
	}
	return WriteLine(w, string(rune('0'+int(idx))))
}

// ReadFinack reads a finack line and returns which stream it acknowledges.
func ReadFinack(r io.Reader) (stream.Index, error) {
	line, err := ReadLine(r)
	if err != nil {
		return 0, errors.Wrap(err, "proto: reading finack")
	}
	if len(line) != 1 {
		return 0, errors.Errorf("proto: malformed finack %q", line)
	}
	switch line[0] {
	case '1':
		return stream.Stdout, nil
	case '2':
		return stream.Stderr, nil
	default:
		return 0, errors.Errorf("proto: unknown finack stream %q", line)
	}
}
