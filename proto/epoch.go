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
)

// Epoch is the monotonically increasing "try" counter identifying one R
// incarnation. L owns authoritative assignment; D tracks the highest epoch
// it has seen and rejects connections announcing anything lower.
type Epoch int64

// WriteEpoch announces e on a freshly-connected socket.
func WriteEpoch(w io.Writer, e Epoch) error {
	return WriteInt(w, int64(e))
}

// ReadEpoch reads the epoch a connecting R announces.
func ReadEpoch(r io.Reader) (Epoch, error) {
	line, err := ReadLine(r)
	if err != nil {
		return 0, errors.Wrap(err, "proto: reading epoch announcement")
	}
	n, err := ParseInt(line)
	if err != nil {
		return 0, err
	}
	return Epoch(n), nil
}

// Stale reports whether a connection announcing e should be rejected given
// the daemon's current epoch — strictly-less-than connections are stale
// incarnations superseded by a later respawn.
func (e Epoch) Stale(current Epoch) bool {
	return e < current
}
