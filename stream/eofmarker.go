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

package stream

import "bytes"

// eofMarkerStr is the fixed in-band sentinel appended to a stream's data
// when its producer observes end-of-stream, as a string constant so
// MarkerLen is derived from it instead of kept in sync by hand.
const eofMarkerStr = "SSHIM_EOF_MARKER\x00"

// EOFMarker is the wire form of eofMarkerStr. It travels through the
// replay buffer like any other byte so accounting stays uniform; consumers
// must strip it before writing to a user-facing endpoint.
var EOFMarker = []byte(eofMarkerStr)

// MarkerLen is len(EOFMarker).
const MarkerLen = len(eofMarkerStr)

// HasTrailingMarker reports whether buf ends with the EOF marker.
func HasTrailingMarker(buf []byte) bool {
	return len(buf) >= MarkerLen && bytes.Equal(buf[len(buf)-MarkerLen:], EOFMarker)
}

// StripTrailingMarker returns the portion of buf up to but excluding a
// trailing EOF marker, and whether one was present.
func StripTrailingMarker(buf []byte) ([]byte, bool) {
	if HasTrailingMarker(buf) {
		return buf[:len(buf)-MarkerLen], true
	}
	return buf, false
}

// DeliverableLen returns how many of the first n bytes of buf may be
// written to a user-facing endpoint without ever exposing marker bytes,
// given that the stream is known to be EOF-bearing (so buf, in full, ends
// with exactly one intact marker and nothing follows it). The cap is
// computed from the marker's absolute position in buf, not from whether
// buf[:n] happens to end with a complete marker: n may land in the middle
// of the marker (e.g. a ChunkSize-sized read cuts it in half), in which
// case testing buf[:n] alone would miss it entirely and leak the leading
// marker bytes. Capping at the marker's start instead guarantees a
// caller never delivers a marker byte, whether n reaches past, into, or
// short of it.
func DeliverableLen(buf []byte, n int, eof bool) int {
	if !eof {
		return n
	}
	if n > len(buf) {
		n = len(buf)
	}
	markerStart := len(buf) - MarkerLen
	if markerStart < 0 {
		markerStart = 0
	}
	if n > markerStart {
		return markerStart
	}
	return n
}
