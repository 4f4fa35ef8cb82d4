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

// Package daemon implements D, the persistent process that owns the user
// command and survives transport breaks. D listens on the two sockdir
// sockets, admits at most one R incarnation per stream group at a time
// (by epoch), and keeps relaying the command's stdio until every stream
// has drained, every finack is in, and the command has been reaped.
package daemon

import "time"

// Config carries everything D needs once it has detached and taken over
// the sockdir.
type Config struct {
	// Sockdir is the directory already created by the bootstrap R
	// incarnation, containing sock.1 and sock.2.
	Sockdir string
	// Timeout bounds each resume handshake's byte-count-pair read.
	Timeout time.Duration
	// Command is the user's remote command and its arguments.
	Command []string

	LogFile    string
	Archive    string
	StatLog    string
	StatPeriod int
}
