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

// Package local implements L, the proxy sitting between the invoking
// application and the transport client. L owns the stream-0 replay
// buffer, respawns the transport/R pair on disconnect, and is the only
// role whose process lives for the session's full duration.
package local

import "time"

// Config carries everything L needs to know to run one session.
type Config struct {
	// ShimPath is the path to this same binary, spliced in front of the
	// user command for every spawn of the transport client.
	ShimPath string
	// TransportArgv is the transport client's own argv (name, options,
	// host), as scanned from the user's command line.
	TransportArgv []string
	// Command is the remote command and its arguments.
	Command []string

	// Timeout bounds every handshake read L makes (the sockdir line and
	// D's byte-count reply).
	Timeout time.Duration
	// MaxRetries bounds consecutive spawn/handshake failures before L
	// gives up and reports a fatal session.
	MaxRetries int

	// Session is an opaque correlation id logged alongside every retry,
	// not interpreted by the protocol.
	Session string

	// LogFile and Archive configure D only (its structured hclog sink
	// and transcript archive prefix): L always logs to its own stderr
	// via color-highlighted plain log.Printf and never opens either
	// file itself. Both are carried here purely to be forwarded on
	// every spawnTransport call, so R's first incarnation passes them
	// on to D.
	LogFile string
	Archive string

	// StatLog and StatPeriod drive L's own periodic stats CSV
	// (sessionlog.Run, reporting L's own pump counters) and are also
	// forwarded to D so it writes an independent stats CSV of its own.
	StatLog    string
	StatPeriod int
}
