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

// Package remote implements R, the transient proxy spawned fresh by L on
// every (re)connect. R carries no state across incarnations beyond the
// epoch it was launched with: its first incarnation hands off to D and
// exits; every later incarnation connects to D's sockets and relays bytes
// until the connection breaks.
package remote

import (
	"time"

	"github.com/renangraciano/sshim/proto"
)

// Config carries one R incarnation's invocation parameters.
type Config struct {
	// ShimPath is this same binary's path, used to re-exec into D.
	ShimPath string
	// Epoch is this incarnation's --try value.
	Epoch proto.Epoch
	// Sockdir is the daemon's socket directory. Empty on a first
	// incarnation (R has not yet learned it).
	Sockdir string
	// Timeout bounds the bootstrap OK-wait and the resume connect wait.
	Timeout time.Duration

	DaemonLogFile    string
	DaemonArchive    string
	DaemonStatLog    string
	DaemonStatPeriod int
	// Command is the residual argument vector: the user's remote
	// command, passed through to D for spawning.
	Command []string
}
