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

// Package sockdir names and waits on the two local-domain sockets that
// anchor the R<->D channel: sock.1 (bidirectional, carries streams 0 and
// 1) and sock.2 (carries stream 2 and, in reverse, finacks).
package sockdir

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const (
	tempPrefix = "sshim-"
	// Sock1Name carries stream 0 (app->cmd, R->D) and stream 1 (cmd->app, D->R).
	Sock1Name = "sock.1"
	// Sock2Name carries stream 2 (cmd->app, D->R) and finacks (R->D: R writes a
	// finack to D over this socket once R has fully delivered a stream to L).
	Sock2Name = "sock.2"
)

// Create makes a fresh private temp directory named sshim-XXXXXXXX, owned
// exclusively by D, in the system temp area.
func Create() (string, error) {
	dir, err := os.MkdirTemp("", tempPrefix+"*")
	if err != nil {
		return "", errors.Wrap(err, "sockdir: create")
	}
	return dir, nil
}

// Path1 returns the path to sock.1 within dir.
func Path1(dir string) string { return filepath.Join(dir, Sock1Name) }

// Path2 returns the path to sock.2 within dir.
func Path2(dir string) string { return filepath.Join(dir, Sock2Name) }

// Destroy removes the sockdir and everything in it. Called by D at session
// end; safe to call on an already-removed directory.
func Destroy(dir string) error {
	if dir == "" {
		return nil
	}
	return errors.Wrap(os.RemoveAll(dir), "sockdir: destroy")
}

// WaitFor polls for path to exist, bounded by timeout, used by a resuming
// R to wait for D's sock.2 to appear before dialing.
func WaitFor(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.Errorf("sockdir: timed out waiting for %s", path)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
