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

package remote

import (
	"fmt"
	"net"
	"os"

	"github.com/pkg/errors"

	"github.com/renangraciano/sshim/proto"
	"github.com/renangraciano/sshim/sockdir"
)

// Resume runs every incarnation of R after the first: connect to D's
// sockets, announce this epoch on each, then relay bytes until something
// breaks. R carries no state of its own across incarnations, so a broken
// connection here is simply an abort — L decides whether and when to
// respawn with the next epoch.
func Resume(cfg Config) error {
	path2 := sockdir.Path2(cfg.Sockdir)
	if err := sockdir.WaitFor(path2, cfg.Timeout); err != nil {
		return unreachable(err)
	}

	// Connect order is sock.2 then sock.1, per spec.md §4.1: D registers
	// each socket independently keyed by epoch, so the order only matters
	// in that sock.2 existing is the signal D's listeners are both up.
	conn2, err := net.Dial("unix", path2)
	if err != nil {
		return unreachable(err)
	}
	if err := proto.WriteEpoch(conn2, cfg.Epoch); err != nil {
		conn2.Close()
		return unreachable(err)
	}

	conn1, err := net.Dial("unix", sockdir.Path1(cfg.Sockdir))
	if err != nil {
		conn2.Close()
		return unreachable(err)
	}
	if err := proto.WriteEpoch(conn1, cfg.Epoch); err != nil {
		conn1.Close()
		conn2.Close()
		return unreachable(err)
	}

	defer conn1.Close()
	defer conn2.Close()
	return runLoop(conn1, conn2)
}

// unreachable synthesizes the literal "X\n" fatal-unreachable token on R's
// own stdout in place of a relayed reply from D, since there is no D
// connection left to carry one. L's resumeHandshake recognizes this token
// and ends the session rather than retrying forever.
func unreachable(cause error) error {
	if _, err := fmt.Fprintln(os.Stdout, proto.TokenUnreachable); err != nil {
		return errors.Wrap(err, "remote: writing X after unreachable daemon")
	}
	return errors.Wrap(cause, "remote: daemon unreachable")
}
