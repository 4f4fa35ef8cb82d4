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
	"os"
	"os/exec"
	"syscall"

	"github.com/pkg/errors"

	"github.com/renangraciano/sshim/proto"
	"github.com/renangraciano/sshim/sockdir"
)

// Bootstrap runs R's first incarnation: create the sockdir, hand its path
// to L over stdout, wait for L's "OK", then re-exec this same binary with
// --daemon appended so it detaches and becomes D. The source's literal
// fork(2) has no safe equivalent in a multi-threaded Go runtime (the
// runtime always runs background threads, e.g. the GC and netpoller);
// re-exec into a new process with SysProcAttr{Setsid: true} achieves the
// same "parent exits, child detaches into its own session" shape, grounded
// on the parent-forks-child-via-exec pattern in
// Ankit-Kulkarni-go-experiments/graceful_restarts/SocketHandoff.
func Bootstrap(cfg Config) error {
	dir, err := sockdir.Create()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(os.Stdout, dir); err != nil {
		return errors.Wrap(err, "remote: writing sockdir to stdout")
	}

	ack, err := proto.ReadLineTimeout(os.Stdin, cfg.Timeout)
	if err != nil {
		_ = sockdir.Destroy(dir)
		return errors.Wrap(err, "remote: waiting for bootstrap OK")
	}
	if ack != proto.TokenOK {
		_ = sockdir.Destroy(dir)
		return errors.Errorf("remote: expected OK, got %q", ack)
	}

	return daemonize(cfg, dir)
}

// daemonize re-execs this binary with --daemon and --sockdir appended,
// detached from the controlling terminal in a new session, then exits the
// bootstrap process (R's "parent") so only D remains.
func daemonize(cfg Config, dir string) error {
	args := []string{
		"--remote",
		fmt.Sprintf("--try=%d", cfg.Epoch),
		fmt.Sprintf("--sockdir=%s", dir),
		"--daemon",
	}
	if cfg.DaemonLogFile != "" {
		args = append(args, fmt.Sprintf("--logfile=%s", cfg.DaemonLogFile))
	}
	if cfg.DaemonArchive != "" {
		args = append(args, fmt.Sprintf("--archive=%s", cfg.DaemonArchive))
	}
	if cfg.DaemonStatLog != "" {
		args = append(args, fmt.Sprintf("--statlog=%s", cfg.DaemonStatLog))
		args = append(args, fmt.Sprintf("--statperiod=%d", cfg.DaemonStatPeriod))
	}
	args = append(args, cfg.Command...)

	child := exec.Command(cfg.ShimPath, args...)
	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return errors.Wrap(err, "remote: opening /dev/null for daemon detach")
	}
	defer devnull.Close()
	child.Stdin = devnull
	child.Stdout = devnull
	child.Stderr = devnull
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := child.Start(); err != nil {
		_ = sockdir.Destroy(dir)
		return errors.Wrap(err, "remote: starting daemon")
	}
	return nil
}
