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

package local

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/pkg/errors"
)

// transportProc is one spawned incarnation of the transport client, with
// its three pipes open for the forwarding loop.
type transportProc struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// spawnTransport builds the argument vector per spec.md §4.4 —
// [transport-name, ...transport-options..., host, shim-binary, --remote,
// --try=<epoch>, (--sockdir=<path> if known)..., user-command...] — and
// starts it with three pipes. The ambient/domain flags (--session,
// --logfile, --archive, --statlog/--statperiod) are threaded through on
// every incarnation so R's re-exec'd D inherits them, per SPEC_FULL.md §6.
func (cfg Config) spawnTransport(epoch int64, sockdir string) (*transportProc, error) {
	argv := append([]string{}, cfg.TransportArgv...)
	argv = append(argv, cfg.ShimPath, "--remote", fmt.Sprintf("--try=%d", epoch))
	if sockdir != "" {
		argv = append(argv, fmt.Sprintf("--sockdir=%s", sockdir))
	}
	if cfg.Session != "" {
		argv = append(argv, fmt.Sprintf("--session=%s", cfg.Session))
	}
	if cfg.LogFile != "" {
		argv = append(argv, fmt.Sprintf("--logfile=%s", cfg.LogFile))
	}
	if cfg.Archive != "" {
		argv = append(argv, fmt.Sprintf("--archive=%s", cfg.Archive))
	}
	if cfg.StatLog != "" {
		argv = append(argv, fmt.Sprintf("--statlog=%s", cfg.StatLog))
		argv = append(argv, fmt.Sprintf("--statperiod=%d", cfg.StatPeriod))
	}
	argv = append(argv, cfg.Command...)

	cmd := exec.Command(argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "local: transport stdin pipe")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "local: transport stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, "local: transport stderr pipe")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "local: spawn transport")
	}
	return &transportProc{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr}, nil
}

// wait reaps the transport process, discarding a non-zero exit: L does not
// propagate the transport's (or the remote command's) exit status, per
// spec.md §6.
func (p *transportProc) wait() { _ = p.cmd.Wait() }
