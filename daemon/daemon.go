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

package daemon

import (
	"io"
	"net"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/renangraciano/sshim/archive"
	"github.com/renangraciano/sshim/forward"
	"github.com/renangraciano/sshim/ioevent"
	"github.com/renangraciano/sshim/proto"
	"github.com/renangraciano/sshim/rolelog"
	"github.com/renangraciano/sshim/sessionlog"
	"github.com/renangraciano/sshim/sockdir"
	"github.com/renangraciano/sshim/stream"
)

// session holds D's full lifetime state: the user command, the three
// stream pumps, the live R connections, and the bookkeeping needed to
// know when it is finally safe to tear the sockdir down.
type session struct {
	cfg Config

	cmd       *exec.Cmd
	cmdDone   chan error
	cmdReaped bool

	pump0 *forward.Pump // app -> cmd.Stdin
	pump1 *forward.Pump // cmd.Stdout -> R
	pump2 *forward.Pump // cmd.Stderr -> R

	currentEpoch proto.Epoch
	conn1        net.Conn
	conn2        net.Conn
	stdinClosed  bool

	finackSet map[stream.Index]bool
	finackCh  chan finackEvent

	conn1Ch chan conn1Ready
	conn2Ch chan conn2Ready
}

// Run is D's entry point: open the sockdir's listeners, spawn the user
// command, and drive the main loop until the session ends cleanly.
func Run(cfg Config) error {
	log, logCloser, err := rolelog.ForDaemon(cfg.LogFile)
	if err != nil {
		return errors.Wrap(err, "daemon: opening log file")
	}
	defer logCloser.Close()

	ln1, err := net.Listen("unix", sockdir.Path1(cfg.Sockdir))
	if err != nil {
		return errors.Wrap(err, "daemon: listening on sock.1")
	}
	defer ln1.Close()
	ln2, err := net.Listen("unix", sockdir.Path2(cfg.Sockdir))
	if err != nil {
		return errors.Wrap(err, "daemon: listening on sock.2")
	}
	defer ln2.Close()

	cmd := exec.Command(cfg.Command[0], cfg.Command[1:]...)
	cmdStdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.Wrap(err, "daemon: command stdin pipe")
	}
	cmdStdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "daemon: command stdout pipe")
	}
	cmdStderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.Wrap(err, "daemon: command stderr pipe")
	}
	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "daemon: starting command")
	}
	log.Info("command started", "argv", cfg.Command)

	a0, err := archive.Open(cfg.Archive, stream.Stdin)
	if err != nil {
		return errors.Wrap(err, "daemon: opening stdin archive")
	}
	a1, err := archive.Open(cfg.Archive, stream.Stdout)
	if err != nil {
		return errors.Wrap(err, "daemon: opening stdout archive")
	}
	a2, err := archive.Open(cfg.Archive, stream.Stderr)
	if err != nil {
		return errors.Wrap(err, "daemon: opening stderr archive")
	}
	defer a0.Close()
	defer a1.Close()
	defer a2.Close()

	s := &session{
		cfg:       cfg,
		cmd:       cmd,
		cmdDone:   make(chan error, 1),
		pump0:     forward.NewPump(stream.Stdin, nil, ioevent.NewWriter(io.MultiWriter(cmdStdin, a0)), true),
		pump1:     forward.NewPump(stream.Stdout, ioevent.NewReader(io.TeeReader(cmdStdout, a1), stream.ChunkSize), nil, false),
		pump2:     forward.NewPump(stream.Stderr, ioevent.NewReader(io.TeeReader(cmdStderr, a2), stream.ChunkSize), nil, false),
		finackSet: map[stream.Index]bool{stream.Stdout: true, stream.Stderr: true},
		finackCh:  make(chan finackEvent, 1),
		conn1Ch:   make(chan conn1Ready, 1),
		conn2Ch:   make(chan conn2Ready, 1),
	}
	go func() { s.cmdDone <- cmd.Wait() }()

	stop := make(chan struct{})
	defer close(stop)
	go sessionlog.Run(cfg.StatLog, cfg.StatPeriod, s.snapshot, stop)

	go acceptLoop1(ln1, cfg.Timeout, s.conn1Ch, log)
	go acceptLoop2(ln2, s.conn2Ch, log)

	defer func() {
		if s.conn1 != nil {
			s.conn1.Close()
		}
		if s.conn2 != nil {
			s.conn2.Close()
		}
		_ = sockdir.Destroy(cfg.Sockdir)
	}()

	return s.mainLoop(log)
}

func (s *session) snapshot() sessionlog.Snapshot {
	return sessionlog.Snapshot{
		Epoch:    s.currentEpoch,
		RBytes0:  s.pump0.State.RBytes(),
		RBytes1:  s.pump1.State.RBytes(),
		RBytes2:  s.pump2.State.RBytes(),
		Backlog0: s.pump0.State.Backlog(),
		Backlog1: s.pump1.State.Backlog(),
		Backlog2: s.pump2.State.Backlog(),
	}
}

func (s *session) done() bool {
	return s.pump0.Idle() && s.pump1.Idle() && s.pump2.Idle() &&
		len(s.finackSet) == 0 && s.cmdReaped
}
