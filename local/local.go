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
	"io"
	"log"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/renangraciano/sshim/forward"
	"github.com/renangraciano/sshim/proto"
	"github.com/renangraciano/sshim/sessionlog"
	"github.com/renangraciano/sshim/stream"
)

// session holds the state that must survive across R respawns: the three
// replay pumps (only stream 0's buffer is actually replayed on resume;
// streams 1/2 just carry L's receive counters forward) and the epoch
// counter L owns authoritative assignment of.
type session struct {
	cfg     Config
	epoch   int64
	sockdir string

	stream0 *forward.Pump // app -> transport, L's authoritative replay buffer
	stream1 *forward.Pump // transport -> app
	stream2 *forward.Pump // transport -> app (stderr)
}

// Run drives one sshim session as L until it ends cleanly or
// irrecoverably. appIn/appOut/appErr stand in for the invoking
// application's own stdio (os.Stdin/Stdout/Stderr in production, fakes in
// tests).
func Run(cfg Config, appIn io.Reader, appOut, appErr io.Writer) error {
	if cfg.Session == "" {
		cfg.Session = uuid.NewString()
	}

	l := &session{
		cfg:     cfg,
		stream0: forward.NewPump(stream.Stdin, nil, nil, false),
		stream1: forward.NewPump(stream.Stdout, nil, nil, true),
		stream2: forward.NewPump(stream.Stderr, nil, nil, true),
	}

	stop := make(chan struct{})
	defer close(stop)
	go sessionlog.Run(cfg.StatLog, cfg.StatPeriod, l.snapshot, stop)

	failures := 0
	for {
		if failures > cfg.MaxRetries {
			return errors.Errorf("local[%s]: giving up after %d consecutive failures", cfg.Session, failures)
		}
		l.epoch++

		proc, err := cfg.spawnTransport(l.epoch, l.sockdir)
		if err != nil {
			log.Printf("local[%s]: spawn epoch %d: %v", cfg.Session, l.epoch, err)
			failures++
			continue
		}

		if l.sockdir == "" {
			sockdir, err := l.bootstrap(proc)
			if err != nil {
				color.Yellow("local[%s]: bootstrap handshake failed: %v", cfg.Session, err)
				proc.wait()
				failures++
				continue
			}
			l.sockdir = sockdir
			proc.wait() // R's first incarnation exits once it hands off to D
			continue    // loop back and spawn a resume R with --sockdir known
		}

		if err := l.resumeHandshake(proc); err != nil {
			if errors.Is(err, errFatalUnreachable) {
				proc.wait()
				return errors.Wrapf(err, "local[%s]: session aborted", cfg.Session)
			}
			color.Yellow("local[%s]: resume handshake failed, retrying: %v", cfg.Session, err)
			proc.wait()
			failures++
			continue
		}
		failures = 0

		result, err := l.runForwarding(proc, appIn, appOut, appErr)
		proc.wait()
		if err != nil {
			return err
		}
		if result == connDone {
			return nil
		}
		color.Yellow("local[%s]: transport connection broke, respawning (epoch %d -> %d)", cfg.Session, l.epoch, l.epoch+1)
		failures++
	}
}

func (l *session) snapshot() sessionlog.Snapshot {
	return sessionlog.Snapshot{
		Epoch:    proto.Epoch(l.epoch),
		RBytes0:  l.stream0.State.RBytes(),
		RBytes1:  l.stream1.State.RBytes(),
		RBytes2:  l.stream2.State.RBytes(),
		Backlog0: l.stream0.State.Backlog(),
		Backlog1: l.stream1.State.Backlog(),
		Backlog2: l.stream2.State.Backlog(),
	}
}
