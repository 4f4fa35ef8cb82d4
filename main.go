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

package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/renangraciano/sshim/daemon"
	"github.com/renangraciano/sshim/local"
	"github.com/renangraciano/sshim/proto"
	"github.com/renangraciano/sshim/remote"
	"github.com/renangraciano/sshim/transportargs"
)

// VERSION is injected by buildflags.
var VERSION = "SELFBUILD"

func main() {
	args := os.Args[1:]
	var err error
	if hasRemoteFlag(args) {
		err = runRemote(args)
	} else {
		err = runLocal(args)
	}
	if err != nil {
		log.Fatalf("sshim: %v", err)
	}
}

func hasRemoteFlag(args []string) bool {
	for _, a := range args {
		if a == "--remote" {
			return true
		}
	}
	return false
}

// runLocal drives L. Its argument vector is the transport client's own
// invocation, not this binary's — transportargs.Scan owns splitting it,
// so only a handful of sshim-specific flags are recognized up front, in
// "--name=value" form, before the transport name itself appears.
func runLocal(args []string) error {
	cfg := local.Config{
		Timeout:    10 * time.Second,
		MaxRetries: 5,
		StatPeriod: 60,
	}

	i := 0
scan:
	for i < len(args) {
		key, val, ok := splitFlag(args[i])
		if !ok {
			break
		}
		switch key {
		case "--timeout":
			n, err := strconv.Atoi(val)
			if err != nil {
				return errors.Wrap(err, "sshim: --timeout")
			}
			cfg.Timeout = time.Duration(n) * time.Second
		case "--session":
			cfg.Session = val
		case "--logfile":
			cfg.LogFile = val
		case "--archive":
			cfg.Archive = val
		case "--statlog":
			cfg.StatLog = val
		case "--statperiod":
			n, err := strconv.Atoi(val)
			if err != nil {
				return errors.Wrap(err, "sshim: --statperiod")
			}
			cfg.StatPeriod = n
		default:
			// Not a recognized sshim flag: the transport name has begun.
			break scan
		}
		i++
	}

	res, err := transportargs.Scan(args[i:])
	if err != nil {
		return errors.Wrap(err, "sshim")
	}
	shimPath, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "sshim: locating own binary")
	}
	cfg.ShimPath = shimPath
	cfg.TransportArgv = res.TransportArgv
	cfg.Command = res.Command

	return local.Run(cfg, os.Stdin, os.Stdout, os.Stderr)
}

// splitFlag recognizes "--key=value"; ok is false for anything else
// (positional args, short flags, or a bare "--key").
func splitFlag(tok string) (key, val string, ok bool) {
	if !strings.HasPrefix(tok, "--") {
		return "", "", false
	}
	eq := strings.IndexByte(tok, '=')
	if eq < 0 {
		return "", "", false
	}
	return tok[:eq], tok[eq+1:], true
}

// runRemote drives R (either incarnation) or D — all three share a fixed,
// well-known flag set, so this branch uses the same cli.App style as the
// rest of the internal invocations rather than transportargs' bespoke scan.
func runRemote(args []string) error {
	app := cli.NewApp()
	app.Name = "sshim"
	app.Usage = "internal remote-side role (R or D); not invoked directly by users"
	app.Version = VERSION
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "remote", Usage: "marks this invocation as R or D"},
		cli.IntFlag{Name: "try", Usage: "epoch assigned by L for this R incarnation"},
		cli.StringFlag{Name: "sockdir", Usage: "D's socket directory; absent on R's first incarnation"},
		cli.BoolFlag{Name: "daemon", Usage: "marks this invocation as D, the detached daemon"},
		cli.StringFlag{Name: "session", Usage: "L's session correlation id; accepted and not used here"},
		cli.IntFlag{Name: "timeout", Value: 10, Usage: "seconds to bound handshake reads"},
		cli.StringFlag{Name: "logfile", Usage: "D's structured log file"},
		cli.StringFlag{Name: "archive", Usage: "D's session transcript archive prefix"},
		cli.StringFlag{Name: "statlog", Usage: "periodic per-stream byte-counter CSV log"},
		cli.IntFlag{Name: "statperiod", Value: 60, Usage: "seconds between statlog snapshots"},
	}
	app.Action = func(c *cli.Context) error {
		timeout := time.Duration(c.Int("timeout")) * time.Second
		command := []string(c.Args())

		if c.Bool("daemon") {
			return daemon.Run(daemon.Config{
				Sockdir:    c.String("sockdir"),
				Timeout:    timeout,
				Command:    command,
				LogFile:    c.String("logfile"),
				Archive:    c.String("archive"),
				StatLog:    c.String("statlog"),
				StatPeriod: c.Int("statperiod"),
			})
		}

		shimPath, err := os.Executable()
		if err != nil {
			return errors.Wrap(err, "sshim: locating own binary")
		}
		return remote.Run(remote.Config{
			ShimPath:         shimPath,
			Epoch:            proto.Epoch(c.Int("try")),
			Sockdir:          c.String("sockdir"),
			Timeout:          timeout,
			DaemonLogFile:    c.String("logfile"),
			DaemonArchive:    c.String("archive"),
			DaemonStatLog:    c.String("statlog"),
			DaemonStatPeriod: c.Int("statperiod"),
			Command:          command,
		})
	}
	return app.Run(append([]string{"sshim"}, args...))
}
