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

// Package transportargs locates the boundary between a secure-transport
// client's own options and the remote command the user wants run, per
// spec.md §6. No generic flag-parsing library can express this: the
// transport client is an opaque external program whose option table we
// merely need to skip over, not a structured command this binary owns.
package transportargs

import "github.com/pkg/errors"

// valueFlags are single-letter options that always consume a value, either
// inline ("-p22") or as the following argv token ("-p 22").
const valueFlags = "bceilmpwDEFIJLOQRSW"

// noValueFlags are single-letter options that never take a value and may
// be clustered together ("-vvv", "-46").
const noValueFlags = "afgknqstvxyACGKMNTVXY1246"

// ConfigOption is a parsed "-o key=value" / "-okey=value" pair absorbed
// into configuration state rather than simply passed through opaquely.
type ConfigOption struct {
	Key   string
	Value string
}

// Result is the outcome of scanning the shim's argument vector.
type Result struct {
	// Transport is the transport client executable name (argv[0] as seen
	// by the shim, e.g. "ssh").
	Transport string
	// TransportArgv is everything to pass to the transport client,
	// unchanged: the transport name, its options, and the host — in
	// order, ready for exec.Command.
	TransportArgv []string
	// Options holds every "-o key=value" pair encountered.
	Options []ConfigOption
	// Host is the final positional argument before the user command.
	Host string
	// Command is the user command and its arguments, to run on the
	// remote host.
	Command []string
}

func isValueFlag(c byte) bool {
	for i := 0; i < len(valueFlags); i++ {
		if valueFlags[i] == c {
			return true
		}
	}
	return false
}

func isNoValueFlag(c byte) bool {
	for i := 0; i < len(noValueFlags); i++ {
		if noValueFlags[i] == c {
			return true
		}
	}
	return false
}

// Scan splits args (the shim's own argv[1:]) into the transport's options
// and the remote command. args[0] must be the transport client name.
func Scan(args []string) (Result, error) {
	if len(args) < 2 {
		return Result{}, errors.New("transportargs: need at least <transport> <host> <command>")
	}
	res := Result{Transport: args[0], TransportArgv: []string{args[0]}}

	i := 1
	for i < len(args) {
		tok := args[i]
		if len(tok) < 2 || tok[0] != '-' {
			// First non-option token is the host; the boundary is here.
			res.Host = tok
			res.TransportArgv = append(res.TransportArgv, tok)
			res.Command = args[i+1:]
			if len(res.Command) == 0 {
				return Result{}, errors.New("transportargs: missing remote command after host")
			}
			return res, nil
		}

		chars := tok[1:]
		consumed := []string{tok}
		j := 0
		for j < len(chars) {
			c := chars[j]
			switch {
			case c == 'o':
				if j+1 < len(chars) {
					opt := parseOption(chars[j+1:])
					res.Options = append(res.Options, opt)
				} else if i+1 < len(args) {
					i++
					res.Options = append(res.Options, parseOption(args[i]))
					consumed = append(consumed, args[i])
				}
				j = len(chars)
			case isValueFlag(c):
				if j+1 < len(chars) {
					// Remainder of this token is the value, inline.
					j = len(chars)
				} else if i+1 < len(args) {
					i++
					consumed = append(consumed, args[i])
					j = len(chars)
				} else {
					return Result{}, errors.Errorf("transportargs: flag -%c requires a value", c)
				}
			case isNoValueFlag(c):
				j++
			default:
				// Unknown flag letter: assume value-less and move on
				// rather than misparse the rest of the command line.
				j++
			}
		}
		res.TransportArgv = append(res.TransportArgv, consumed...)
		i++
	}
	return Result{}, errors.New("transportargs: no host found before end of arguments")
}

func parseOption(s string) ConfigOption {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return ConfigOption{Key: s[:i], Value: s[i+1:]}
		}
	}
	return ConfigOption{Key: s}
}
