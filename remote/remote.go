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

import "github.com/pkg/errors"

// errBroken is returned by the forwarding loop when a handle dies
// mid-session for a reason that isn't end-of-stream. It carries no
// information beyond "abort": the caller's only recourse is to exit and
// let L respawn a fresh incarnation.
var errBroken = errors.New("remote: connection broken, awaiting respawn")

// Run dispatches to R's first incarnation or a resume, per spec.md §4.1:
// a first incarnation has not yet learned the sockdir; every later one has.
func Run(cfg Config) error {
	if cfg.Sockdir == "" {
		return Bootstrap(cfg)
	}
	return Resume(cfg)
}
