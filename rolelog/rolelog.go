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

// Package rolelog gives D a structured logger once it has detached from
// its controlling terminal and can no longer rely on a color-capable
// stderr the way L does. Grounded on nabbar-golib/logger/hashicorp, which
// wraps hashicorp/go-hclog behind the same kind of small adapter.
package rolelog

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// ForDaemon returns a JSON hclog.Logger writing to path, or a discarding
// logger if path is empty — mirroring the teacher's convention that an
// unset --log flag means "no log file, keep quiet".
func ForDaemon(path string) (hclog.Logger, io.Closer, error) {
	if path == "" {
		return hclog.NewNullLogger(), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "sshimd",
		Output:     f,
		JSONFormat: true,
		Level:      hclog.Info,
	})
	return logger, f, nil
}
