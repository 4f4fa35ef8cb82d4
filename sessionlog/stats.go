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

// Package sessionlog periodically snapshots a role's per-stream byte
// counters to a CSV file, adapted directly from the teacher's
// std.SnmpLogger (same encoding/csv usage, same filename-pattern rotation,
// same header-on-empty-file check) but reporting sshim's own counters
// instead of kcp.DefaultSnmp.
package sessionlog

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/renangraciano/sshim/proto"
)

// Snapshot is one row of the periodic stats log.
type Snapshot struct {
	Epoch       proto.Epoch
	RBytes0     int64
	RBytes1     int64
	RBytes2     int64
	Backlog0    int
	Backlog1    int
	Backlog2    int
}

func (s Snapshot) header() []string {
	return []string{"unix", "epoch", "rbytes0", "rbytes1", "rbytes2", "backlog0", "backlog1", "backlog2"}
}

func (s Snapshot) row() []string {
	return []string{
		fmt.Sprint(time.Now().Unix()),
		fmt.Sprint(int64(s.Epoch)),
		fmt.Sprint(s.RBytes0),
		fmt.Sprint(s.RBytes1),
		fmt.Sprint(s.RBytes2),
		fmt.Sprint(s.Backlog0),
		fmt.Sprint(s.Backlog1),
		fmt.Sprint(s.Backlog2),
	}
}

// Run appends a Snapshot (from snap) every interval seconds until stop is
// closed. path == "" or interval == 0 disables logging entirely, matching
// the teacher's SnmpLogger early-return convention.
func Run(path string, interval int, snap func() Snapshot, stop <-chan struct{}) {
	if path == "" || interval == 0 {
		return
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			logdir, logfile := filepath.Split(path)
			f, err := os.OpenFile(logdir+time.Now().Format(logfile), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
			if err != nil {
				log.Println("sessionlog:", err)
				continue
			}
			w := csv.NewWriter(f)
			s := snap()
			if stat, err := f.Stat(); err == nil && stat.Size() == 0 {
				if err := w.Write(s.header()); err != nil {
					log.Println("sessionlog:", err)
				}
			}
			if err := w.Write(s.row()); err != nil {
				log.Println("sessionlog:", err)
			}
			w.Flush()
			f.Close()
		}
	}
}
