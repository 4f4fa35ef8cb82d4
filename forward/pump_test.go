package forward

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/renangraciano/sshim/ioevent"
	"github.com/renangraciano/sshim/stream"
)

func TestPumpFlushSimple(t *testing.T) {
	var buf bytes.Buffer
	w := ioevent.NewWriter(&buf)
	defer w.Close()

	p := NewPump(stream.Stdout, nil, w, false)
	p.Append([]byte("hello"))

	if !p.TryFlush() {
		t.Fatal("expected flush to submit")
	}
	res := <-w.Done
	if err := p.ApplyWrite(res); err != nil {
		t.Fatalf("ApplyWrite: %v", err)
	}
	if buf.String() != "hello" {
		t.Fatalf("buf = %q", buf.String())
	}
	if p.State.Backlog() != 0 {
		t.Fatalf("backlog = %d, want 0", p.State.Backlog())
	}
}

func TestPumpStripsMarkerOnFinalWrite(t *testing.T) {
	var buf bytes.Buffer
	w := ioevent.NewWriter(&buf)
	defer w.Close()

	p := NewPump(stream.Stdout, nil, w, true)
	p.Append([]byte("abc"))
	p.State.MarkEOF()

	if !p.TryFlush() {
		t.Fatal("expected flush to submit real data")
	}
	res := <-w.Done
	if err := p.ApplyWrite(res); err != nil {
		t.Fatalf("ApplyWrite: %v", err)
	}
	if buf.String() != "abc" {
		t.Fatalf("buf = %q, want abc (no marker)", buf.String())
	}

	// Second flush should swallow the marker with no real write.
	if p.TryFlush() {
		t.Fatal("marker-only flush should not submit a real write")
	}
	if !p.State.Drained() {
		t.Fatal("expected stream drained after marker swallowed")
	}
	if buf.String() != "abc" {
		t.Fatalf("buf = %q, marker leaked", buf.String())
	}
}

func TestPumpApplyWritePropagatesError(t *testing.T) {
	p := NewPump(stream.Stdin, nil, nil, false)
	p.Append([]byte("x"))
	p.writeInFlight = true
	p.inFlightRaw = 1
	wantErr := errors.New("broken pipe")
	if err := p.ApplyWrite(ioevent.WriteResult{Err: wantErr}); err != wantErr {
		t.Fatalf("ApplyWrite err = %v, want %v", err, wantErr)
	}
	if p.writeInFlight {
		t.Fatal("writeInFlight should clear even on error")
	}
}

func TestPumpResumeRespectsBackpressure(t *testing.T) {
	pipeR, pipeW := io.Pipe()
	defer pipeR.Close()
	defer pipeW.Close()

	pr := ioevent.NewReader(pipeR, 8)
	p := NewPump(stream.Stdin, pr, nil, false)

	// Consume the reader's unconditional first permit.
	go pipeW.Write([]byte("a"))
	<-pr.Events

	// Simulate a large backlog by appending more than BufSize directly,
	// then withhold the next permit.
	p.State.Append(make([]byte, stream.BufSize+1))
	p.ResumeIfRoom()

	go pipeW.Write([]byte("b"))
	select {
	case <-pr.Events:
		t.Fatal("reader should not have been resumed under backpressure")
	case <-time.After(50 * time.Millisecond):
	}
}
