package proto

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/renangraciano/sshim/stream"
)

func newSlowPipe() (*os.File, *os.File) {
	r, w, err := os.Pipe()
	if err != nil {
		panic(err)
	}
	return r, w
}

func TestReadLineStopsAtNewlineNotBuffer(t *testing.T) {
	// The byte after the newline must remain unread by ReadLine, since it
	// belongs to the raw stream data that follows on the same handle.
	r := strings.NewReader("42\nPAYLOAD")
	line, err := ReadLine(r)
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "42" {
		t.Fatalf("line = %q, want %q", line, "42")
	}
	rest, _ := io_ReadAll(r)
	if string(rest) != "PAYLOAD" {
		t.Fatalf("remaining = %q, want %q", rest, "PAYLOAD")
	}
}

func io_ReadAll(r *strings.Reader) ([]byte, error) {
	buf := make([]byte, r.Len())
	_, err := r.Read(buf)
	return buf, err
}

func TestWriteAndParseInt(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteInt(&buf, 123456); err != nil {
		t.Fatalf("WriteInt: %v", err)
	}
	line, err := ReadLine(&buf)
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	n, err := ParseInt(line)
	if err != nil {
		t.Fatalf("ParseInt: %v", err)
	}
	if n != 123456 {
		t.Fatalf("n = %d, want 123456", n)
	}
}

func TestByteCountPairRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	want := ByteCountPair{Stream1: 10, Stream2: 20}
	if err := WriteByteCountPair(&buf, want); err != nil {
		t.Fatalf("WriteByteCountPair: %v", err)
	}
	line, err := ReadLine(&buf)
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	got, err := ParseByteCountPair(line)
	if err != nil {
		t.Fatalf("ParseByteCountPair: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestReadLineTimeoutExpires(t *testing.T) {
	r, w := newSlowPipe()
	defer w.Close()
	_, err := ReadLineTimeout(r, 10*time.Millisecond)
	if err == nil {
		t.Fatalf("expected timeout error, got nil")
	}
}

func TestFinackRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFinack(&buf, stream.Stdout); err != nil {
		t.Fatalf("WriteFinack: %v", err)
	}
	idx, err := ReadFinack(&buf)
	if err != nil {
		t.Fatalf("ReadFinack: %v", err)
	}
	if idx != stream.Stdout {
		t.Fatalf("idx = %v, want Stdout", idx)
	}
}

func TestFinackRejectsStdin(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFinack(&buf, stream.Stdin); err == nil {
		t.Fatalf("expected error writing finack for stdin")
	}
}
