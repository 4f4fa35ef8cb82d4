package stream

import "testing"

func TestAppendAndAdvance(t *testing.T) {
	s := New(Stdout)
	s.Append([]byte("hello"))
	if s.RBytes() != 5 {
		t.Fatalf("rbytes = %d, want 5", s.RBytes())
	}
	if s.Backlog() != 5 {
		t.Fatalf("backlog = %d, want 5", s.Backlog())
	}
	s.Advance(5)
	if s.Backlog() != 0 {
		t.Fatalf("backlog = %d, want 0 after advance", s.Backlog())
	}
}

func TestMarkEOFIdempotent(t *testing.T) {
	s := New(Stderr)
	s.MarkEOF()
	n1 := s.RBytes()
	s.MarkEOF()
	if s.RBytes() != n1 {
		t.Fatalf("second MarkEOF changed rbytes: %d -> %d", n1, s.RBytes())
	}
	if !s.EOF() {
		t.Fatalf("EOF() = false, want true")
	}
}

func TestDrained(t *testing.T) {
	s := New(Stdin)
	s.Append([]byte("abc"))
	s.MarkEOF()
	if s.Drained() {
		t.Fatalf("Drained() = true before bytes advanced")
	}
	s.Advance(len(s.Pending()))
	if !s.Drained() {
		t.Fatalf("Drained() = false after all bytes advanced")
	}
}

func TestRewindWithinWindow(t *testing.T) {
	s := New(Stdout)
	s.Append([]byte("0123456789"))
	s.Advance(10)
	if err := s.Rewind(4); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	if got := string(s.Pending()); got != "456789" {
		t.Fatalf("Pending() = %q, want %q", got, "456789")
	}
}

func TestRewindBeyondWindowFails(t *testing.T) {
	s := New(Stdout)
	s.Append([]byte("abc"))
	s.Advance(3)
	if err := s.Rewind(-100); err != ErrWindowExhausted {
		t.Fatalf("Rewind = %v, want ErrWindowExhausted", err)
	}
}

func TestTruncationDiscardsOldestBufSize(t *testing.T) {
	s := New(Stdout)
	chunk := make([]byte, BufSize)
	for i := range chunk {
		chunk[i] = byte(i)
	}
	// Fill to just under MaxBuf, fully acknowledged so ibuf tracks len(buf).
	s.Append(chunk)
	s.Advance(BufSize)
	s.Append(chunk)
	s.Advance(BufSize)
	if len(s.buf) != 2*BufSize {
		t.Fatalf("buf len = %d, want %d", len(s.buf), 2*BufSize)
	}
	// One more chunk crosses MaxBuf and triggers truncation.
	s.Append(chunk)
	if len(s.buf) != 2*BufSize {
		t.Fatalf("buf len after truncation = %d, want %d", len(s.buf), 2*BufSize)
	}
	if s.ibuf != BufSize {
		t.Fatalf("ibuf after truncation = %d, want %d", s.ibuf, BufSize)
	}
}

func TestAppendDetectsInbandMarker(t *testing.T) {
	s := New(Stdout)
	s.Append([]byte("payload"))
	if s.EOF() {
		t.Fatalf("EOF() = true before marker arrived")
	}
	s.Append(EOFMarker)
	if !s.EOF() {
		t.Fatalf("EOF() = false after plain Append of a trailing marker, want true")
	}
	// rbytes/buf reflect exactly what was appended; Append must not have
	// re-invoked MarkEOF's own marker write on top of it.
	want := int64(len("payload") + len(EOFMarker))
	if s.RBytes() != want {
		t.Fatalf("rbytes = %d, want %d (marker must not be appended twice)", s.RBytes(), want)
	}
}

func TestAppendMarkerSplitAcrossCalls(t *testing.T) {
	s := New(Stderr)
	half := len(EOFMarker) / 2
	s.Append(EOFMarker[:half])
	if s.EOF() {
		t.Fatalf("EOF() = true on partial marker")
	}
	s.Append(EOFMarker[half:])
	if !s.EOF() {
		t.Fatalf("EOF() = false once the marker's remaining bytes complete the tail")
	}
}

func TestEOFMarkerRoundtrip(t *testing.T) {
	data := append([]byte("payload"), EOFMarker...)
	if !HasTrailingMarker(data) {
		t.Fatalf("HasTrailingMarker = false, want true")
	}
	stripped, ok := StripTrailingMarker(data)
	if !ok || string(stripped) != "payload" {
		t.Fatalf("StripTrailingMarker = %q, %v", stripped, ok)
	}
}

func TestDeliverableLenCapsMarker(t *testing.T) {
	data := append([]byte("payload"), EOFMarker...)
	n := DeliverableLen(data, len(data), true)
	if n != len("payload") {
		t.Fatalf("DeliverableLen = %d, want %d", n, len("payload"))
	}
}

func TestDeliverableLenNonEOFPassesThrough(t *testing.T) {
	data := []byte("payload")
	if n := DeliverableLen(data, len(data), false); n != len(data) {
		t.Fatalf("DeliverableLen = %d, want %d", n, len(data))
	}
}
