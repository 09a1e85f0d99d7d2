package gps

import (
	"errors"
	"io"
	"testing"
	"time"
)

// chunkPort returns one scripted chunk per Read, then (0, io.EOF) the way a
// port with an inter-character timeout does when the line is idle.
type chunkPort struct {
	chunks []string
	err    error
	closed bool
}

func (p *chunkPort) Read(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	if len(p.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(b, p.chunks[0])
	if n < len(p.chunks[0]) {
		p.chunks[0] = p.chunks[0][n:]
	} else {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *chunkPort) Close() error {
	p.closed = true
	return nil
}

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestSerialSourceReadLine(t *testing.T) {
	port := &chunkPort{chunks: []string{"$GPGGA,1", "23\r\n$GPV", "TG,1\r\n"}}
	s := newSerialSource(port, stepClock(time.Millisecond), time.Second)

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "$GPGGA,123" {
		t.Errorf("line = %q", line)
	}

	line, err = s.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "$GPVTG,1" {
		t.Errorf("line = %q", line)
	}
}

func TestSerialSourceTimeoutKeepsPartial(t *testing.T) {
	port := &chunkPort{chunks: []string{"$GPZDA,20"}}
	s := newSerialSource(port, stepClock(100*time.Millisecond), 300*time.Millisecond)

	if _, err := s.ReadLine(); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	port.chunks = []string{"1530\n"}
	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "$GPZDA,201530" {
		t.Errorf("line = %q", line)
	}
}

func TestSerialSourceDiscardDropsStaleFragment(t *testing.T) {
	port := &chunkPort{chunks: []string{"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,54"}}
	s := newSerialSource(port, stepClock(100*time.Millisecond), 300*time.Millisecond)

	if _, err := s.ReadLine(); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	// The line goes to the tracker and comes back mid-sentence.
	s.Discard()
	port.chunks = []string{"12.7,M,46.9,M,,\n"}
	if line, err := s.ReadLine(); !errors.Is(err, ErrTimeout) {
		t.Fatalf("ReadLine() = %q, %v; want ErrTimeout", line, err)
	}

	port.chunks = []string{"$GPVTG,054.7,T,,M,005.5,N,010.2,K\r\n"}
	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "$GPVTG,054.7,T,,M,005.5,N,010.2,K" {
		t.Errorf("line = %q", line)
	}
}

func TestSerialSourceDiscardSkipsBufferedTail(t *testing.T) {
	port := &chunkPort{chunks: []string{"0.9,545.4,M\r\n$GPRMC,1\r\n"}}
	s := newSerialSource(port, stepClock(time.Millisecond), time.Second)
	s.Discard()

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "$GPRMC,1" {
		t.Errorf("line = %q", line)
	}
}

func TestSerialSourceReadError(t *testing.T) {
	port := &chunkPort{err: errors.New("device gone")}
	s := newSerialSource(port, stepClock(time.Millisecond), time.Second)

	_, err := s.ReadLine()
	if err == nil || errors.Is(err, ErrTimeout) {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestSerialSourceDropsOverlongNoise(t *testing.T) {
	noise := make([]byte, maxLine+1)
	for i := range noise {
		noise[i] = 'x'
	}
	port := &chunkPort{chunks: []string{string(noise), "$GPGSA,A,3\n"}}
	s := newSerialSource(port, stepClock(time.Millisecond), time.Second)

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line != "$GPGSA,A,3" {
		t.Errorf("line = %q", line)
	}
}

func TestFakeSource(t *testing.T) {
	f := NewFakeSource("a", "b")

	for _, want := range []string{"a", "b"} {
		got, err := f.ReadLine()
		if err != nil || got != want {
			t.Errorf("ReadLine() = %q, %v; want %q", got, err, want)
		}
	}
	if _, err := f.ReadLine(); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if f.Reads() != 3 {
		t.Errorf("Reads() = %d, want 3", f.Reads())
	}
	f.Discard()
	if f.Discards() != 1 {
		t.Errorf("Discards() = %d, want 1", f.Discards())
	}
	f.Close()
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}
