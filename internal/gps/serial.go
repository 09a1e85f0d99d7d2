package gps

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jacobsa/go-serial/serial"
)

// Defaults for the receiver on the Pi's primary UART.
const (
	DefaultPort        = "/dev/ttyAMA0"
	DefaultBaud        = 4800
	DefaultReadTimeout = 500 * time.Millisecond

	maxLine = 256
)

// SerialConfig selects the port and line timing.
type SerialConfig struct {
	Port        string
	Baud        uint
	ReadTimeout time.Duration
}

// SerialSource reads '\n'-terminated lines from a serial port. A partial
// line that straddles a timeout is kept and completed by the next call,
// until Discard drops it.
type SerialSource struct {
	port    io.ReadCloser
	now     func() time.Time
	timeout time.Duration
	pending []byte
	chunk   []byte
	resync  bool
}

// OpenSerial opens the port 8N1. Reads return after an inter-character
// gap so ReadLine can enforce its deadline.
func OpenSerial(cfg SerialConfig) (*SerialSource, error) {
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	port, err := serial.Open(serial.OpenOptions{
		PortName:              cfg.Port,
		BaudRate:              cfg.Baud,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Port, err)
	}
	return newSerialSource(port, time.Now, cfg.ReadTimeout), nil
}

func newSerialSource(port io.ReadCloser, now func() time.Time, timeout time.Duration) *SerialSource {
	return &SerialSource{
		port:    port,
		now:     now,
		timeout: timeout,
		chunk:   make([]byte, 128),
	}
}

// ReadLine returns the next line without its terminator, or ErrTimeout.
func (s *SerialSource) ReadLine() (string, error) {
	deadline := s.now().Add(s.timeout)
	for {
		if i := bytes.IndexByte(s.pending, '\n'); i >= 0 {
			line := string(s.pending[:i])
			s.pending = append(s.pending[:0], s.pending[i+1:]...)
			if s.resync {
				// Whatever precedes the first terminator after a Discard
				// may be the tail of a sentence that started elsewhere.
				s.resync = false
				continue
			}
			return strings.TrimRight(line, "\r"), nil
		}
		if !s.now().Before(deadline) {
			return "", ErrTimeout
		}

		n, err := s.port.Read(s.chunk)
		if n > 0 {
			s.pending = append(s.pending, s.chunk[:n]...)
			if len(s.pending) > maxLine && bytes.IndexByte(s.pending, '\n') < 0 {
				// Line noise without terminators; drop it rather than grow.
				s.pending = s.pending[:0]
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("gps: read: %w", err)
		}
	}
}

// Discard drops the partial line and skips input up to the next line
// terminator. Call it whenever the line has been routed away and back, so
// fragments from two different windows are never joined.
func (s *SerialSource) Discard() {
	s.pending = s.pending[:0]
	s.resync = true
}

// Close releases the port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}
