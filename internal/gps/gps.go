// Package gps reads raw sentence lines from the receiver's serial port.
package gps

import "errors"

// ErrTimeout is returned by ReadLine when no complete line arrived within
// the read deadline. It is expected whenever the receiver is quiet.
var ErrTimeout = errors.New("gps: read timeout")

// LineReader yields one raw sentence per call, blocking for a bounded time.
type LineReader interface {
	ReadLine() (string, error)
}

// Source is a LineReader that owns an underlying port.
type Source interface {
	LineReader
	Close() error
}

// Discarder is implemented by readers that buffer partial lines. Discard
// forgets everything read so far.
type Discarder interface {
	Discard()
}

// Unavailable returns a Source whose ReadLine always fails with err.
func Unavailable(err error) Source {
	return unavailable{err: err}
}

type unavailable struct{ err error }

func (u unavailable) ReadLine() (string, error) { return "", u.err }
func (u unavailable) Close() error              { return nil }
