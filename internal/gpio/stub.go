//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// ChipBank is not available on non-Linux platforms.
type ChipBank struct{}

// NewChipBank returns an error on non-Linux platforms.
func NewChipBank(string) (*ChipBank, error) {
	return nil, errUnsupported
}

// ConfigureDirection is not implemented on non-Linux platforms.
func (b *ChipBank) ConfigureDirection(Port, int, Direction) error {
	return errUnsupported
}

// Write is not implemented on non-Linux platforms.
func (b *ChipBank) Write(Port, int, int) error {
	return errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (b *ChipBank) Read(Port, int) (int, error) {
	return 0, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (b *ChipBank) Close() error {
	return nil
}
