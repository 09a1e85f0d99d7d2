//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// ChipBank drives expander pins through the Linux GPIO character device.
// Lines are requested on first configuration and kept until Close.
type ChipBank struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
	dirs  map[int]Direction
}

// NewChipBank opens the gpiochip the expander is registered as
// (e.g. "gpiochip2").
func NewChipBank(chipName string) (*ChipBank, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}
	return &ChipBank{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line),
		dirs:  make(map[int]Direction),
	}, nil
}

// ConfigureDirection requests the line, or reconfigures it if already held.
// Outputs start low.
func (b *ChipBank) ConfigureDirection(port Port, pin int, dir Direction) error {
	off, err := Offset(port, pin)
	if err != nil {
		return err
	}

	if line, ok := b.lines[off]; ok {
		if dir == Output {
			err = line.Reconfigure(gpiocdev.AsOutput(0))
		} else {
			err = line.Reconfigure(gpiocdev.AsInput)
		}
		if err != nil {
			return fmt.Errorf("reconfigure %s%d: %w", port, pin, err)
		}
		b.dirs[off] = dir
		return nil
	}

	var line *gpiocdev.Line
	if dir == Output {
		line, err = b.chip.RequestLine(off, gpiocdev.AsOutput(0))
	} else {
		line, err = b.chip.RequestLine(off, gpiocdev.AsInput)
	}
	if err != nil {
		return fmt.Errorf("request %s%d (line %d): %w", port, pin, off, err)
	}
	b.lines[off] = line
	b.dirs[off] = dir
	return nil
}

// Write drives an output pin.
func (b *ChipBank) Write(port Port, pin int, bit int) error {
	line, err := b.line(port, pin)
	if err != nil {
		return err
	}
	if b.dirs[lineOffset(port, pin)] != Output {
		return fmt.Errorf("write %s%d: pin is not an output", port, pin)
	}
	if err := line.SetValue(bit & 1); err != nil {
		return fmt.Errorf("write %s%d: %w", port, pin, err)
	}
	return nil
}

// Read returns the current pin value.
func (b *ChipBank) Read(port Port, pin int) (int, error) {
	line, err := b.line(port, pin)
	if err != nil {
		return 0, err
	}
	v, err := line.Value()
	if err != nil {
		return 0, fmt.Errorf("read %s%d: %w", port, pin, err)
	}
	return v, nil
}

func (b *ChipBank) line(port Port, pin int) (*gpiocdev.Line, error) {
	off, err := Offset(port, pin)
	if err != nil {
		return nil, err
	}
	line, ok := b.lines[off]
	if !ok {
		return nil, fmt.Errorf("%s%d: direction not configured", port, pin)
	}
	return line, nil
}

func lineOffset(port Port, pin int) int {
	off, _ := Offset(port, pin)
	return off
}

// Close releases every requested line.
// Lines are reconfigured to input with pull-down first so the multiplexer
// is not left driven when the process exits.
func (b *ChipBank) Close() error {
	var errs []error

	for off, line := range b.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", off, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", off, err))
		}
	}
	b.lines = map[int]*gpiocdev.Line{}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
