package arbiter

import (
	"fmt"

	"github.com/sweeney/helium/internal/gpio"
)

// Multiplexer select lines on expander port B.
const (
	selectPin0 = 6
	selectPin1 = 7
)

// BankMux drives the GPS multiplexer through expander pins B6/B7:
// B6=1,B7=0 routes to the flight computer, B6=0,B7=0 to the tracker.
type BankMux struct {
	bank gpio.Bank
}

// NewBankMux configures all sixteen expander pins as outputs (driven low,
// which leaves the line with the tracker) and returns the multiplexer.
func NewBankMux(bank gpio.Bank) (*BankMux, error) {
	for _, port := range []gpio.Port{gpio.PortA, gpio.PortB} {
		for pin := 0; pin < gpio.PinsPerPort; pin++ {
			if err := bank.ConfigureDirection(port, pin, gpio.Output); err != nil {
				return nil, fmt.Errorf("configure %s%d: %w", port, pin, err)
			}
		}
	}
	return &BankMux{bank: bank}, nil
}

// Route sets the select lines for owner.
func (m *BankMux) Route(owner Owner) error {
	b6 := 0
	if owner == FlightComputer {
		b6 = 1
	}
	if err := m.bank.Write(gpio.PortB, selectPin0, b6); err != nil {
		return fmt.Errorf("route %s: %w", owner, err)
	}
	if err := m.bank.Write(gpio.PortB, selectPin1, 0); err != nil {
		return fmt.Errorf("route %s: %w", owner, err)
	}
	return nil
}
