package arbiter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/helium/internal/gpio"
	"github.com/sweeney/helium/internal/gps"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type countingMux struct {
	routes []Owner
	err    error
}

func (m *countingMux) Route(o Owner) error {
	m.routes = append(m.routes, o)
	return m.err
}

func TestArbitrate_ListenWindowAndInterval(t *testing.T) {
	mux := &countingMux{}
	src := gps.NewFakeSource()
	a := New(mux, src, Config{Listen: 2 * time.Second, Interval: 10 * time.Second})
	require.NoError(t, a.Init(t0))

	step := 100 * time.Millisecond
	var ownedFor time.Duration
	var firstRelease time.Time
	for el := time.Duration(0); el < 10*time.Second; el += step {
		now := t0.Add(el)
		r, ok := a.Arbitrate(now)
		if ok {
			assert.Same(t, src, r)
			ownedFor += step
		} else if firstRelease.IsZero() && ownedFor > 0 {
			firstRelease = now
		}
	}

	assert.Equal(t, 2*time.Second, ownedFor)
	assert.Equal(t, t0.Add(2*time.Second), firstRelease)
	// Init, grant, release: one Route per transition.
	assert.Equal(t, []Owner{GroundTracker, FlightComputer, GroundTracker}, mux.routes)

	// No re-request until the interval has elapsed from the grant.
	_, ok := a.Arbitrate(t0.Add(9900 * time.Millisecond))
	assert.False(t, ok)
	_, ok = a.Arbitrate(t0.Add(10 * time.Second))
	assert.True(t, ok)
	assert.Len(t, mux.routes, 4)
	assert.Equal(t, 2, a.State().Grants)
}

func TestArbitrate_ImplicitInit(t *testing.T) {
	mux := &countingMux{}
	a := New(mux, gps.NewFakeSource(), Config{})

	_, ok := a.Arbitrate(t0)
	assert.True(t, ok)
	assert.Equal(t, []Owner{GroundTracker, FlightComputer}, mux.routes)
	assert.Equal(t, FlightComputer, a.Owner())
	assert.Equal(t, t0.Add(DefaultListen), a.State().Deadline)
}

func TestArbitrate_FailedGrantWaitsForNextInterval(t *testing.T) {
	mux := &countingMux{}
	a := New(mux, gps.NewFakeSource(), Config{Listen: 2 * time.Second, Interval: 10 * time.Second})
	require.NoError(t, a.Init(t0))

	mux.err = errors.New("i2c nack")
	for el := time.Duration(0); el < 10*time.Second; el += time.Second {
		_, ok := a.Arbitrate(t0.Add(el))
		assert.False(t, ok)
	}
	// Init plus a single failed attempt.
	assert.Len(t, mux.routes, 2)
	assert.Equal(t, 1, a.State().Failures)
	assert.Equal(t, GroundTracker, a.Owner())

	mux.err = nil
	_, ok := a.Arbitrate(t0.Add(10 * time.Second))
	assert.True(t, ok)
}

func TestArbitrate_GrantDiscardsPartialLine(t *testing.T) {
	mux := &countingMux{}
	src := gps.NewFakeSource()
	a := New(mux, src, Config{Listen: time.Second, Interval: 5 * time.Second})
	require.NoError(t, a.Init(t0))

	for el := time.Duration(0); el < 10*time.Second; el += 100 * time.Millisecond {
		a.Arbitrate(t0.Add(el))
	}
	// Once per window, never while the window is open.
	assert.Equal(t, 2, a.State().Grants)
	assert.Equal(t, 2, src.Discards())

	mux.err = errors.New("i2c nack")
	a.Arbitrate(t0.Add(10 * time.Second))
	assert.Equal(t, 2, src.Discards(), "a failed grant keeps the source untouched")
}

func TestArbitrate_FailedReleaseStillReleases(t *testing.T) {
	mux := &countingMux{}
	a := New(mux, gps.NewFakeSource(), Config{Listen: time.Second, Interval: 5 * time.Second})
	require.NoError(t, a.Init(t0))

	_, ok := a.Arbitrate(t0)
	require.True(t, ok)

	mux.err = errors.New("i2c nack")
	_, ok = a.Arbitrate(t0.Add(time.Second))
	assert.False(t, ok)
	assert.Equal(t, GroundTracker, a.Owner())

	_, ok = a.Arbitrate(t0.Add(2 * time.Second))
	assert.False(t, ok)
	assert.Len(t, mux.routes, 3)
}

func TestBankMux(t *testing.T) {
	bank := gpio.NewFakeBank()
	mux, err := NewBankMux(bank)
	require.NoError(t, err)

	for _, port := range []gpio.Port{gpio.PortA, gpio.PortB} {
		for pin := 0; pin < gpio.PinsPerPort; pin++ {
			dir, ok := bank.Direction(port, pin)
			assert.True(t, ok, "%s%d not configured", port, pin)
			assert.Equal(t, gpio.Output, dir)
		}
	}

	require.NoError(t, mux.Route(FlightComputer))
	b6, _ := bank.Read(gpio.PortB, 6)
	b7, _ := bank.Read(gpio.PortB, 7)
	assert.Equal(t, 1, b6)
	assert.Equal(t, 0, b7)

	require.NoError(t, mux.Route(GroundTracker))
	b6, _ = bank.Read(gpio.PortB, 6)
	b7, _ = bank.Read(gpio.PortB, 7)
	assert.Equal(t, 0, b6)
	assert.Equal(t, 0, b7)

	assert.Len(t, bank.Writes(), 4)
}

func TestBankMux_ConfigureFailure(t *testing.T) {
	_, err := NewBankMux(gpio.Unavailable(errors.New("no chip")))
	assert.Error(t, err)
}

func TestOwnerString(t *testing.T) {
	assert.Equal(t, "FLIGHT_COMPUTER", FlightComputer.String())
	assert.Equal(t, "GROUND_TRACKER", GroundTracker.String())
}
