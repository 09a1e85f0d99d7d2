package logic

import (
	"errors"
	"testing"
	"time"
)

func TestNewMachine(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(3, startTime)
	if m == nil {
		t.Fatal("NewMachine returned nil")
	}
	if m.Mode() != Preflight {
		t.Errorf("expected Preflight, got %s", m.Mode())
	}
	if !m.Since().Equal(startTime) {
		t.Errorf("expected since %v, got %v", startTime, m.Since())
	}
}

func TestBeginLaunch(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(0, now)

	tr, err := m.BeginLaunch(now.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.From != Preflight || tr.To != Start {
		t.Errorf("expected Preflight->Start, got %s->%s", tr.From, tr.To)
	}
	if m.Mode() != Start {
		t.Errorf("expected Start, got %s", m.Mode())
	}

	// Second launch is rejected without a state change.
	if _, err := m.BeginLaunch(now.Add(2 * time.Minute)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if m.Mode() != Start {
		t.Errorf("mode changed on rejected launch: %s", m.Mode())
	}
}

func TestObserveAltitudeIgnoredInPreflight(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(2, now)

	for i, alt := range []float64{100, 200, 300, 400} {
		if _, ok := m.ObserveAltitude(alt, now.Add(time.Duration(i)*time.Second)); ok {
			t.Fatal("no transition expected before launch")
		}
	}
	if m.Mode() != Preflight {
		t.Errorf("expected Preflight, got %s", m.Mode())
	}
}

func TestAscentThenDescent(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(3, now)
	m.BeginLaunch(now)

	var transitions []Transition
	// Ascent on the third rising step after the flat one (130); a rising
	// sample interrupts the falling run, so Descent lands on 29950.
	alts := []float64{
		100, 100, 110, 120, 130,
		30000, 29990, 29980, 29985,
		29970, 29960, 29950, 29000,
	}
	for i, alt := range alts {
		if tr, ok := m.ObserveAltitude(alt, now.Add(time.Duration(i)*15*time.Second)); ok {
			transitions = append(transitions, tr)
		}
	}

	if len(transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d: %+v", len(transitions), transitions)
	}
	if transitions[0].To != Ascent || transitions[0].Altitude != 130 {
		t.Errorf("first transition = %+v, want Ascent at 130", transitions[0])
	}
	if transitions[1].To != Descent || transitions[1].Altitude != 29950 {
		t.Errorf("second transition = %+v, want Descent at 29950", transitions[1])
	}
	if m.Mode() != Descent {
		t.Errorf("expected Descent, got %s", m.Mode())
	}
}

func TestTrendDisabledStaysInStart(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(0, now)
	m.BeginLaunch(now)

	for i := 0; i < 100; i++ {
		if _, ok := m.ObserveAltitude(float64(i*100), now.Add(time.Duration(i)*time.Second)); ok {
			t.Fatal("no transition expected with detection disabled")
		}
	}
	if m.Mode() != Start {
		t.Errorf("expected Start, got %s", m.Mode())
	}
}

func TestDescentIsTerminal(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(1, now)
	m.BeginLaunch(now)
	m.ObserveAltitude(0, now)
	m.ObserveAltitude(10, now)  // Ascent
	m.ObserveAltitude(5, now)   // Descent
	m.ObserveAltitude(100, now) // rising again: no change
	m.ObserveAltitude(200, now)

	if m.Mode() != Descent {
		t.Errorf("expected Descent, got %s", m.Mode())
	}
}

func TestHeartbeat(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(0, startTime)
	m.BeginLaunch(startTime.Add(time.Minute))

	hb := m.Heartbeat(startTime.Add(time.Hour))
	if hb.Uptime != time.Hour {
		t.Errorf("expected uptime 1h, got %v", hb.Uptime)
	}
	if hb.Mode != Start {
		t.Errorf("expected Start, got %s", hb.Mode)
	}
	if hb.Counts.Launch != 1 {
		t.Errorf("expected 1 launch, got %d", hb.Counts.Launch)
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{Preflight, "PREFLIGHT"},
		{Start, "START"},
		{Ascent, "ASCENT"},
		{Descent, "DESCENT"},
		{Mode(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestTrendDetector(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		input   []float64
		want    []Trend
	}{
		{
			name:    "rising confirmed on third step",
			samples: 3,
			input:   []float64{1, 2, 3, 4, 5},
			want:    []Trend{Flat, Flat, Flat, Rising, Rising},
		},
		{
			name:    "flat resets",
			samples: 2,
			input:   []float64{1, 2, 2, 3, 4},
			want:    []Trend{Flat, Flat, Flat, Flat, Rising},
		},
		{
			name:    "direction change restarts run",
			samples: 2,
			input:   []float64{5, 4, 5, 4, 3},
			want:    []Trend{Flat, Flat, Flat, Flat, Falling},
		},
		{
			name:    "disabled",
			samples: 0,
			input:   []float64{1, 2, 3},
			want:    []Trend{Flat, Flat, Flat},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewTrendDetector(tt.samples)
			for i, v := range tt.input {
				if got := d.Observe(v); got != tt.want[i] {
					t.Errorf("sample %d (%v): got %d, want %d", i, v, got, tt.want[i])
				}
			}
		})
	}
}
