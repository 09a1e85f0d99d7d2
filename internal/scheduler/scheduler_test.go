package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingObserver struct {
	ids  []JobID
	errs []error
}

func (r *recordingObserver) JobRan(id JobID, _ time.Duration, err error) {
	r.ids = append(r.ids, id)
	r.errs = append(r.errs, err)
}

func counter(n *int) Action {
	return func(time.Time) error {
		*n++
		return nil
	}
}

func TestRegister_Validation(t *testing.T) {
	s := New(nil)
	var n int

	require.NoError(t, s.Register(Job{ID: "a", Interval: time.Second, Action: counter(&n)}))

	err := s.Register(Job{ID: "a", Interval: 2 * time.Second, Action: counter(&n)})
	assert.ErrorIs(t, err, ErrDuplicateJob)

	err = s.Register(Job{ID: "b", Interval: 0, Action: counter(&n)})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	err = s.Register(Job{ID: "c", Interval: -time.Second, Action: counter(&n)})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	err = s.Register(Job{ID: "d", Interval: time.Second})
	assert.ErrorIs(t, err, ErrInvalidInterval)

	assert.Equal(t, 1, s.Len())
}

func TestTick_FiresFloorOfElapsedOverInterval(t *testing.T) {
	tests := []struct {
		interval time.Duration
		elapsed  time.Duration
	}{
		{time.Second, 10 * time.Second},
		{3 * time.Second, 10 * time.Second},
		{5 * time.Second, 60 * time.Second},
		{12 * time.Second, 59 * time.Second},
		{15 * time.Minute, time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.interval.String()+"/"+tt.elapsed.String(), func(t *testing.T) {
			s := New(nil)
			var n int
			require.NoError(t, s.Register(Job{ID: "j", Interval: tt.interval, Action: counter(&n)}))
			s.Start(t0)

			step := time.Second
			for el := step; el <= tt.elapsed; el += step {
				s.Tick(t0.Add(el))
			}
			assert.Equal(t, int(tt.elapsed/tt.interval), n)
		})
	}
}

func TestTick_NoCatchUpBurst(t *testing.T) {
	s := New(nil)
	var n int
	require.NoError(t, s.Register(Job{ID: "j", Interval: time.Second, Action: counter(&n)}))
	s.Start(t0)

	// Loop stalled for 30 intervals: one run, not thirty.
	ran := s.Tick(t0.Add(30 * time.Second))
	assert.Equal(t, []JobID{"j"}, ran)
	assert.Equal(t, 1, n)

	// The next interval is measured from the late tick.
	s.Tick(t0.Add(30*time.Second + 500*time.Millisecond))
	assert.Equal(t, 1, n)
	s.Tick(t0.Add(31 * time.Second))
	assert.Equal(t, 2, n)
}

func TestTick_RegistrationOrder(t *testing.T) {
	s := New(nil)
	var order []JobID
	for _, id := range []JobID{"c", "a", "b"} {
		id := id
		require.NoError(t, s.Register(Job{ID: id, Interval: time.Second, Action: func(time.Time) error {
			order = append(order, id)
			return nil
		}}))
	}
	s.Start(t0)

	ran := s.Tick(t0.Add(time.Second))
	assert.Equal(t, []JobID{"c", "a", "b"}, order)
	assert.Equal(t, order, ran)
}

func TestTick_OffsetStaggersFirstRun(t *testing.T) {
	s := New(nil)
	var a, b int
	require.NoError(t, s.Register(Job{ID: "a", Interval: 15 * time.Second, Action: counter(&a)}))
	require.NoError(t, s.Register(Job{ID: "b", Interval: 15 * time.Second, Offset: 4 * time.Second, Action: counter(&b)}))
	s.Start(t0)

	s.Tick(t0.Add(15 * time.Second))
	assert.Equal(t, 1, a)
	assert.Equal(t, 0, b)

	s.Tick(t0.Add(19 * time.Second))
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestTick_FailingJobDoesNotStarveOthers(t *testing.T) {
	obs := &recordingObserver{}
	s := New(obs)
	boom := errors.New("sensor gone")
	var failing, healthy int

	require.NoError(t, s.Register(Job{ID: "bad", Interval: time.Second, Action: func(time.Time) error {
		failing++
		return boom
	}}))
	require.NoError(t, s.Register(Job{ID: "good", Interval: time.Second, Action: counter(&healthy)}))
	s.Start(t0)

	for i := 1; i <= 3; i++ {
		s.Tick(t0.Add(time.Duration(i) * time.Second))
	}

	assert.Equal(t, 3, failing)
	assert.Equal(t, 3, healthy)

	info := s.Jobs()
	require.Len(t, info, 2)
	assert.Equal(t, 3, info[0].Runs)
	assert.Equal(t, 3, info[0].Failures)
	assert.Equal(t, t0.Add(3*time.Second), info[0].LastRun)
	assert.Equal(t, 0, info[1].Failures)

	require.Len(t, obs.ids, 6)
	assert.ErrorIs(t, obs.errs[0], boom)
	assert.NoError(t, obs.errs[1])
}

func TestTick_ImplicitStart(t *testing.T) {
	s := New(nil)
	var n int
	require.NoError(t, s.Register(Job{ID: "j", Interval: time.Second, Action: counter(&n)}))

	assert.Empty(t, s.Tick(t0))
	assert.True(t, s.Started())
	s.Tick(t0.Add(time.Second))
	assert.Equal(t, 1, n)
}

func TestRegister_AfterStartAnchorsOnNextTick(t *testing.T) {
	s := New(nil)
	s.Start(t0)
	var n int
	require.NoError(t, s.Register(Job{ID: "late", Interval: 2 * time.Second, Action: counter(&n)}))

	s.Tick(t0.Add(10 * time.Second))
	assert.Equal(t, 0, n)
	s.Tick(t0.Add(12 * time.Second))
	assert.Equal(t, 1, n)
}
