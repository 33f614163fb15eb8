package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFailed = errors.New("failed")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
func newClock() *fakeClock                   { return &fakeClock{now: time.Unix(1700000000, 0)} }
func succeed() error                         { return nil }
func fail() error                            { return errFailed }
func tripAfter(n uint32) func(Counts) bool   { return func(c Counts) bool { return c.ConsecutiveFailures >= n } }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		settings      Settings
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			settings:      Settings{},
			requests:      []bool{true, true, true},
			expectedState: StateClosed,
		},
		{
			name:          "opens after consecutive failures",
			settings:      Settings{ReadyToTrip: tripAfter(3)},
			requests:      []bool{false, false, false},
			expectedState: StateOpen,
		},
		{
			name:          "success resets the failure streak",
			settings:      Settings{ReadyToTrip: tripAfter(3)},
			requests:      []bool{false, false, true, false, false},
			expectedState: StateClosed,
		},
		{
			name:          "default trips after six failures",
			settings:      Settings{},
			requests:      []bool{false, false, false, false, false, false},
			expectedState: StateOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.settings.Now = newClock().Now
			breaker := New("test", tt.settings)

			for _, success := range tt.requests {
				if success {
					_ = breaker.Execute(succeed)
				} else {
					_ = breaker.Execute(fail)
				}
			}

			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	breaker := New("test", Settings{Now: newClock().Now})

	require.NoError(t, breaker.Execute(succeed))

	counts := breaker.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(1), counts.ConsecutiveSuccesses)
	assert.Equal(t, uint32(0), counts.TotalFailures)

	assert.ErrorIs(t, breaker.Execute(fail), errFailed)

	counts = breaker.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerCountsResetEachInterval(t *testing.T) {
	clock := newClock()
	breaker := New("test", Settings{Interval: time.Minute, ReadyToTrip: tripAfter(2), Now: clock.Now})

	_ = breaker.Execute(fail)
	clock.Advance(2 * time.Minute)
	_ = breaker.Execute(fail)

	assert.Equal(t, StateClosed, breaker.State())
	assert.Equal(t, uint32(1), breaker.Counts().ConsecutiveFailures)
}

func TestBreakerOpenState(t *testing.T) {
	breaker := New("test", Settings{ReadyToTrip: tripAfter(2), Now: newClock().Now})

	for i := 0; i < 2; i++ {
		_ = breaker.Execute(fail)
	}
	assert.Equal(t, StateOpen, breaker.State())

	ran := false
	err := breaker.Execute(func() error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, ran)
}

func TestBreakerHalfOpenState(t *testing.T) {
	clock := newClock()
	breaker := New("test", Settings{
		MaxRequests: 2,
		Timeout:     time.Minute,
		ReadyToTrip: tripAfter(2),
		Now:         clock.Now,
	})

	for i := 0; i < 2; i++ {
		_ = breaker.Execute(fail)
	}
	assert.Equal(t, StateOpen, breaker.State())

	clock.Advance(61 * time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())

	for i := 0; i < 2; i++ {
		require.NoError(t, breaker.Execute(succeed))
	}
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := newClock()
	breaker := New("test", Settings{Timeout: time.Minute, ReadyToTrip: tripAfter(1), Now: clock.Now})

	_ = breaker.Execute(fail)
	clock.Advance(2 * time.Minute)
	require.Equal(t, StateHalfOpen, breaker.State())

	_ = breaker.Execute(fail)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerHalfOpenLimitsProbes(t *testing.T) {
	clock := newClock()
	breaker := New("test", Settings{MaxRequests: 1, Timeout: time.Minute, ReadyToTrip: tripAfter(1), Now: clock.Now})

	_ = breaker.Execute(fail)
	clock.Advance(2 * time.Minute)

	err := breaker.Execute(func() error {
		assert.ErrorIs(t, breaker.Execute(succeed), ErrTooManyRequests)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerIsFailure(t *testing.T) {
	errSyntax := errors.New("syntax error")
	breaker := New("test", Settings{
		ReadyToTrip: tripAfter(2),
		IsFailure:   func(err error) bool { return errors.Is(err, errFailed) },
		Now:         newClock().Now,
	})

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, breaker.Execute(func() error { return errSyntax }), errSyntax)
	}
	assert.Equal(t, StateClosed, breaker.State())

	_ = breaker.Execute(fail)
	_ = breaker.Execute(fail)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestRun(t *testing.T) {
	breaker := New("test", Settings{Now: newClock().Now})

	v, err := Run(breaker, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = Run(breaker, func() (string, error) { return "", errFailed })
	assert.ErrorIs(t, err, errFailed)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	breaker := New("test", Settings{ReadyToTrip: tripAfter(1), Now: newClock().Now})

	assert.Panics(t, func() {
		_ = breaker.Execute(func() error { panic("boom") })
	})
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerCallbacks(t *testing.T) {
	var transitions []string
	clock := newClock()

	breaker := New("test", Settings{
		Timeout:     time.Minute,
		ReadyToTrip: tripAfter(2),
		OnStateChange: func(name string, from State, to State) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
		Now: clock.Now,
	})

	for i := 0; i < 2; i++ {
		_ = breaker.Execute(fail)
	}
	clock.Advance(2 * time.Minute)
	assert.Equal(t, StateHalfOpen, breaker.State())
	require.NoError(t, breaker.Execute(succeed))

	assert.Equal(t, []string{
		"test:closed->open",
		"test:open->half-open",
		"test:half-open->closed",
	}, transitions)
}
