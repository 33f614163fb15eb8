/*
Package resilience provides circuit breaker implementation for graceful degradation.

# Overview

This package implements the circuit breaker pattern. The runtime puts one breaker
in front of each instance's script context so a page whose scripts keep running
into the evaluation timeout stops accepting inspector scripts for a while instead
of tying up its VM.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Configurable failure thresholds and timeouts
- Error classification: only errors IsFailure accepts count against the breaker
- State change callbacks for monitoring
- Injectable clock

# Usage

	// Create a circuit breaker
	breaker := resilience.New("eval", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsFailure: func(err error) bool {
			return errors.Is(err, sandbox.ErrInterrupted)
		},
	})

	// Execute request through breaker
	result, err := resilience.Run(breaker, func() (*sandbox.Result, error) {
		return rt.Execute(ctx, script)
	})

# States

- Closed: Normal operation, requests pass through
- Open: Service unavailable, requests fail immediately
- Half-Open: Testing if service recovered, limited requests allowed

# Pattern

The circuit breaker transitions between states based on success/failure rates:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
