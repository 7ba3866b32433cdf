package server

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSessionBusy is returned when a session is already starting a server.
	ErrSessionBusy = errors.New("session is already starting a server")
	// ErrInvalidTimeout rejects a non-positive readiness timeout.
	ErrInvalidTimeout = errors.New("timeout must be a positive duration")
)

// StartupTimeoutError reports a server that did not become ready in time.
type StartupTimeoutError struct {
	Timeout time.Duration
	At      time.Time
	// Err is set when the deadline expired before the process was spawned.
	Err error
}

func (e *StartupTimeoutError) Error() string {
	msg := fmt.Sprintf("server did not start on time (%v, now %s)", e.Timeout, e.At.Format(time.RFC3339))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StartupTimeoutError) Unwrap() error { return e.Err }

// ProcessExitedError reports a server process that ended before it was ready.
type ProcessExitedError struct {
	PID int
	Err error
}

func (e *ProcessExitedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("server process %d exited before it was ready", e.PID)
	}
	return fmt.Sprintf("server process %d exited before it was ready: %v", e.PID, e.Err)
}

func (e *ProcessExitedError) Unwrap() error { return e.Err }
