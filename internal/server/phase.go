package server

// Phase is a step of a server startup.
type Phase string

const (
	PhaseResolving     Phase = "resolving"
	PhaseAcquiring     Phase = "acquiring"
	PhaseConfiguring   Phase = "configuring"
	PhaseSpawning      Phase = "spawning"
	PhaseAwaitingReady Phase = "awaiting-ready"
	PhaseReady         Phase = "ready"
	PhaseTimedOut      Phase = "timed-out"
	PhaseFailed        Phase = "failed"
)

// Terminal reports whether no further phase follows within an attempt.
func (p Phase) Terminal() bool {
	return p == PhaseReady || p == PhaseTimedOut || p == PhaseFailed
}

// Event is delivered to a PhaseFunc on every transition.
type Event struct {
	Phase   Phase
	Version string
	Attempt int
	Err     error
}

// PhaseFunc observes startup transitions. It is called synchronously and
// must not block.
type PhaseFunc func(Event)
