package session

import (
	"sync"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/faults"
)

// State is the orchestrator's position in the session lifecycle.
// Transitions happen only after the confirming event for the
// corresponding operation arrived with a success status.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitialized   State = "initialized"
	StateLoggedIn      State = "logged_in"
	StateSessionActive State = "session_active"
	StateSessionEnded  State = "session_ended"
	StateTornDown      State = "torn_down"
)

// StateNames lists every state, for metrics registration.
func StateNames() []string {
	return []string{
		string(StateUninitialized),
		string(StateInitialized),
		string(StateLoggedIn),
		string(StateSessionActive),
		string(StateSessionEnded),
		string(StateTornDown),
	}
}

// machine guards the lifecycle. It is strict: an operation fired from a
// state that does not permit it is a precondition failure, reported
// before any terminal command is issued.
type machine struct {
	mu    sync.Mutex
	state State
}

func newMachine() *machine {
	return &machine{state: StateUninitialized}
}

func (m *machine) current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// require verifies the machine is in the given state without moving it.
func (m *machine) require(op string, want State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != want {
		return faults.Precondition("invalid_state",
			"%s requires state %s, current state is %s", op, want, m.state)
	}
	return nil
}

// advance moves to the next state after a confirmed transition. The
// from state is re-checked so a concurrent teardown cannot be undone.
func (m *machine) advance(op string, from, to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != from {
		return faults.Precondition("concurrent_transition",
			"%s expected state %s, current state is %s", op, from, m.state)
	}
	m.state = to
	return nil
}

// force moves to the state unconditionally. Only teardown uses it.
func (m *machine) force(to State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = to
}
