package session

import (
	"fmt"

	"github.com/clicafe/clicafe/pkg/protocol"
)

// FlowState is the modal input state of a session. In any state other than
// Idle the next input line is an answer, not a command.
type FlowState int

const (
	Idle FlowState = iota
	AwaitingPassword
	ChoosingBase
	ChoosingMilk
	ChoosingExtras
	ChoosingSize
)

var flowNames = map[FlowState]string{
	Idle:             "idle",
	AwaitingPassword: "awaiting-password",
	ChoosingBase:     "base",
	ChoosingMilk:     "milk",
	ChoosingExtras:   "extras",
	ChoosingSize:     "size",
}

func (s FlowState) String() string {
	if n, ok := flowNames[s]; ok {
		return n
	}
	return fmt.Sprintf("FlowState(%d)", int(s))
}

// transitions enumerates every legal state change. Staying in the same
// state (re-prompting after invalid input) is always allowed.
var transitions = map[FlowState][]FlowState{
	Idle:             {AwaitingPassword, ChoosingBase},
	AwaitingPassword: {Idle},
	ChoosingBase:     {ChoosingMilk, Idle},
	ChoosingMilk:     {ChoosingExtras, Idle},
	ChoosingExtras:   {ChoosingSize, Idle},
	ChoosingSize:     {Idle},
}

// CanTransition reports whether from → to is legal.
func CanTransition(from, to FlowState) bool {
	if from == to {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Flow is the modal input state machine with the data collected so far.
type Flow struct {
	state FlowState

	// PendingEmail is the login email while AwaitingPassword.
	PendingEmail string

	// PendingRegistration, if set, means the password being awaited is
	// for a new account rather than a login.
	PendingRegistration *protocol.RegisterRequest

	// Drink choices while customizing.
	Base   string
	Milk   string
	Extras []string
}

// State returns the current state.
func (f *Flow) State() FlowState {
	return f.state
}

// Active reports whether the flow is waiting for an answer.
func (f *Flow) Active() bool {
	return f.state != Idle
}

// To moves the flow to next, or returns an error for an illegal transition.
// Returning to Idle clears the collected data.
func (f *Flow) To(next FlowState) error {
	if !CanTransition(f.state, next) {
		return fmt.Errorf("illegal flow transition %s -> %s", f.state, next)
	}
	f.state = next
	if next == Idle {
		f.PendingEmail = ""
		f.PendingRegistration = nil
		f.Base = ""
		f.Milk = ""
		f.Extras = nil
	}
	return nil
}

// Reset returns to Idle from any state.
func (f *Flow) Reset() {
	f.state = Idle
	f.PendingEmail = ""
	f.PendingRegistration = nil
	f.Base = ""
	f.Milk = ""
	f.Extras = nil
}
