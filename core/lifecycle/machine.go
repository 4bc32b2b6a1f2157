// Package lifecycle owns the release status state machine and the side
// effects of staff review actions.
package lifecycle

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"digitalsight/model"
)

// machineContext is the context carried by the state machine.
type machineContext struct {
	Release *model.Release
}

// Event names for the state machine.
const (
	EventSubmit   statekit.EventType = "SUBMIT"
	EventPublish  statekit.EventType = "PUBLISH"
	EventReturn   statekit.EventType = "RETURN"
	EventReject   statekit.EventType = "REJECT"
	EventTakedown statekit.EventType = "TAKEDOWN"
	EventResubmit statekit.EventType = "RESUBMIT"
)

// State IDs for the state machine.
var (
	StateIDDraft     statekit.StateID = statekit.StateID(model.StatusDraft)
	StateIDPending   statekit.StateID = statekit.StateID(model.StatusPending)
	StateIDPublished statekit.StateID = statekit.StateID(model.StatusPublished)
	StateIDRejected  statekit.StateID = statekit.StateID(model.StatusRejected)
	StateIDNeedsInfo statekit.StateID = statekit.StateID(model.StatusNeedsInfo)
	StateIDTakedown  statekit.StateID = statekit.StateID(model.StatusTakedown)
)

// ReleaseMachine wraps the statekit machine for the release workflow.
type ReleaseMachine struct {
	interpreter *statekit.Interpreter[machineContext]
}

// NewReleaseMachine builds the workflow state machine.
func NewReleaseMachine() (*ReleaseMachine, error) {
	machine, err := statekit.NewMachine[machineContext]("release-workflow").
		WithInitial(StateIDDraft).
		// Draft: partner side, not yet visible to review
		State(StateIDDraft).
		On(EventSubmit).Target(StateIDPending).
		Done().
		// Pending: in the review queue
		State(StateIDPending).
		On(EventPublish).Target(StateIDPublished).
		On(EventReturn).Target(StateIDNeedsInfo).
		On(EventReject).Target(StateIDRejected).
		Done().
		// Needs Info: correction queue, awaiting partner action
		State(StateIDNeedsInfo).
		On(EventResubmit).Target(StateIDPending).
		On(EventPublish).Target(StateIDPublished).
		On(EventReject).Target(StateIDRejected).
		Done().
		// Published: live with distribution partners
		State(StateIDPublished).
		On(EventTakedown).Target(StateIDTakedown).
		Done().
		// Rejected and Takedown are terminal
		State(StateIDRejected).
		Final().
		Done().
		State(StateIDTakedown).
		Final().
		Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}

	return &ReleaseMachine{interpreter: statekit.NewInterpreter(machine)}, nil
}

// Start starts the state machine interpreter.
func (m *ReleaseMachine) Start() {
	m.interpreter.Start()
}

// Send sends an event to the interpreter.
func (m *ReleaseMachine) Send(event statekit.EventType) {
	m.interpreter.Send(statekit.Event{Type: event})
}

// CurrentState returns the current state.
func (m *ReleaseMachine) CurrentState() statekit.StateID {
	return m.interpreter.State().Value
}

// IsDone reports whether the machine reached a final state.
func (m *ReleaseMachine) IsDone() bool {
	return m.interpreter.Done()
}

// targetOf maps an event to the status it lands in.
func targetOf(event statekit.EventType) (model.ReleaseStatus, error) {
	switch event {
	case EventSubmit, EventResubmit:
		return model.StatusPending, nil
	case EventPublish:
		return model.StatusPublished, nil
	case EventReturn:
		return model.StatusNeedsInfo, nil
	case EventReject:
		return model.StatusRejected, nil
	case EventTakedown:
		return model.StatusTakedown, nil
	default:
		return "", fmt.Errorf("unknown event: %s", event)
	}
}

// ValidateTransition checks whether event is legal from the release's current
// status, without executing anything.
func ValidateTransition(release *model.Release, event statekit.EventType) error {
	target, err := targetOf(event)
	if err != nil {
		return err
	}
	if !release.Status.CanTransitionTo(target) {
		return model.NewValidationError("status",
			fmt.Sprintf("cannot move release from %s to %s", release.Status, target))
	}
	// Submit and Resubmit reach Pending from different sides of the queue.
	if event == EventSubmit && release.Status != model.StatusDraft {
		return model.NewValidationError("status", "only draft releases can be submitted")
	}
	if event == EventResubmit && release.Status != model.StatusNeedsInfo {
		return model.NewValidationError("status", "only releases awaiting correction can be resubmitted")
	}
	// Returning is staff triage of the pending queue only.
	if event == EventReturn && release.Status != model.StatusPending {
		return model.NewValidationError("status", "only pending releases can be returned for correction")
	}
	return nil
}
