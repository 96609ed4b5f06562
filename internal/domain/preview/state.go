package preview

import (
	"github.com/GriffinCanCode/rnpad/internal/providers/builder"
)

// Phase is the lifecycle position of a session
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// State is one point in the lifecycle. Values are only produced by
// Transition, starting from Initial.
type State struct {
	Phase      Phase  `json:"phase"`
	LastURL    string `json:"lastUrl"`
	Generation uint64 `json:"generation"`
	// Error is the user-facing failure label, set only in PhaseError
	Error     string       `json:"error,omitempty"`
	ErrorKind builder.Kind `json:"errorKind,omitempty"`
}

// Initial returns the idle state pointing at defaultURL
func Initial(defaultURL string) State {
	return State{Phase: PhaseIdle, LastURL: defaultURL}
}

// Running reports whether a build is in flight
func (s State) Running() bool {
	return s.Phase == PhaseRunning
}

// RunLabel is the caption of the run control in this state
func (s State) RunLabel() string {
	switch s.Phase {
	case PhaseRunning:
		return "Bundling..."
	case PhaseError:
		return "Error (Retry)"
	default:
		return "Run Code"
	}
}

// Event drives a Transition
type Event interface {
	event()
}

// RunRequested is the user triggering a run
type RunRequested struct{}

// BuildSucceeded carries the URL returned by the builder
type BuildSucceeded struct {
	URL string
}

// BuildFailed carries the dispatcher error
type BuildFailed struct {
	Err error
}

func (RunRequested) event()   {}
func (BuildSucceeded) event() {}
func (BuildFailed) event()    {}

// Transition applies e to s. The second result is false when e is not valid
// in s; the state is then returned unchanged.
func Transition(s State, e Event) (State, bool) {
	switch ev := e.(type) {
	case RunRequested:
		if s.Phase == PhaseRunning {
			return s, false
		}
		return State{Phase: PhaseRunning, LastURL: s.LastURL, Generation: s.Generation}, true

	case BuildSucceeded:
		if s.Phase != PhaseRunning || ev.URL == "" {
			return s, false
		}
		return State{Phase: PhaseSuccess, LastURL: ev.URL, Generation: s.Generation + 1}, true

	case BuildFailed:
		if s.Phase != PhaseRunning {
			return s, false
		}
		return State{
			Phase:      PhaseError,
			LastURL:    s.LastURL,
			Generation: s.Generation,
			Error:      builder.UserMessage(ev.Err),
			ErrorKind:  builder.KindOf(ev.Err),
		}, true
	}
	return s, false
}
