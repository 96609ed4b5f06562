package builder

import (
	"errors"
	"fmt"
)

// ErrBuildFailed is wrapped by every Failure
var ErrBuildFailed = errors.New("build failed")

// Kind classifies a failed submission
type Kind string

const (
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindPayload   Kind = "payload"
)

// Failure describes why a submission produced no URL
type Failure struct {
	Kind   Kind
	Status int // HTTP status, 0 when no response was read
	Err    error
}

func (f *Failure) Error() string {
	switch {
	case f.Status != 0 && f.Err != nil:
		return fmt.Sprintf("build failed (%s, status %d): %v", f.Kind, f.Status, f.Err)
	case f.Status != 0:
		return fmt.Sprintf("build failed (%s, status %d)", f.Kind, f.Status)
	case f.Err != nil:
		return fmt.Sprintf("build failed (%s): %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("build failed (%s)", f.Kind)
}

// Unwrap exposes both ErrBuildFailed and the cause
func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{ErrBuildFailed}
	}
	return []error{ErrBuildFailed, f.Err}
}

func failure(kind Kind, status int, err error) *Failure {
	return &Failure{Kind: kind, Status: status, Err: err}
}

// KindOf returns the failure kind of err, or "" when err is not a Failure
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// UserMessage is the label shown for a failed run
func UserMessage(err error) string {
	if KindOf(err) == KindPayload {
		return "Invalid response"
	}
	return "Failed to run"
}
