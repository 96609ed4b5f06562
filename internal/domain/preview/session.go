package preview

import (
	"context"
	"errors"
	"sync"

	"github.com/GriffinCanCode/rnpad/internal/domain/source"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/rnpad/internal/providers/builder"
	"github.com/GriffinCanCode/rnpad/internal/shared/id"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned when a run is requested while one is in flight
var ErrRunInProgress = errors.New("preview: run already in progress")

var errAborted = errors.New("build aborted")

// Snapshot is the published view of a session
type Snapshot struct {
	State
	RunLabel string `json:"runLabel"`
}

func snapshotOf(s State) Snapshot {
	return Snapshot{State: s, RunLabel: s.RunLabel()}
}

// Session owns the lifecycle state of one workspace
type Session struct {
	mu      sync.Mutex
	state   State
	subs    map[int]chan Snapshot
	nextSub int

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithMetrics counts rejected runs
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(s *Session) { s.metrics = metrics }
}

// NewSession creates an idle session at generation 0
func NewSession(defaultURL string, opts ...Option) *Session {
	s := &Session{
		state:  Initial(defaultURL),
		subs:   make(map[int]chan Snapshot),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.state)
}

// Run submits code under identity and blocks until the dispatcher answers.
// Build failures end in PhaseError and are not returned; the only error is
// ErrRunInProgress, in which case d is not called.
func (s *Session) Run(ctx context.Context, identity id.BrowserID, code source.Snapshot, d builder.Dispatcher) (Snapshot, error) {
	if _, ok := s.apply(RunRequested{}); !ok {
		if s.metrics != nil {
			s.metrics.RunsRejected.Inc()
		}
		return s.Snapshot(), ErrRunInProgress
	}

	req := builder.NewRequest(identity, code)
	settled := false
	defer func() {
		// A panicking dispatcher must not leave the session running
		if !settled {
			s.apply(BuildFailed{Err: errAborted})
		}
	}()

	url, err := d.Submit(ctx, req)
	if err == nil && url == "" {
		err = &builder.Failure{Kind: builder.KindPayload, Err: errors.New("empty url")}
	}

	var next Snapshot
	if err != nil {
		next, _ = s.apply(BuildFailed{Err: err})
	} else {
		next, _ = s.apply(BuildSucceeded{URL: url})
	}
	settled = true

	s.logger.Debug("Run finished",
		zap.String("build_id", req.BuildID.String()),
		zap.String("phase", string(next.Phase)),
		zap.Uint64("generation", next.Generation),
	)
	return next, nil
}

// Subscribe returns a channel receiving the current snapshot followed by one
// snapshot per transition. A slow reader only sees the latest snapshot. The
// returned func unsubscribes and closes the channel.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 1)
	ch <- snapshotOf(s.state)

	key := s.nextSub
	s.nextSub++
	s.subs[key] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, key)
			close(ch)
		})
	}
}

// Subscribers returns the number of live subscriptions
func (s *Session) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// apply runs Transition under the lock and publishes accepted transitions
func (s *Session) apply(e Event) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := Transition(s.state, e)
	if !ok {
		return snapshotOf(s.state), false
	}
	s.state = next

	snap := snapshotOf(next)
	for _, ch := range s.subs {
		publish(ch, snap)
	}
	return snap, true
}

func publish(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	// Drop the stale value
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
