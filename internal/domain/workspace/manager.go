package workspace

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/rnpad/internal/domain/device"
	"github.com/GriffinCanCode/rnpad/internal/domain/host"
	"github.com/GriffinCanCode/rnpad/internal/domain/preview"
	"github.com/GriffinCanCode/rnpad/internal/domain/source"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/rnpad/internal/shared/id"
	"go.uber.org/zap"
)

// Workspace is the playground state of one browser
type Workspace struct {
	ID      id.BrowserID
	Source  *source.Buffer
	Device  *device.Selector
	Session *preview.Session
	Host    *host.Host

	created    time.Time
	lastAccess atomic.Int64
}

// CreatedAt returns when the workspace was opened
func (w *Workspace) CreatedAt() time.Time {
	return w.created
}

// LastAccess returns the last time the workspace was used
func (w *Workspace) LastAccess() time.Time {
	return time.Unix(0, w.lastAccess.Load())
}

// inUse reports whether a build or an open page still holds the workspace
func (w *Workspace) inUse() bool {
	return w.Session.Snapshot().Running() || w.Session.Subscribers() > 0
}

func (w *Workspace) touch(now time.Time) {
	w.lastAccess.Store(now.UnixNano())
}

// Manager keeps one workspace per browser identity
type Manager struct {
	workspaces sync.Map
	count      atomic.Int64
	createMu   sync.Mutex

	defaultURL string
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	now        func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the manager logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithMetrics reports workspace counts and per-session rejections
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a manager whose sessions start at defaultURL
func NewManager(defaultURL string, opts ...Option) *Manager {
	m := &Manager{
		defaultURL: defaultURL,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrCreate returns the workspace for browser, opening it on first use
func (m *Manager) GetOrCreate(browser id.BrowserID) *Workspace {
	if w, ok := m.Get(browser); ok {
		return w
	}

	m.createMu.Lock()
	defer m.createMu.Unlock()

	if w, ok := m.Get(browser); ok {
		return w
	}

	w := m.open(browser)
	m.workspaces.Store(browser, w)
	m.count.Add(1)
	if m.metrics != nil {
		m.metrics.WorkspacesActive.Inc()
	}
	m.logger.Debug("Opened workspace", zap.String("browser_id", browser.String()))
	return w
}

// Get returns the workspace for browser and marks it used
func (m *Manager) Get(browser id.BrowserID) (*Workspace, bool) {
	val, ok := m.workspaces.Load(browser)
	if !ok {
		return nil, false
	}
	w := val.(*Workspace)
	w.touch(m.now())
	return w, true
}

// Count returns the number of open workspaces
func (m *Manager) Count() int {
	return int(m.count.Load())
}

// Reap closes workspaces unused for longer than idle. Workspaces with a
// build in flight or an attached stream are kept.
func (m *Manager) Reap(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	reaped := 0

	m.workspaces.Range(func(key, val any) bool {
		w := val.(*Workspace)
		if !w.LastAccess().Before(cutoff) || w.inUse() {
			return true
		}
		if _, loaded := m.workspaces.LoadAndDelete(key); loaded {
			m.count.Add(-1)
			reaped++
		}
		return true
	})

	if reaped > 0 {
		if m.metrics != nil {
			m.metrics.WorkspacesActive.Sub(float64(reaped))
			m.metrics.WorkspacesReaped.Add(float64(reaped))
		}
		m.logger.Info("Reaped idle workspaces", zap.Int("count", reaped), zap.Int("remaining", m.Count()))
	}
	return reaped
}

// RunJanitor reaps idle workspaces every interval until ctx is done
func (m *Manager) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reap(idle)
		}
	}
}

func (m *Manager) open(browser id.BrowserID) *Workspace {
	opts := []preview.Option{preview.WithLogger(m.logger.With(zap.String("browser_id", browser.String())))}
	if m.metrics != nil {
		opts = append(opts, preview.WithMetrics(m.metrics))
	}

	selector := device.NewSelector()
	w := &Workspace{
		ID:      browser,
		Source:  source.NewBuffer(),
		Device:  selector,
		Session: preview.NewSession(m.defaultURL, opts...),
		Host:    host.New(selector),
		created: m.now(),
	}
	w.touch(w.created)
	return w
}
