package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/GriffinCanCode/rnpad/internal/shared/id"
	"go.uber.org/zap"
)

// Key is the store key holding the browser token
const Key = "browser_id"

// Provider hands out the stable anonymous identity of one browser. A store
// failure never surfaces to callers: the provider switches to an ephemeral
// token that lives as long as the provider does.
type Provider struct {
	store      Store
	logger     *zap.Logger
	generate   func() id.BrowserID
	onFallback func(err error)

	mu        sync.Mutex
	current   id.BrowserID
	ephemeral bool
}

// Option configures a Provider
type Option func(*Provider)

// WithLogger sets the logger used to report degraded identity
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// WithFallbackHook is called once when the provider degrades to an ephemeral token
func WithFallbackHook(fn func(err error)) Option {
	return func(p *Provider) { p.onFallback = fn }
}

// WithGenerator replaces the token generator (tests)
func WithGenerator(fn func() id.BrowserID) Option {
	return func(p *Provider) { p.generate = fn }
}

// NewProvider creates a provider over store
func NewProvider(store Store, opts ...Option) *Provider {
	p := &Provider{
		store:    store,
		logger:   zap.NewNop(),
		generate: id.NewBrowserID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetOrCreate returns the stored browser token, creating and saving one on
// first use. Stored values that are not well-formed tokens are replaced.
func (p *Provider) GetOrCreate(ctx context.Context) id.BrowserID {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != "" {
		return p.current
	}

	stored, err := p.store.Get(ctx, Key)
	switch {
	case err == nil && id.IsValidBrowserID(stored):
		p.current = id.BrowserID(stored)
		return p.current
	case err == nil:
		p.logger.Warn("Replacing malformed browser identity", zap.Int("length", len(stored)))
	case !errors.Is(err, ErrNotFound):
		return p.degrade(err)
	}

	token := p.generate()
	if err := p.store.Set(ctx, Key, token.String()); err != nil {
		p.current = token
		p.fallback(err)
		return p.current
	}

	p.current = token
	p.logger.Debug("Created browser identity", zap.String("browser_id", token.String()))
	return p.current
}

// Ephemeral reports whether the current token could not be persisted
func (p *Provider) Ephemeral() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ephemeral
}

func (p *Provider) degrade(err error) id.BrowserID {
	p.current = p.generate()
	p.fallback(err)
	return p.current
}

func (p *Provider) fallback(err error) {
	p.ephemeral = true
	p.logger.Warn("Identity store unavailable, using ephemeral identity", zap.Error(err))
	if p.onFallback != nil {
		p.onFallback(err)
	}
}
