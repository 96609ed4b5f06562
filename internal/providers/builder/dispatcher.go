package builder

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/GriffinCanCode/rnpad/internal/domain/source"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/config"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/rnpad/internal/providers/http/client"
	"github.com/GriffinCanCode/rnpad/internal/shared/id"
	"github.com/GriffinCanCode/rnpad/internal/shared/utils"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Dispatcher resolves one build request to a preview URL
type Dispatcher interface {
	Submit(ctx context.Context, req Request) (string, error)
}

// Request is the immutable snapshot sent to the builder
type Request struct {
	BuildID  id.BuildID
	Identity id.BrowserID
	Source   source.Snapshot
}

// NewRequest captures identity and source under a fresh build ID
func NewRequest(identity id.BrowserID, snap source.Snapshot) Request {
	return Request{
		BuildID:  id.NewBuildID(),
		Identity: identity,
		Source:   snap,
	}
}

type submitBody struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

type submitResult struct {
	URL string `json:"url"`
}

// HTTPDispatcher posts build requests to the remote builder
type HTTPDispatcher struct {
	endpoint string
	timeout  time.Duration
	client   *client.Client
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	logger   *zap.Logger
}

// Option configures an HTTPDispatcher
type Option func(*HTTPDispatcher)

// WithLogger sets the dispatcher logger
func WithLogger(logger *zap.Logger) Option {
	return func(d *HTTPDispatcher) { d.logger = logger }
}

// WithMetrics records build outcomes into metrics
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(d *HTTPDispatcher) { d.metrics = metrics }
}

// WithTracer records a span per submission and forwards the trace context
func WithTracer(tracer *tracing.Tracer) Option {
	return func(d *HTTPDispatcher) { d.tracer = tracer }
}

// WithClient replaces the outbound HTTP client
func WithClient(c *client.Client) Option {
	return func(d *HTTPDispatcher) { d.client = c }
}

// NewHTTPDispatcher creates a dispatcher for the configured endpoint
func NewHTTPDispatcher(cfg config.BuilderConfig, opts ...Option) (*HTTPDispatcher, error) {
	if !isAbsoluteHTTP(cfg.URL) {
		return nil, fmt.Errorf("builder endpoint %q is not an absolute http(s) URL", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = client.DefaultOptions().Timeout
	}

	d := &HTTPDispatcher{
		endpoint: cfg.URL,
		timeout:  cfg.Timeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		clientOpts := client.DefaultOptions()
		clientOpts.Timeout = cfg.Timeout
		clientOpts.RateLimit = cfg.RequestsPerSecond
		clientOpts.OnStateChange = d.breakerChanged
		d.client = client.NewClient(clientOpts)
	}
	return d, nil
}

// Submit sends req and waits for the builder, bounded by the configured
// timeout. The returned error is always a *Failure.
func (d *HTTPDispatcher) Submit(ctx context.Context, req Request) (string, error) {
	if req.BuildID == "" {
		req.BuildID = id.NewBuildID()
	}
	log := d.logger.With(
		zap.String("build_id", req.BuildID.String()),
		zap.Uint64("revision", req.Source.Revision),
		zap.String("code_sha", utils.Fingerprint(req.Source.Code)),
	)

	var timer *monitoring.Timer
	if d.metrics != nil {
		timer = monitoring.NewBuildTimer(d.metrics)
	}

	var span *tracing.Span
	if d.tracer != nil {
		span, ctx = d.tracer.StartSpan(ctx, "builder.submit")
		span.SetTag("build_id", req.BuildID.String())
	}

	previewURL, err := d.submit(ctx, req)

	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
	}
	if timer != nil {
		timer.Stop(outcome)
	}
	if span != nil {
		span.SetTag("outcome", outcome)
		if err != nil {
			span.SetError(err)
			span.SetStatus(statusOf(err))
		}
		span.Finish()
		d.tracer.Submit(span)
	}

	if err != nil {
		log.Warn("Build failed", zap.String("kind", outcome), zap.Error(err))
		return "", err
	}
	log.Info("Build succeeded", zap.String("url", previewURL))
	return previewURL, nil
}

func (d *HTTPDispatcher) submit(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	body, err := sonic.Marshal(submitBody{UserID: req.Identity.String(), Code: req.Source.Code})
	if err != nil {
		return "", failure(KindTransport, 0, fmt.Errorf("encode request: %w", err))
	}

	r, err := d.client.Request(ctx)
	if err != nil {
		return "", failure(KindTransport, 0, err)
	}
	r.SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-Request-ID", req.BuildID.String()).
		SetBody(body)
	tracing.Inject(ctx, r.Header)

	resp, err := d.client.Execute(func() (*resty.Response, error) {
		return r.Post(d.endpoint)
	})
	if err != nil {
		return "", failure(KindTransport, 0, err)
	}
	if !resp.IsSuccess() {
		return "", failure(KindStatus, resp.StatusCode(), nil)
	}

	return parseResult(resp.StatusCode(), resp.Body())
}

func (d *HTTPDispatcher) breakerChanged(name string, from, to resilience.State) {
	if d.metrics != nil {
		d.metrics.BreakerState.WithLabelValues(name).Set(float64(to))
	}
	if to == resilience.StateOpen {
		d.logger.Warn("Builder unreachable, failing runs fast",
			zap.String("breaker", name), zap.Stringer("from", from))
		return
	}
	d.logger.Info("Builder breaker state changed",
		zap.String("breaker", name), zap.Stringer("from", from), zap.Stringer("to", to))
}

func statusOf(err error) int {
	var f *Failure
	if errors.As(err, &f) {
		return f.Status
	}
	return 0
}

func parseResult(status int, data []byte) (string, error) {
	var result submitResult
	if err := sonic.Unmarshal(data, &result); err != nil {
		return "", failure(KindPayload, status, fmt.Errorf("decode response: %w", err))
	}
	if result.URL == "" {
		return "", failure(KindPayload, status, errors.New("response has no url"))
	}
	if !isAbsoluteHTTP(result.URL) {
		return "", failure(KindPayload, status, fmt.Errorf("response url %q is not an absolute http(s) URL", result.URL))
	}
	return result.URL, nil
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
