package builder

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/rnpad/internal/domain/source"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/config"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/rnpad/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/rnpad/internal/shared/id"
	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testIdentity = id.BrowserID("6f1c1a52-2d0e-4a8e-9d4c-52a0c0e5a7f1")

func newDispatcher(t *testing.T, endpoint string, opts ...Option) *HTTPDispatcher {
	t.Helper()
	d, err := NewHTTPDispatcher(config.BuilderConfig{URL: endpoint, Timeout: 2 * time.Second}, opts...)
	require.NoError(t, err)
	return d
}

func newRequest(code string) Request {
	return NewRequest(testIdentity, source.Snapshot{Code: code, Revision: 3})
}

func TestSubmitSuccess(t *testing.T) {
	var (
		gotBody      submitBody
		gotRequestID string
		gotType      string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/runcode", r.URL.Path)
		gotRequestID = r.Header.Get("X-Request-ID")
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, sonic.Unmarshal(data, &gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"url":"https://host/a"}`)
	}))
	defer srv.Close()

	metrics := monitoring.NewMetrics()
	d := newDispatcher(t, srv.URL+"/runcode", WithMetrics(metrics))
	req := newRequest("export default App;")

	got, err := d.Submit(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "https://host/a", got)
	assert.Equal(t, testIdentity.String(), gotBody.UserID)
	assert.Equal(t, "export default App;", gotBody.Code)
	assert.Equal(t, req.BuildID.String(), gotRequestID)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.BuildsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.BuildsInFlight))
}

func TestSubmitFailureKinds(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   Kind
		wantStatus int
		wantLabel  string
	}{
		{"server error", http.StatusInternalServerError, `{"url":"https://host/a"}`, KindStatus, 500, "Failed to run"},
		{"bad request", http.StatusBadRequest, `{"error":"syntax"}`, KindStatus, 400, "Failed to run"},
		{"not json", http.StatusOK, `<html>oops</html>`, KindPayload, 200, "Invalid response"},
		{"missing url", http.StatusOK, `{}`, KindPayload, 200, "Invalid response"},
		{"empty url", http.StatusOK, `{"url":""}`, KindPayload, 200, "Invalid response"},
		{"relative url", http.StatusOK, `{"url":"/preview/a"}`, KindPayload, 200, "Invalid response"},
		{"non-http url", http.StatusOK, `{"url":"javascript:alert(1)"}`, KindPayload, 200, "Invalid response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			metrics := monitoring.NewMetrics()
			d := newDispatcher(t, srv.URL, WithMetrics(metrics))

			got, err := d.Submit(context.Background(), newRequest("x"))

			assert.Empty(t, got, "a failure never yields a URL")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBuildFailed)

			var f *Failure
			require.True(t, errors.As(err, &f))
			assert.Equal(t, tt.wantKind, f.Kind)
			assert.Equal(t, tt.wantStatus, f.Status)
			assert.Equal(t, tt.wantLabel, UserMessage(err))
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.BuildsTotal.WithLabelValues(string(tt.wantKind))))
		})
	}
}

func TestSubmitTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	d := newDispatcher(t, endpoint)
	got, err := d.Submit(context.Background(), newRequest("x"))

	assert.Empty(t, got)
	assert.ErrorIs(t, err, ErrBuildFailed)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, "Failed to run", UserMessage(err))
}

func TestSubmitTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	d, err := NewHTTPDispatcher(config.BuilderConfig{URL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = d.Submit(context.Background(), newRequest("x"))

	assert.Equal(t, KindTransport, KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSubmitCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"url":"https://host/a"}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDispatcher(t, srv.URL).Submit(ctx, newRequest("x"))
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestSubmitAssignsBuildID(t *testing.T) {
	var gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-ID")
		_, _ = io.WriteString(w, `{"url":"https://host/a"}`)
	}))
	defer srv.Close()

	_, err := newDispatcher(t, srv.URL).Submit(context.Background(), Request{Identity: testIdentity})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gotRequestID, id.BuildPrefix+"_"))
}

func TestNewHTTPDispatcherRejectsBadEndpoint(t *testing.T) {
	for _, endpoint := range []string{"", "localhost:5000/runcode", "ftp://host/x", "/runcode"} {
		_, err := NewHTTPDispatcher(config.BuilderConfig{URL: endpoint})
		assert.Error(t, err, endpoint)
	}
}

func TestFailureError(t *testing.T) {
	assert.Equal(t, "build failed (status, status 502)", failure(KindStatus, 502, nil).Error())
	assert.Equal(t, "build failed (payload, status 200): response has no url",
		failure(KindPayload, 200, errors.New("response has no url")).Error())
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, "Failed to run", UserMessage(errors.New("plain")))
}

func TestSubmitPropagatesTrace(t *testing.T) {
	var gotTrace, gotSpan string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTrace = r.Header.Get(tracing.TraceHeader)
		gotSpan = r.Header.Get(tracing.SpanHeader)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	tracer := tracing.New("test", zap.New(core))
	d := newDispatcher(t, srv.URL, WithTracer(tracer))

	parent, ctx := tracer.StartSpan(context.Background(), "POST /api/run")
	_, err := d.Submit(ctx, newRequest("x"))
	require.Error(t, err)
	tracer.Close()

	assert.Equal(t, string(parent.TraceID), gotTrace)
	assert.NotEmpty(t, gotSpan)
	assert.NotEqual(t, string(parent.SpanID), gotSpan, "builder sees the submit span, not the caller's")

	spans := logs.FilterMessage("span completed with error").All()
	require.Len(t, spans, 1)
	fields := spans[0].ContextMap()
	assert.Equal(t, "builder.submit", fields["operation"])
	assert.Equal(t, string(KindStatus), fields["outcome"])
	assert.Equal(t, int64(http.StatusInternalServerError), fields["status"])
	assert.Equal(t, string(parent.SpanID), fields["parent_id"])
}

func TestBreakerOpensAfterRepeatedOutages(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	metrics := monitoring.NewMetrics()
	d := newDispatcher(t, srv.URL, WithMetrics(metrics))

	for i := 0; i < 5; i++ {
		_, err := d.Submit(context.Background(), newRequest("x"))
		assert.Equal(t, KindStatus, KindOf(err))
	}
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.BreakerState.WithLabelValues("builder")))

	_, err := d.Submit(context.Background(), newRequest("x"))
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, "Failed to run", UserMessage(err))
	assert.Equal(t, 5, hits, "open breaker fails fast without reaching the builder")
}
