package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/GriffinCanCode/rnpad/internal/api/middleware"
	"github.com/GriffinCanCode/rnpad/internal/domain/device"
	"github.com/GriffinCanCode/rnpad/internal/domain/identity"
	"github.com/GriffinCanCode/rnpad/internal/domain/preview"
	"github.com/GriffinCanCode/rnpad/internal/domain/source"
	"github.com/GriffinCanCode/rnpad/internal/domain/workspace"
	"github.com/GriffinCanCode/rnpad/internal/providers/builder"
	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcDispatcher adapts a function to builder.Dispatcher and records requests
type funcDispatcher struct {
	mu   sync.Mutex
	reqs []builder.Request
	fn   func(builder.Request) (string, error)
}

func (d *funcDispatcher) Submit(_ context.Context, req builder.Request) (string, error) {
	d.mu.Lock()
	d.reqs = append(d.reqs, req)
	d.mu.Unlock()
	return d.fn(req)
}

func (d *funcDispatcher) Requests() []builder.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]builder.Request(nil), d.reqs...)
}

type testEnv struct {
	router     *gin.Engine
	workspaces *workspace.Manager
	dispatcher *funcDispatcher
	cookie     *http.Cookie
}

func newEnv(t *testing.T, defaultURL string, fn func(builder.Request) (string, error)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		router:     gin.New(),
		workspaces: workspace.NewManager(defaultURL),
		dispatcher: &funcDispatcher{fn: fn},
	}
	h := NewHandlers(env.workspaces, env.dispatcher, nil)
	idMW := middleware.Identity(middleware.IdentityConfig{Cookie: identity.DefaultCookieOptions()})
	require.NoError(t, h.Register(env.router, idMW))
	return env
}

func succeed(url string) func(builder.Request) (string, error) {
	return func(builder.Request) (string, error) { return url, nil }
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == identity.Key {
			e.cookie = c
		}
	}
	return w
}

func (e *testEnv) document(t *testing.T, path string) *goquery.Document {
	t.Helper()
	w := e.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return doc
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestLanding(t *testing.T) {
	env := newEnv(t, "", succeed("https://host/a"))
	doc := env.document(t, "/")

	assert.Contains(t, doc.Find("h1").Text(), "Learn React Native")
	href, _ := doc.Find("#start").Attr("href")
	assert.Equal(t, "/editor", href)
	assert.Nil(t, env.cookie, "the landing page does not need an identity")
}

func TestEditorPage(t *testing.T) {
	env := newEnv(t, "https://host/default", succeed("https://host/a"))
	doc := env.document(t, "/editor")

	require.NotNil(t, env.cookie, "first visit issues the identity cookie")
	assert.True(t, env.cookie.HttpOnly)

	assert.Equal(t, source.Example, doc.Find("textarea#source").Text())
	assert.Equal(t, "Run Code", strings.TrimSpace(doc.Find("#run").Text()))
	href, _ := doc.Find("#back").Attr("href")
	assert.Equal(t, "/", href)
	href, _ = doc.Find("#open").Attr("href")
	assert.Equal(t, "/api/preview/open", href)

	buttons := doc.Find("button.device")
	assert.Equal(t, 2, buttons.Length())
	assert.Equal(t, "compact", doc.Find("button.device.active").AttrOr("data-kind", ""))

	phone := doc.Find("#device")
	assert.Equal(t, "compact", phone.AttrOr("data-kind", ""))
	assert.Contains(t, phone.AttrOr("style", ""), "width: 320px")
	assert.True(t, phone.HasClass("notched"))

	iframe := doc.Find("#surface iframe")
	require.Equal(t, 1, iframe.Length())
	assert.Equal(t, "preview-0", iframe.AttrOr("id", ""))
	assert.Equal(t, "https://host/default", iframe.AttrOr("src", ""))
	assert.Equal(t, "camera; microphone; geolocation", iframe.AttrOr("allow", ""))
	assert.Equal(t, "allow-scripts allow-same-origin allow-forms allow-popups allow-modals", iframe.AttrOr("sandbox", ""))
}

func TestEditorWithoutPreview(t *testing.T) {
	env := newEnv(t, "", succeed("https://host/a"))
	doc := env.document(t, "/editor")

	assert.Zero(t, doc.Find("#surface iframe").Length())
	assert.Equal(t, "0", doc.Find("#surface").AttrOr("data-generation", ""))
}

func TestPutSource(t *testing.T) {
	env := newEnv(t, "", succeed("https://host/a"))

	w := env.do(t, http.MethodPut, "/api/source", `{"code":"export default () => null;"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["revision"])

	ws := decode[WorkspaceView](t, env.do(t, http.MethodGet, "/api/workspace", ""))
	assert.Equal(t, "export default () => null;", ws.Source.Code)
	assert.Equal(t, preview.PhaseIdle, ws.Session.Phase)

	// Empty code is a valid edit
	w = env.do(t, http.MethodPut, "/api/source", `{"code":""}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/api/source", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/source", `{"code":"`+strings.Repeat("a", 300*1024)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestPutSourceRejectionKeepsPreviousCode(t *testing.T) {
	env := newEnv(t, "", succeed("https://host/a"))
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/source", `{"code":"kept"}`).Code)

	w := env.do(t, http.MethodPut, "/api/source", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "code is required", decode[map[string]any](t, w)["error"])

	w = env.do(t, http.MethodPut, "/api/source", `{"code":"`+strings.Repeat("a", 300*1024)+`"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.NotEmpty(t, decode[map[string]any](t, w)["error"])

	ws := decode[WorkspaceView](t, env.do(t, http.MethodGet, "/api/workspace", ""))
	assert.Equal(t, "kept", ws.Source.Code)
	assert.Equal(t, uint64(1), ws.Source.Revision)
}

func TestPutDevice(t *testing.T) {
	env := newEnv(t, "https://host/default", succeed("https://host/a"))
	before := decode[WorkspaceView](t, env.do(t, http.MethodGet, "/api/workspace", ""))

	w := env.do(t, http.MethodPut, "/api/device", `{"kind":"android"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[struct {
		Device device.Profile `json:"device"`
	}](t, w)
	assert.Equal(t, device.Tablet, resp.Device.Kind)
	assert.Equal(t, 360, resp.Device.Width)

	after := decode[WorkspaceView](t, env.do(t, http.MethodGet, "/api/workspace", ""))
	assert.Equal(t, device.Tablet, after.Device.Kind)
	assert.Equal(t, before.Session, after.Session, "device switch leaves the session alone")
	assert.Equal(t, before.Source, after.Source, "device switch leaves the source alone")
	assert.Empty(t, env.dispatcher.Requests(), "device switch never builds")

	w = env.do(t, http.MethodPut, "/api/device", `{"kind":"watch"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPut, "/api/device", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunSuccess(t *testing.T) {
	env := newEnv(t, "", succeed("https://host/a"))
	env.do(t, http.MethodPut, "/api/source", `{"code":"v1"}`)

	w := env.do(t, http.MethodPost, "/api/run", "")
	require.Equal(t, http.StatusOK, w.Code)

	view := decode[WorkspaceView](t, w)
	assert.Equal(t, preview.PhaseSuccess, view.Session.Phase)
	assert.Equal(t, "https://host/a", view.Session.LastURL)
	assert.Equal(t, uint64(1), view.Session.Generation)
	assert.Equal(t, "preview-1", view.Frame.MountKey)

	reqs := env.dispatcher.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "v1", reqs[0].Source.Code)
	assert.Equal(t, env.cookie.Value, reqs[0].Identity.String())

	// Same URL again still bumps the generation
	view = decode[WorkspaceView](t, env.do(t, http.MethodPost, "/api/run", ""))
	assert.Equal(t, uint64(2), view.Session.Generation)

	doc := env.document(t, "/editor")
	iframe := doc.Find("#surface iframe")
	assert.Equal(t, "preview-2", iframe.AttrOr("id", ""))
	assert.Equal(t, "https://host/a", iframe.AttrOr("src", ""))
}

func TestRunFailure(t *testing.T) {
	env := newEnv(t, "https://host/default", func(builder.Request) (string, error) {
		return "", &builder.Failure{Kind: builder.KindTransport, Err: errors.New("connection refused")}
	})

	w := env.do(t, http.MethodPost, "/api/run", "")
	require.Equal(t, http.StatusOK, w.Code)

	view := decode[WorkspaceView](t, w)
	assert.Equal(t, preview.PhaseError, view.Session.Phase)
	assert.Equal(t, "https://host/default", view.Session.LastURL)
	assert.Zero(t, view.Session.Generation)
	assert.Equal(t, "Failed to run", view.Session.Error)

	doc := env.document(t, "/editor")
	run := doc.Find("#run")
	assert.Equal(t, "Error (Retry)", strings.TrimSpace(run.Text()))
	assert.True(t, run.HasClass("phase-error"))
	assert.Equal(t, "Failed to run", doc.Find("#status").Text())
	assert.Equal(t, "preview-0", doc.Find("#surface iframe").AttrOr("id", ""))
}

func TestRunInProgress(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	env := newEnv(t, "", func(builder.Request) (string, error) {
		close(entered)
		<-release
		return "https://host/a", nil
	})
	env.do(t, http.MethodGet, "/api/workspace", "")

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- env.do(t, http.MethodPost, "/api/run", "")
	}()
	<-entered

	doc := env.document(t, "/editor")
	_, disabled := doc.Find("#run").Attr("disabled")
	assert.True(t, disabled, "run control is disabled while bundling")
	assert.Equal(t, "Bundling...", strings.TrimSpace(doc.Find("#run").Text()))

	w := env.do(t, http.MethodPost, "/api/run", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	close(release)
	assert.Equal(t, http.StatusOK, (<-first).Code)
	assert.Len(t, env.dispatcher.Requests(), 1)
}

func TestOpenPreview(t *testing.T) {
	env := newEnv(t, "", succeed("https://host/a"))

	w := env.do(t, http.MethodGet, "/api/preview/open", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.do(t, http.MethodPost, "/api/run", "")
	w = env.do(t, http.MethodGet, "/api/preview/open", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://host/a", w.Header().Get("Location"))
}

func TestWorkspacesFollowTheCookie(t *testing.T) {
	env := newEnv(t, "", succeed("https://host/a"))
	env.do(t, http.MethodPut, "/api/source", `{"code":"mine"}`)

	other := &testEnv{router: env.router}
	view := decode[WorkspaceView](t, other.do(t, http.MethodGet, "/api/workspace", ""))
	assert.Equal(t, source.Example, view.Source.Code)
	assert.Equal(t, 2, env.workspaces.Count())
}

func TestHealth(t *testing.T) {
	env := newEnv(t, "", succeed("https://host/a"))
	w := env.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]any](t, w)["status"])
}
