package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/outlet/internal/config"
	"github.com/vango-dev/outlet/pkg/router"
)

func testRoutes() []*router.RouteConfig {
	return []*router.RouteConfig{
		{Path: "/", Component: "homeCmp", Name: "Home"},
		{Path: "/about", Component: "aboutCmp", Name: "About"},
		{Path: "/users/:id", Component: "userCmp", Name: "User", Children: []*router.RouteConfig{
			{Path: "/posts/:post", Component: "postCmp", Name: "Post"},
		}},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.New()
	cfg.Server.Title = "Test"
	s, err := New(cfg, testRoutes(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestNewRejectsBadRoutes(t *testing.T) {
	_, err := New(config.New(), []*router.RouteConfig{
		{Path: "/a", Component: "x", Name: "A"},
		{Path: "/b", Component: "y", Name: "A"},
	}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	assert.ErrorIs(t, err, router.ErrConfigConflict)
}

func TestRecognize(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/recognize?url=/users/7/posts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got instructionJSON
	decode(t, rec, &got)
	assert.Equal(t, "/users/7/posts/1", got.URL)
	require.Len(t, got.Levels, 2)
	assert.Equal(t, "User", got.Levels[0].Name)
	assert.Equal(t, "7", got.Levels[0].Params["id"])
	assert.Equal(t, "postCmp", got.Levels[1].Component)

	assert.Nil(t, s.Root().Current(), "recognize must not navigate")

	rec = do(t, s, http.MethodGet, "/api/recognize?url=/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var e errorJSON
	decode(t, rec, &e)
	assert.Equal(t, "R100", e.Code)
}

func TestGenerate(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/generate", `{"target": ["/User", {"id": 7}, "Post", {"post": "1"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got linkJSON
	decode(t, rec, &got)
	assert.Equal(t, "./users/7/posts/1", got.Href)
	assert.Equal(t, "/users/7/posts/1", got.URL)
	assert.False(t, got.Active)

	rec = do(t, s, http.MethodPost, "/api/generate", `{"target": ["/User"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var e errorJSON
	decode(t, rec, &e)
	assert.Equal(t, "R151", e.Code)

	rec = do(t, s, http.MethodPost, "/api/generate", `{"target": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNavigateAndState(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/navigate", `{"url": "/users/7/posts/1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/navigate", `{"target": ["/About"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got instructionJSON
	decode(t, rec, &got)
	assert.Equal(t, "/about", got.URL)

	rec = do(t, s, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		Current *instructionJSON `json:"current"`
		Clients int              `json:"clients"`
	}
	decode(t, rec, &state)
	require.NotNil(t, state.Current)
	assert.Equal(t, "/about", state.Current.URL)

	rec = do(t, s, http.MethodPost, "/api/navigate", `{"url": "/missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/about", s.Root().Current().URL())

	rec = do(t, s, http.MethodPost, "/api/navigate", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPageRendersOutletAndLinks(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/about", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "<title>Test</title>")
	assert.Contains(t, body, `data-component="aboutCmp"`)
	assert.Contains(t, body, `window.__OUTLET_URL__="/about"`)
	assert.Contains(t, body, `window.__OUTLET_WS__="/ws"`)
	assert.Contains(t, body, `class="link-active" href="./about"`)
	assert.Contains(t, body, `href="./"`)
	assert.NotContains(t, body, ">User<", "routes with required params get no nav link")

	rec = do(t, s, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-component="aboutCmp"`)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodGet, "/about", "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `outlet_navigations_total{route="About",status="success"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetricsDisabled(t *testing.T) {
	cfg := config.New()
	cfg.Metrics.Disabled = true
	s, err := New(cfg, testRoutes(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	defer s.Close()

	rec := do(t, s, http.MethodGet, "/metrics", "")
	assert.NotContains(t, rec.Body.String(), "outlet_navigations_total")
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/routes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Names []string `json:"names"`
	}
	decode(t, rec, &got)
	assert.Equal(t, []string{"Home", "About", "User", "Post"}, got.Names)
}
