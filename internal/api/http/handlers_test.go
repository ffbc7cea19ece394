package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/tabsession/internal/api/command"
	"github.com/GriffinCanCode/tabsession/internal/domain/session"
	"github.com/GriffinCanCode/tabsession/internal/providers/browser"
)

const (
	pageA = "http://example.test/a"
	pageB = "http://example.test/b"
)

type fixture struct {
	router  *gin.Engine
	browser *browser.Browser
	store   *session.Store
	tab     *browser.Tab
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	loader := browser.NewStaticLoader().
		AddPage(pageA, "Page A").
		AddPage(pageB, "Page B")
	b := browser.New(browser.Config{Backend: browser.BackendWebKit, Loader: loader})
	_, tab, err := b.OpenWindow(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, tab.Navigate(context.Background(), pageA))

	store, err := session.NewStore(session.StoreConfig{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	manager := session.NewManager(store, b, b, nil, session.WithDefaultReporter(&session.Recorder{}))
	handlers := NewHandlers(manager, command.NewDispatcher(manager, nil), b, nil)

	router := gin.New()
	handlers.Register(router)
	return &fixture{router: router, browser: b, store: store, tab: tab}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "webkit", body["backend"])
	assert.Equal(t, float64(1), body["windows"])
}

func TestSaveLoadDeleteSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/sessions/work/save", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "work", body["name"])
	assert.Equal(t, []any{"Saved session work."}, body["messages"])
	assert.FileExists(t, filepath.Join(f.store.Dir(), "work.yml"))

	w = f.do(t, http.MethodGet, "/sessions/work", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/yaml")
	assert.Contains(t, w.Body.String(), pageA)

	w = f.do(t, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = f.do(t, http.MethodPost, "/sessions/work/load?clear", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, float64(1), body["windows"])
	assert.Equal(t, float64(1), body["tabs"])
	require.Len(t, f.browser.WindowList(), 1)
	assert.Equal(t, pageA, f.browser.WindowList()[0].CurrentTab().URL())

	w = f.do(t, http.MethodDelete, "/sessions/work", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NoFileExists(t, filepath.Join(f.store.Dir(), "work.yml"))
}

func TestSessionErrorStatus(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Mkdir(filepath.Join(f.store.Dir(), "dir.yml"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.store.Dir(), "broken.yml"), []byte("windows: [\n"), 0o644))

	tests := []struct {
		name    string
		method  string
		target  string
		status  int
		message string
	}{
		{"missing session", http.MethodPost, "/sessions/foo/load", http.StatusNotFound, "Session foo not found!"},
		{"missing raw session", http.MethodGet, "/sessions/foo", http.StatusNotFound, ""},
		{"protected save", http.MethodPost, "/sessions/_internal/save", http.StatusForbidden,
			"_internal is an internal session, use --force to save anyways."},
		{"protected delete", http.MethodDelete, "/sessions/_internal", http.StatusForbidden,
			"_internal is an internal session, use --force to delete anyways."},
		{"undecodable", http.MethodPost, "/sessions/broken/load", http.StatusUnprocessableEntity, ""},
		{"directory target", http.MethodPost, "/sessions/dir/save", http.StatusInternalServerError,
			"Error while saving session: "},
		{"missing delete", http.MethodDelete, "/sessions/foo", http.StatusNotFound, "Session foo not found!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.target, "")
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.message != "" {
				assert.Contains(t, decode(t, w)["error"], tt.message)
			}
		})
	}
}

func TestForcedInternalSave(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/sessions/_internal/save?force=true&quiet=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["messages"])

	w = f.do(t, http.MethodGet, "/sessions", "")
	assert.Equal(t, float64(0), decode(t, w)["count"])
	w = f.do(t, http.MethodGet, "/sessions?internal", "")
	assert.Equal(t, float64(1), decode(t, w)["count"])
}

func TestRunCommand(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/commands", `{"command": ":session-save cmd"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{"Saved session cmd."}, decode(t, w)["messages"])

	w = f.do(t, http.MethodPost, "/commands", `{"command": ":session-save --current"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/commands", `{"command": ":session-load nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, []any{"Session nope not found!"}, decode(t, w)["errors"])

	w = f.do(t, http.MethodPost, "/commands", `{"command": ":no-such-command"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/commands", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWindowsAndTabs(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/windows", `{"url": "`+pageB+`", "geometry": {"x": 1, "y": 2, "width": 800, "height": 600}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	win := decode(t, w)
	winID := win["id"].(string)
	assert.Equal(t, false, win["active"])
	opened, err := time.Parse(time.RFC3339Nano, win["opened"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), opened, time.Minute)

	w = f.do(t, http.MethodPost, "/windows/"+winID+"/tabs", "")
	require.Equal(t, http.StatusCreated, w.Code)
	tabID := decode(t, w)["id"].(string)

	w = f.do(t, http.MethodPost, "/tabs/"+tabID+"/navigate", `{"url": "`+pageA+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pageA, decode(t, w)["url"])

	w = f.do(t, http.MethodPost, "/tabs/"+tabID+"/back", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "about:blank", decode(t, w)["url"])

	w = f.do(t, http.MethodPost, "/tabs/"+tabID+"/back", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/tabs/"+tabID+"/forward", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/tabs/"+tabID+"/replace", `{"url": "http://example.test/a#top", "title": "Top"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://example.test/a#top", decode(t, w)["url"])

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/tabs/"+tabID+"/scroll", `{"x": 0, "y": 40}`).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/tabs/"+tabID+"/zoom", `{"zoom": 1.25}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/tabs/"+tabID+"/zoom", `{"zoom": -1}`).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/tabs/"+tabID+"/activate", "").Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPost, "/windows/"+winID+"/activate", "").Code)

	w = f.do(t, http.MethodGet, "/windows?document", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["windows"], 2)
	doc := body["document"].(map[string]any)
	assert.Len(t, doc["windows"], 2)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/windows/"+winID, "").Code)
	assert.Len(t, f.browser.WindowList(), 1)
}

func TestBrowserErrorStatus(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/tabs/tab_missing/back", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/windows/win_missing/tabs", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/windows/win_missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/tabs/"+f.tab.ID()+"/navigate", `{}`).Code)
	assert.Equal(t, http.StatusBadGateway,
		f.do(t, http.MethodPost, "/tabs/"+f.tab.ID()+"/navigate", `{"url": "http://example.test/unknown"}`).Code)
}

func TestEmptyBrowserDocument(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.browser.CloseAllWindows(context.Background()))

	w := f.do(t, http.MethodGet, "/windows?document=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Empty(t, body["windows"])
	assert.Empty(t, body["document"].(map[string]any)["windows"])

	w = f.do(t, http.MethodPost, "/sessions/empty/save", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
