package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tabsession/internal/domain/session"
	"github.com/GriffinCanCode/tabsession/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tabsession/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/tabsession/internal/shared/id"
	"github.com/GriffinCanCode/tabsession/internal/shared/types"
)

var (
	// ErrWindowNotFound is returned for unknown window IDs
	ErrWindowNotFound = errors.New("window not found")
	// ErrTabNotFound is returned for unknown tab IDs
	ErrTabNotFound = errors.New("tab not found")
)

// Config configures a Browser
type Config struct {
	Backend Backend
	Loader  Loader // defaults to a StaticLoader with no pages
	Logger  *logging.Logger
	Metrics *monitoring.Metrics
}

// Browser holds the open windows
type Browser struct {
	backend Backend
	loader  Loader
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.RWMutex
	windows []*Window
	active  string
}

// Window is a top-level window holding tabs
type Window struct {
	id      string
	browser *Browser

	mu       sync.Mutex
	geometry *types.Geometry
	tabs     []*Tab
	current  int
}

// New creates an empty browser
func New(cfg Config) *Browser {
	if cfg.Backend == "" {
		cfg.Backend = BackendWebEngine
	}
	if cfg.Loader == nil {
		cfg.Loader = &StaticLoader{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	return &Browser{
		backend: cfg.Backend,
		loader:  cfg.Loader,
		logger:  cfg.Logger.Named("browser"),
		metrics: cfg.Metrics,
	}
}

// Backend returns the engine profile
func (b *Browser) Backend() Backend {
	return b.backend
}

// Capabilities implements session.Renderer
func (b *Browser) Capabilities() session.Capabilities {
	return b.backend.Capabilities()
}

// Windows implements session.Renderer
func (b *Browser) Windows() []session.WindowReader {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]session.WindowReader, len(b.windows))
	for i, w := range b.windows {
		out[i] = w
	}
	return out
}

// WindowList returns the open windows in order
func (b *Browser) WindowList() []*Window {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]*Window(nil), b.windows...)
}

// Window looks up a window by ID
func (b *Browser) Window(windowID string) (*Window, error) {
	if !id.HasPrefix(windowID, id.WindowPrefix) {
		return nil, fmt.Errorf("%w: %s", ErrWindowNotFound, windowID)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, w := range b.windows {
		if w.id == windowID {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrWindowNotFound, windowID)
}

// Tab looks up a tab by ID across all windows
func (b *Browser) Tab(tabID string) (*Tab, error) {
	_, tab, err := b.findTab(tabID)
	return tab, err
}

func (b *Browser) findTab(tabID string) (*Window, *Tab, error) {
	if !id.HasPrefix(tabID, id.TabPrefix) {
		return nil, nil, fmt.Errorf("%w: %s", ErrTabNotFound, tabID)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, w := range b.windows {
		w.mu.Lock()
		for _, t := range w.tabs {
			if t.id == tabID {
				w.mu.Unlock()
				return w, t, nil
			}
		}
		w.mu.Unlock()
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrTabNotFound, tabID)
}

// OpenWindow opens a window with a single blank tab
func (b *Browser) OpenWindow(ctx context.Context, geometry *types.Geometry) (*Window, *Tab, error) {
	windowID, err := b.NewWindow(ctx, geometry)
	if err != nil {
		return nil, nil, err
	}
	tabID, err := b.NewTab(ctx, windowID)
	if err != nil {
		return nil, nil, err
	}
	w, err := b.Window(windowID)
	if err != nil {
		return nil, nil, err
	}
	t, err := b.Tab(tabID)
	return w, t, err
}

// CloseWindow closes a window and all its tabs
func (b *Browser) CloseWindow(ctx context.Context, windowID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, w := range b.windows {
		if w.id != windowID {
			continue
		}
		b.windows = append(b.windows[:i], b.windows[i+1:]...)
		if b.active == windowID {
			b.active = ""
			if len(b.windows) > 0 {
				b.active = b.windows[len(b.windows)-1].id
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrWindowNotFound, windowID)
}

// CloseTab closes a tab. Closing the last tab closes its window.
func (b *Browser) CloseTab(ctx context.Context, tabID string) error {
	w, _, err := b.findTab(tabID)
	if err != nil {
		return err
	}
	if w.removeTab(tabID) == 0 {
		return b.CloseWindow(ctx, w.id)
	}
	return nil
}

// CloseAllWindows implements session.Controller
func (b *Browser) CloseAllWindows(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windows = nil
	b.active = ""
	return nil
}

// NewWindow implements session.Controller. The window starts without tabs
// and becomes active when no other window is.
func (b *Browser) NewWindow(ctx context.Context, geometry *types.Geometry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	w := &Window{id: id.NewWindowID().String(), browser: b, current: -1}
	if geometry != nil {
		g := *geometry
		w.geometry = &g
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.windows = append(b.windows, w)
	if b.active == "" {
		b.active = w.id
	}
	b.logger.Debug("Window opened", zap.String("window", w.id))
	return w.id, nil
}

// NewTab implements session.Controller. The tab shows about:blank and
// becomes the foreground tab of a window that has none.
func (b *Browser) NewTab(ctx context.Context, windowID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	w, err := b.Window(windowID)
	if err != nil {
		return "", err
	}
	t := newTab(id.NewTabID().String(), b.backend, b.loader, b.logger, b.metrics)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.tabs = append(w.tabs, t)
	if w.current < 0 {
		w.current = len(w.tabs) - 1
	}
	return t.id, nil
}

// RestoreHistory implements session.Controller
func (b *Browser) RestoreHistory(ctx context.Context, tabID string, entries []types.HistoryEntry, current int) error {
	t, err := b.Tab(tabID)
	if err != nil {
		return err
	}
	return t.restore(entries, current)
}

// ActivateTab implements session.Controller
func (b *Browser) ActivateTab(ctx context.Context, tabID string) error {
	w, _, err := b.findTab(tabID)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, t := range w.tabs {
		if t.id == tabID {
			w.current = i
		}
	}
	return nil
}

// ActivateWindow implements session.Controller
func (b *Browser) ActivateWindow(ctx context.Context, windowID string) error {
	if _, err := b.Window(windowID); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = windowID
	return nil
}

// ID returns the window identifier
func (w *Window) ID() string {
	return w.id
}

// Active implements session.WindowReader
func (w *Window) Active() bool {
	w.browser.mu.RLock()
	defer w.browser.mu.RUnlock()
	return w.browser.active == w.id
}

// Geometry implements session.WindowReader
func (w *Window) Geometry() *types.Geometry {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.geometry == nil {
		return nil
	}
	g := *w.geometry
	return &g
}

// SetGeometry moves or resizes the window
func (w *Window) SetGeometry(g types.Geometry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.geometry = &g
}

// Tabs implements session.WindowReader
func (w *Window) Tabs() ([]session.TabReader, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]session.TabReader, len(w.tabs))
	for i, t := range w.tabs {
		out[i] = t
	}
	return out, w.current
}

// TabList returns the window's tabs in order
func (w *Window) TabList() []*Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*Tab(nil), w.tabs...)
}

// CurrentTab returns the foreground tab, or nil for an empty window
func (w *Window) CurrentTab() *Tab {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current < 0 || w.current >= len(w.tabs) {
		return nil
	}
	return w.tabs[w.current]
}

func (w *Window) removeTab(tabID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, t := range w.tabs {
		if t.id != tabID {
			continue
		}
		w.tabs = append(w.tabs[:i], w.tabs[i+1:]...)
		switch {
		case len(w.tabs) == 0:
			w.current = -1
		case w.current > i || w.current >= len(w.tabs):
			w.current--
		}
		break
	}
	return len(w.tabs)
}
