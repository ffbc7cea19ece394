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
	"github.com/GriffinCanCode/tabsession/internal/shared/types"
)

var (
	// ErrNoBackHistory is returned by Back on the oldest entry
	ErrNoBackHistory = errors.New("at beginning of history")
	// ErrNoForwardHistory is returned by Forward on the newest entry
	ErrNoForwardHistory = errors.New("at end of history")
	// ErrInvalidZoom is returned for non-positive zoom factors
	ErrInvalidZoom = errors.New("zoom must be positive")
)

type entry struct {
	url         string
	originalURL string
	title       string
	viewport    session.Viewport
}

func blankEntry() entry {
	return entry{
		url:      types.BlankURL,
		title:    types.BlankURL,
		viewport: session.Viewport{Zoom: types.DefaultZoom},
	}
}

// Tab is one browsing context with its own history
type Tab struct {
	id      string
	backend Backend
	loader  Loader
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.Mutex
	entries []entry
	current int
	pending string
}

func newTab(tabID string, backend Backend, loader Loader, logger *logging.Logger, metrics *monitoring.Metrics) *Tab {
	return &Tab{
		id:      tabID,
		backend: backend,
		loader:  loader,
		logger:  logger,
		metrics: metrics,
		entries: []entry{blankEntry()},
	}
}

// ID returns the tab identifier
func (t *Tab) ID() string {
	return t.id
}

// Pending returns the URL currently being loaded, if any
func (t *Tab) Pending() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending, t.pending != ""
}

// URL returns the URL of the displayed entry
func (t *Tab) URL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[t.current].url
}

// Navigate loads rawURL and appends it to the history, discarding any
// forward entries. A redirect produces a single entry for the final URL.
func (t *Tab) Navigate(ctx context.Context, rawURL string) error {
	t.mu.Lock()
	t.pending = rawURL
	t.mu.Unlock()

	page, err := t.loader.Load(ctx, rawURL)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == rawURL {
		t.pending = ""
	}
	if err != nil {
		t.recordNavigation("error")
		t.logger.Warn("Navigation failed", zap.String("tab", t.id), zap.String("url", rawURL), zap.Error(err))
		return fmt.Errorf("failed to load %s: %w", rawURL, err)
	}

	t.entries = append(t.entries[:t.current+1], entry{
		url:         page.URL,
		originalURL: rawURL,
		title:       page.Title,
		viewport:    session.Viewport{Zoom: types.DefaultZoom},
	})
	t.current = len(t.entries) - 1

	outcome := "ok"
	if page.URL != rawURL {
		outcome = "redirect"
	}
	t.recordNavigation(outcome)
	t.logger.Debug("Navigated",
		zap.String("tab", t.id),
		zap.String("url", page.URL),
		zap.String("requested", rawURL),
		zap.Int("status", page.Status))
	return nil
}

// Back moves to the previous entry
func (t *Tab) Back() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == 0 {
		return ErrNoBackHistory
	}
	t.current--
	return nil
}

// Forward moves to the next entry
func (t *Tab) Forward() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current >= len(t.entries)-1 {
		return ErrNoForwardHistory
	}
	t.current++
	return nil
}

// ReplaceState rewrites the displayed entry in place, as a page calling
// history.replaceState would. Scroll and zoom are kept.
func (t *Tab) ReplaceState(rawURL, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := &t.entries[t.current]
	e.url = rawURL
	e.originalURL = rawURL
	e.title = title
}

// SetScroll sets the scroll offset of the displayed page
func (t *Tab) SetScroll(pos types.Point) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[t.current].viewport.Scroll = pos
}

// SetZoom sets the zoom factor of the displayed page
func (t *Tab) SetZoom(zoom float64) error {
	if zoom <= 0 {
		return ErrInvalidZoom
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[t.current].viewport.Zoom = zoom
	return nil
}

// History implements session.TabReader
func (t *Tab) History() session.TabHistory {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := t.entries
	current := t.current
	caps := t.backend.Capabilities()
	if caps.OmitsBlankEntry && len(entries) > 1 && current > 0 && entries[0].url == types.BlankURL {
		entries = entries[1:]
		current--
	}

	items := make([]session.HistoryItem, len(entries))
	for i, e := range entries {
		items[i] = session.HistoryItem{URL: e.url, OriginalURL: e.originalURL, Title: e.title}
		if caps.PerEntryViewport {
			vp := e.viewport
			items[i].Viewport = &vp
		}
	}
	return session.TabHistory{
		Items:    items,
		Current:  current,
		Viewport: entries[current].viewport,
	}
}

// restore replaces the whole history without loading anything
func (t *Tab) restore(history []types.HistoryEntry, current int) error {
	if len(history) == 0 {
		return errors.New("empty history")
	}
	if current < 0 || current >= len(history) {
		return fmt.Errorf("current index %d out of range", current)
	}

	entries := make([]entry, len(history))
	for i, h := range history {
		e := entry{
			url:         h.URL,
			originalURL: h.OriginalURL,
			title:       h.Title,
			viewport:    session.Viewport{Zoom: types.DefaultZoom},
		}
		if e.originalURL == "" {
			e.originalURL = h.URL
		}
		if h.Zoom != nil && *h.Zoom > 0 {
			e.viewport.Zoom = *h.Zoom
		}
		if h.ScrollPos != nil {
			e.viewport.Scroll = *h.ScrollPos
		}
		entries[i] = e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = entries
	t.current = current
	t.pending = ""
	return nil
}

func (t *Tab) recordNavigation(outcome string) {
	if t.metrics != nil {
		t.metrics.RecordNavigation(outcome)
	}
}
