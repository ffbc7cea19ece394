package session

import (
	"context"

	"github.com/GriffinCanCode/tabsession/internal/shared/types"
)

// Capabilities describes what a rendering backend can report
type Capabilities struct {
	Name string

	// PerEntryViewport is true when scroll/zoom are known for every history
	// entry. Otherwise only the displayed entry has a viewport.
	PerEntryViewport bool

	// OmitsBlankEntry is true when the backend drops the about:blank entry
	// every tab starts with; the extractor then re-inserts it.
	OmitsBlankEntry bool
}

// Viewport is the scroll offset and zoom factor of a page
type Viewport struct {
	Scroll types.Point
	Zoom   float64
}

// HistoryItem is one entry of a tab's navigation stack as reported by a backend
type HistoryItem struct {
	URL         string
	OriginalURL string
	Title       string
	Viewport    *Viewport // nil unless the backend tracks per-entry viewports
}

// TabHistory is a consistent copy of one tab's navigation state
type TabHistory struct {
	Items    []HistoryItem
	Current  int      // index into Items of the displayed entry
	Viewport Viewport // live viewport of the displayed entry
}

// TabReader is the read side of a live tab
type TabReader interface {
	History() TabHistory
}

// WindowReader is the read side of a live window
type WindowReader interface {
	Active() bool
	Geometry() *types.Geometry
	// Tabs returns the tabs in order and the index of the foreground tab (-1 if none).
	Tabs() ([]TabReader, int)
}

// Renderer is the read-only snapshot API of a rendering backend
type Renderer interface {
	Capabilities() Capabilities
	Windows() []WindowReader
}

// Controller is the control API used to rebuild a session
type Controller interface {
	CloseAllWindows(ctx context.Context) error
	NewWindow(ctx context.Context, geometry *types.Geometry) (string, error)
	NewTab(ctx context.Context, windowID string) (string, error)
	RestoreHistory(ctx context.Context, tabID string, entries []types.HistoryEntry, current int) error
	ActivateTab(ctx context.Context, tabID string) error
	ActivateWindow(ctx context.Context, windowID string) error
}
