package session

import (
	"context"

	"github.com/GriffinCanCode/tabsession/internal/shared/types"
)

// ExtractOptions controls which part of the live state is captured
type ExtractOptions struct {
	OnlyActiveWindow bool
}

// Extractor builds session documents from a live renderer
type Extractor struct {
	renderer Renderer
}

// NewExtractor creates an extractor reading from renderer
func NewExtractor(renderer Renderer) *Extractor {
	return &Extractor{renderer: renderer}
}

// Extract captures the current state. It never mutates the renderer; each tab
// is read under its own lock so a navigating tab only affects itself.
func (e *Extractor) Extract(ctx context.Context, opts ExtractOptions) (*types.Document, error) {
	caps := e.renderer.Capabilities()
	doc := &types.Document{}

	for _, win := range e.renderer.Windows() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		active := win.Active()
		if opts.OnlyActiveWindow && !active {
			continue
		}

		tabs, activeTab := win.Tabs()
		window := types.Window{Active: active, Geometry: win.Geometry()}
		for i, tab := range tabs {
			history := tab.History()
			if len(history.Items) == 0 {
				continue
			}
			window.Tabs = append(window.Tabs, types.Tab{
				Active:  i == activeTab,
				History: buildHistory(history, caps),
			})
		}
		if len(window.Tabs) == 0 {
			continue
		}
		doc.Windows = append(doc.Windows, window)
	}

	if len(doc.Windows) == 0 {
		return nil, ErrNothingToSave
	}
	return doc, nil
}

func buildHistory(h TabHistory, caps Capabilities) []types.HistoryEntry {
	current := h.Current
	if current < 0 || current >= len(h.Items) {
		current = len(h.Items) - 1
	}

	entries := make([]types.HistoryEntry, 0, len(h.Items)+1)
	if caps.OmitsBlankEntry && h.Items[0].URL != types.BlankURL {
		entries = append(entries, types.HistoryEntry{URL: types.BlankURL, Title: types.BlankURL})
	}

	for i, item := range h.Items {
		entry := types.HistoryEntry{
			URL:    item.URL,
			Title:  item.Title,
			Active: i == current,
		}
		if item.OriginalURL != "" && item.OriginalURL != item.URL {
			entry.OriginalURL = item.OriginalURL
		}
		// A rewritten entry whose title can't be recovered is saved with its URL.
		if entry.Title == "" {
			entry.Title = item.URL
		}

		var vp *Viewport
		switch {
		case i == current:
			live := h.Viewport
			vp = &live
		case caps.PerEntryViewport:
			vp = item.Viewport
		}
		if vp != nil {
			zoom := vp.Zoom
			if zoom <= 0 {
				zoom = types.DefaultZoom
			}
			scroll := vp.Scroll
			entry.Zoom = &zoom
			entry.ScrollPos = &scroll
		}
		entries = append(entries, entry)
	}
	return entries
}
