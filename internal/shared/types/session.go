package types

import (
	"fmt"
	"time"
)

// BlankURL is the page every freshly opened tab starts on
const BlankURL = "about:blank"

// DefaultZoom is the zoom factor of an unzoomed page
const DefaultZoom = 1.0

// Point is a scroll offset in CSS pixels
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Geometry is the opaque on-screen placement of a window.
// It is persisted but never part of logical comparison.
type Geometry struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// HistoryEntry is one navigation step in a tab's back/forward list
type HistoryEntry struct {
	URL         string   `json:"url"`
	OriginalURL string   `json:"original_url,omitempty"` // Set only when a redirect occurred
	Title       string   `json:"title,omitempty"`
	Active      bool     `json:"active,omitempty"`
	Zoom        *float64 `json:"zoom,omitempty"`
	ScrollPos   *Point   `json:"scroll_pos,omitempty"`
}

// Tab is one browsing tab
type Tab struct {
	Active  bool           `json:"active"`
	History []HistoryEntry `json:"history"`
}

// Window is one top-level browser window
type Window struct {
	Active   bool      `json:"active"`
	Geometry *Geometry `json:"geometry,omitempty"`
	Tabs     []Tab     `json:"tabs"`
}

// Document is the root of a persisted session
type Document struct {
	Windows []Window `json:"windows"`
}

// SessionInfo summarises a stored session for listings
type SessionInfo struct {
	Name     string    `json:"name"`
	Internal bool      `json:"internal"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ValidationError describes the first structural problem found in a document
type ValidationError struct {
	Path   string // e.g. windows[0].tabs[1].history[2]
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Validate checks required fields and active-flag cardinality
func (d *Document) Validate() error {
	if d == nil || len(d.Windows) == 0 {
		return &ValidationError{Reason: "session contains no windows"}
	}

	activeWindows := 0
	for wi, win := range d.Windows {
		wpath := fmt.Sprintf("windows[%d]", wi)
		if win.Active {
			activeWindows++
		}
		if len(win.Tabs) == 0 {
			return &ValidationError{Path: wpath, Reason: "window contains no tabs"}
		}

		activeTabs := 0
		for ti, tab := range win.Tabs {
			tpath := fmt.Sprintf("%s.tabs[%d]", wpath, ti)
			if tab.Active {
				activeTabs++
			}
			if len(tab.History) == 0 {
				return &ValidationError{Path: tpath, Reason: "tab contains no history"}
			}

			activeEntries := 0
			for hi, entry := range tab.History {
				hpath := fmt.Sprintf("%s.history[%d]", tpath, hi)
				if entry.URL == "" {
					return &ValidationError{Path: hpath, Reason: "missing url"}
				}
				if entry.Active {
					activeEntries++
				}
			}
			if activeEntries > 1 {
				return &ValidationError{Path: tpath, Reason: "more than one active history entry"}
			}
		}
		if activeTabs > 1 {
			return &ValidationError{Path: wpath, Reason: "more than one active tab"}
		}
	}
	if activeWindows > 1 {
		return &ValidationError{Reason: "more than one active window"}
	}
	return nil
}

// ActiveIndex returns the index of the active entry, or the newest entry if none is marked
func (t *Tab) ActiveIndex() int {
	for i, entry := range t.History {
		if entry.Active {
			return i
		}
	}
	return len(t.History) - 1
}

// TabCount returns the number of tabs across all windows
func (d *Document) TabCount() int {
	count := 0
	for _, win := range d.Windows {
		count += len(win.Tabs)
	}
	return count
}

// WithoutGeometry returns a deep copy with all window geometry cleared
func (d *Document) WithoutGeometry() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Windows: make([]Window, len(d.Windows))}
	for wi, win := range d.Windows {
		tabs := make([]Tab, len(win.Tabs))
		for ti, tab := range win.Tabs {
			history := make([]HistoryEntry, len(tab.History))
			for hi, entry := range tab.History {
				history[hi] = entry.clone()
			}
			tabs[ti] = Tab{Active: tab.Active, History: history}
		}
		out.Windows[wi] = Window{Active: win.Active, Tabs: tabs}
	}
	return out
}

// Equal reports whether two documents describe the same session, ignoring geometry
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	if len(d.Windows) != len(other.Windows) {
		return false
	}
	for wi := range d.Windows {
		a, b := d.Windows[wi], other.Windows[wi]
		if a.Active != b.Active || len(a.Tabs) != len(b.Tabs) {
			return false
		}
		for ti := range a.Tabs {
			ta, tb := a.Tabs[ti], b.Tabs[ti]
			if ta.Active != tb.Active || len(ta.History) != len(tb.History) {
				return false
			}
			for hi := range ta.History {
				if !ta.History[hi].Equal(tb.History[hi]) {
					return false
				}
			}
		}
	}
	return true
}

// Equal compares two entries field by field
func (e HistoryEntry) Equal(other HistoryEntry) bool {
	if e.URL != other.URL || e.OriginalURL != other.OriginalURL ||
		e.Title != other.Title || e.Active != other.Active {
		return false
	}
	if (e.Zoom == nil) != (other.Zoom == nil) || (e.Zoom != nil && *e.Zoom != *other.Zoom) {
		return false
	}
	if (e.ScrollPos == nil) != (other.ScrollPos == nil) || (e.ScrollPos != nil && *e.ScrollPos != *other.ScrollPos) {
		return false
	}
	return true
}

func (e HistoryEntry) clone() HistoryEntry {
	out := e
	if e.Zoom != nil {
		z := *e.Zoom
		out.Zoom = &z
	}
	if e.ScrollPos != nil {
		p := *e.ScrollPos
		out.ScrollPos = &p
	}
	return out
}
