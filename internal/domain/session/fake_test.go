package session

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/tabsession/internal/shared/types"
)

// fakeTab stores history the way the renderer interfaces describe it
type fakeTab struct {
	id      string
	history TabHistory
}

func (t *fakeTab) History() TabHistory {
	items := append([]HistoryItem(nil), t.history.Items...)
	return TabHistory{Items: items, Current: t.history.Current, Viewport: t.history.Viewport}
}

type fakeWindow struct {
	id       string
	active   bool
	geometry *types.Geometry
	tabs     []*fakeTab
	current  int
}

func (w *fakeWindow) Active() bool              { return w.active }
func (w *fakeWindow) Geometry() *types.Geometry { return w.geometry }

func (w *fakeWindow) Tabs() ([]TabReader, int) {
	out := make([]TabReader, len(w.tabs))
	for i, t := range w.tabs {
		out[i] = t
	}
	return out, w.current
}

// fakeBrowser implements Renderer and Controller in memory
type fakeBrowser struct {
	caps    Capabilities
	windows []*fakeWindow
	nextID  int
	calls   []string
	failOn  string
}

func newFakeBrowser(caps Capabilities) *fakeBrowser {
	return &fakeBrowser{caps: caps}
}

func (b *fakeBrowser) Capabilities() Capabilities { return b.caps }

func (b *fakeBrowser) Windows() []WindowReader {
	out := make([]WindowReader, len(b.windows))
	for i, w := range b.windows {
		out[i] = w
	}
	return out
}

func (b *fakeBrowser) id(prefix string) string {
	b.nextID++
	return fmt.Sprintf("%s%d", prefix, b.nextID)
}

func (b *fakeBrowser) record(call string) error {
	b.calls = append(b.calls, call)
	if call == b.failOn {
		return fmt.Errorf("%s refused", call)
	}
	return nil
}

func (b *fakeBrowser) CloseAllWindows(ctx context.Context) error {
	if err := b.record("close-all"); err != nil {
		return err
	}
	b.windows = nil
	return nil
}

func (b *fakeBrowser) NewWindow(ctx context.Context, geometry *types.Geometry) (string, error) {
	if err := b.record("new-window"); err != nil {
		return "", err
	}
	w := &fakeWindow{id: b.id("w"), geometry: geometry, current: -1}
	b.windows = append(b.windows, w)
	return w.id, nil
}

func (b *fakeBrowser) NewTab(ctx context.Context, windowID string) (string, error) {
	if err := b.record("new-tab"); err != nil {
		return "", err
	}
	for _, w := range b.windows {
		if w.id == windowID {
			t := &fakeTab{id: b.id("t")}
			w.tabs = append(w.tabs, t)
			return t.id, nil
		}
	}
	return "", fmt.Errorf("no window %s", windowID)
}

func (b *fakeBrowser) RestoreHistory(ctx context.Context, tabID string, entries []types.HistoryEntry, current int) error {
	if err := b.record("restore-history"); err != nil {
		return err
	}
	t := b.tab(tabID)
	if t == nil {
		return fmt.Errorf("no tab %s", tabID)
	}
	h := TabHistory{Current: current}
	for i, e := range entries {
		item := HistoryItem{URL: e.URL, OriginalURL: e.OriginalURL, Title: e.Title}
		vp := Viewport{Zoom: types.DefaultZoom}
		if e.Zoom != nil {
			vp.Zoom = *e.Zoom
		}
		if e.ScrollPos != nil {
			vp.Scroll = *e.ScrollPos
		}
		if b.caps.PerEntryViewport && (e.Zoom != nil || e.ScrollPos != nil) {
			v := vp
			item.Viewport = &v
		}
		if i == current {
			h.Viewport = vp
		}
		h.Items = append(h.Items, item)
	}
	t.history = h
	return nil
}

func (b *fakeBrowser) ActivateTab(ctx context.Context, tabID string) error {
	if err := b.record("activate-tab"); err != nil {
		return err
	}
	for _, w := range b.windows {
		for i, t := range w.tabs {
			if t.id == tabID {
				w.current = i
				return nil
			}
		}
	}
	return fmt.Errorf("no tab %s", tabID)
}

func (b *fakeBrowser) ActivateWindow(ctx context.Context, windowID string) error {
	if err := b.record("activate-window"); err != nil {
		return err
	}
	for _, w := range b.windows {
		w.active = w.id == windowID
	}
	return nil
}

func (b *fakeBrowser) tab(id string) *fakeTab {
	for _, w := range b.windows {
		for _, t := range w.tabs {
			if t.id == id {
				return t
			}
		}
	}
	return nil
}

// addWindow appends a window whose tabs hold the given URLs, each tab
// starting at about:blank and showing its last URL.
func (b *fakeBrowser) addWindow(active bool, tabs ...[]string) *fakeWindow {
	w := &fakeWindow{id: b.id("w"), active: active, current: 0}
	for _, urls := range tabs {
		items := []HistoryItem{{URL: types.BlankURL, Title: types.BlankURL}}
		for _, u := range urls {
			items = append(items, HistoryItem{URL: u, Title: "Title of " + u})
		}
		w.tabs = append(w.tabs, &fakeTab{
			id: b.id("t"),
			history: TabHistory{
				Items:    items,
				Current:  len(items) - 1,
				Viewport: Viewport{Zoom: types.DefaultZoom},
			},
		})
	}
	b.windows = append(b.windows, w)
	return w
}

func zoomPtr(z float64) *float64 { return &z }
