package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/tabsession/internal/domain/session"
	"github.com/GriffinCanCode/tabsession/internal/shared/types"
)

// populate opens two windows with a few tabs, some history and viewport changes
func populate(t *testing.T, b *Browser) {
	t.Helper()
	ctx := context.Background()

	_, tab, err := b.OpenWindow(ctx, &types.Geometry{X: 0, Y: 0, Width: 1024, Height: 768})
	require.NoError(t, err)
	require.NoError(t, tab.Navigate(ctx, "http://localhost/a"))
	tab.SetScroll(types.Point{Y: 400})
	require.NoError(t, tab.Navigate(ctx, "http://localhost/redirect"))
	require.NoError(t, tab.SetZoom(1.25))

	w2, tab2, err := b.OpenWindow(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, tab2.Navigate(ctx, "http://localhost/c"))
	tab2.ReplaceState("http://localhost/c?page=2", "")

	tab3ID, err := b.NewTab(ctx, w2.ID())
	require.NoError(t, err)
	tab3, err := b.Tab(tab3ID)
	require.NoError(t, err)
	require.NoError(t, tab3.Navigate(ctx, "http://localhost/a"))
	require.NoError(t, tab3.Navigate(ctx, "http://localhost/b"))
	require.NoError(t, tab3.Back())
	require.NoError(t, b.ActivateTab(ctx, tab3ID))
	require.NoError(t, b.ActivateWindow(ctx, w2.ID()))
}

func newSessionManager(t *testing.T, b *Browser, dir string) (*session.Manager, *session.Recorder) {
	t.Helper()
	store, err := session.NewStore(session.StoreConfig{Dir: dir}, nil)
	require.NoError(t, err)
	recorder := &session.Recorder{}
	return session.NewManager(store, b, b, nil, session.WithDefaultReporter(recorder)), recorder
}

func TestSessionRoundTrip(t *testing.T) {
	for _, backend := range []Backend{BackendWebEngine, BackendWebKit} {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()

			source := New(Config{Backend: backend, Loader: testLoader()})
			populate(t, source)
			manager, recorder := newSessionManager(t, source, dir)

			before, err := manager.Extract(ctx, session.ExtractOptions{})
			require.NoError(t, err)
			_, err = manager.Save(ctx, session.SaveOptions{Name: "work"})
			require.NoError(t, err)
			assert.Equal(t, []string{"Saved session work."}, recorder.Messages())

			target := New(Config{Backend: backend, Loader: testLoader()})
			loader, loadRecorder := newSessionManager(t, target, dir)
			result, err := loader.Load(ctx, session.LoadOptions{Name: "work"})
			require.NoError(t, err)
			assert.Equal(t, session.RestoreResult{Windows: 2, Tabs: 3}, result)
			assert.Empty(t, loadRecorder.Errors())

			after, err := loader.Extract(ctx, session.ExtractOptions{})
			require.NoError(t, err)
			assert.True(t, before.Equal(after), "restored session differs:\nbefore: %+v\nafter: %+v", before, after)

			// Saving the restored browser again must produce the same document
			_, err = loader.Save(ctx, session.SaveOptions{Name: "again", Quiet: true})
			require.NoError(t, err)
			first, err := loader.Store().Load("work", false)
			require.NoError(t, err)
			second, err := loader.Store().Load("again", false)
			require.NoError(t, err)
			assert.True(t, first.Equal(second))
		})
	}
}

func TestSessionDocumentShape(t *testing.T) {
	ctx := context.Background()
	b := New(Config{Backend: BackendWebEngine, Loader: testLoader()})
	populate(t, b)
	manager, _ := newSessionManager(t, b, t.TempDir())

	doc, err := manager.Extract(ctx, session.ExtractOptions{})
	require.NoError(t, err)
	require.Len(t, doc.Windows, 2)

	first := doc.Windows[0].Tabs[0].History
	require.Len(t, first, 3)
	assert.Equal(t, types.BlankURL, first[0].URL)
	assert.False(t, first[0].Active)

	redirected := first[2]
	assert.Equal(t, "http://localhost/b", redirected.URL)
	assert.Equal(t, "http://localhost/redirect", redirected.OriginalURL)
	assert.Equal(t, "Page B", redirected.Title)
	assert.True(t, redirected.Active)
	require.NotNil(t, redirected.Zoom)
	assert.Equal(t, 1.25, *redirected.Zoom)

	// webengine only knows the viewport of the displayed entry
	assert.Nil(t, first[1].ScrollPos)
	assert.Empty(t, first[1].OriginalURL)

	rewritten := doc.Windows[1].Tabs[0].History[1]
	assert.Equal(t, "http://localhost/c?page=2", rewritten.URL)
	assert.Equal(t, "http://localhost/c?page=2", rewritten.Title)

	assert.False(t, doc.Windows[0].Active)
	assert.True(t, doc.Windows[1].Active)
	assert.True(t, doc.Windows[1].Tabs[1].Active)
	walked := doc.Windows[1].Tabs[1].History
	require.Len(t, walked, 3)
	assert.True(t, walked[1].Active, "the entry shown after going back is active")
}

func TestSessionWebKitKeepsEntryViewports(t *testing.T) {
	ctx := context.Background()
	b := New(Config{Backend: BackendWebKit, Loader: testLoader()})
	populate(t, b)
	manager, _ := newSessionManager(t, b, t.TempDir())

	doc, err := manager.Extract(ctx, session.ExtractOptions{})
	require.NoError(t, err)

	older := doc.Windows[0].Tabs[0].History[1]
	require.NotNil(t, older.ScrollPos)
	assert.Equal(t, types.Point{Y: 400}, *older.ScrollPos)
}

func TestSessionLoadClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := New(Config{Backend: BackendWebKit, Loader: testLoader()})
	populate(t, b)
	manager, _ := newSessionManager(t, b, dir)

	_, err := manager.Save(ctx, session.SaveOptions{Name: "work", Quiet: true})
	require.NoError(t, err)

	_, err = manager.Load(ctx, session.LoadOptions{Name: "work"})
	require.NoError(t, err)
	assert.Len(t, b.Windows(), 4, "loading without clear adds windows")

	_, err = manager.Load(ctx, session.LoadOptions{Name: "work", Clear: true})
	require.NoError(t, err)
	assert.Len(t, b.Windows(), 2)
}

func TestSessionOnlyActiveWindow(t *testing.T) {
	ctx := context.Background()
	b := New(Config{Backend: BackendWebKit, Loader: testLoader()})
	populate(t, b)
	manager, _ := newSessionManager(t, b, t.TempDir())

	_, err := manager.Save(ctx, session.SaveOptions{Name: "one", OnlyActiveWindow: true, Quiet: true})
	require.NoError(t, err)
	doc, err := manager.Store().Load("one", false)
	require.NoError(t, err)
	require.Len(t, doc.Windows, 1)
	assert.Len(t, doc.Windows[0].Tabs, 2)
}
