// Package session persists and restores the navigational state of a tabbed browser.
//
// A session captures every window, its tabs and each tab's back/forward
// history (URL, original URL after redirects, title, scroll offset, zoom)
// together with the active window/tab/entry pointers.
//
// Components:
//   - Extractor: reads live state through the Renderer interface
//   - Encode/Decode: YAML codec for the on-disk document
//   - Store: name resolution, atomic writes, guarded delete/load, current pointer
//   - Restorer: re-opens windows/tabs through the Controller interface
//   - Manager: save/load/delete verbs with --force/--quiet/--current semantics
//
// Internal sessions (names starting with "_") are only touched with force.
//
// Example Usage:
//
//	store, _ := session.NewStore(session.StoreConfig{Dir: dir}, logger)
//	manager := session.NewManager(store, browser, browser, logger)
//	manager.Save(ctx, session.SaveOptions{Name: "work"})
//	manager.Load(ctx, session.LoadOptions{Name: "work"})
package session
