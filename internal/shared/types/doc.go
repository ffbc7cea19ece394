// Package types provides the session document shared by storage, the
// browser model and the API.
//
// Core Types:
//   - Document: Root of a persisted session
//   - Window: Top-level window with geometry and tabs
//   - Tab: Browsing tab with its history
//   - HistoryEntry: One back/forward step with optional viewport
//   - SessionInfo: Listing metadata for a stored session
//
// Example Usage:
//
//	doc := &types.Document{Windows: []types.Window{{
//	    Active: true,
//	    Tabs: []types.Tab{{Active: true, History: []types.HistoryEntry{
//	        {URL: "https://example.com/", Title: "Example", Active: true},
//	    }}},
//	}}}
//	if err := doc.Validate(); err != nil {
//	    return err
//	}
package types
