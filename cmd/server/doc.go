// Package main is the entry point for the tab session server.
//
// The server holds a browser model (windows, tabs, per-tab history) and
// persists it as named YAML sessions. It provides:
//   - REST API for sessions, windows and tabs
//   - A command endpoint accepting ":session-save"-style command lines
//   - WebSocket streaming of session messages and commands
//   - Prometheus metrics at /metrics
//
// Configuration:
//   - Defaults for local use
//   - A TOML file (-config or CONFIG_FILE)
//   - Environment variables (override the file)
//
// Usage:
//
//	./server -config tabsession.toml
//	SESSION_DIR=/tmp/sessions LOG_DEV=true ./server
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
