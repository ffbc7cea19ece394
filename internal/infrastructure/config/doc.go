// Package config loads service configuration. Values are layered:
// built-in defaults, then an optional TOML file, then environment variables.
package config
