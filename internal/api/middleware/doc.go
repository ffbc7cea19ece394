// Package middleware provides the gin middlewares of the HTTP API: CORS,
// per-client and global rate limiting, and structured request logging.
package middleware
