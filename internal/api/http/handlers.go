// Package http exposes the session manager and the browser model over a
// JSON HTTP API.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/tabsession/internal/api/command"
	"github.com/GriffinCanCode/tabsession/internal/domain/session"
	"github.com/GriffinCanCode/tabsession/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tabsession/internal/providers/browser"
)

// Handlers contains HTTP route handlers
type Handlers struct {
	manager    *session.Manager
	dispatcher *command.Dispatcher
	browser    *browser.Browser
	logger     *logging.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(manager *session.Manager, dispatcher *command.Dispatcher, b *browser.Browser, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		manager:    manager,
		dispatcher: dispatcher,
		browser:    b,
		logger:     logger.Named("http"),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.POST("/commands", h.RunCommand)

	sessions := r.Group("/sessions")
	sessions.GET("", h.ListSessions)
	sessions.GET("/:name", h.GetSession)
	sessions.POST("/:name/save", h.SaveSession)
	sessions.POST("/:name/load", h.LoadSession)
	sessions.DELETE("/:name", h.DeleteSession)

	r.GET("/windows", h.ListWindows)
	r.POST("/windows", h.OpenWindow)
	r.DELETE("/windows/:id", h.CloseWindow)
	r.POST("/windows/:id/activate", h.ActivateWindow)
	r.POST("/windows/:id/tabs", h.OpenTab)

	tabs := r.Group("/tabs/:id")
	tabs.DELETE("", h.CloseTab)
	tabs.POST("/activate", h.ActivateTab)
	tabs.POST("/navigate", h.Navigate)
	tabs.POST("/back", h.Back)
	tabs.POST("/forward", h.Forward)
	tabs.POST("/replace", h.ReplaceState)
	tabs.POST("/scroll", h.SetScroll)
	tabs.POST("/zoom", h.SetZoom)
}

// Health returns service health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"backend": h.browser.Backend(),
		"windows": len(h.browser.WindowList()),
	})
}

// statusFor maps an error to an HTTP status code
func statusFor(err error) int {
	switch {
	case errors.Is(err, command.ErrUsage),
		errors.Is(err, browser.ErrInvalidZoom),
		errors.Is(err, browser.ErrUnsupportedScheme):
		return http.StatusBadRequest
	case errors.Is(err, browser.ErrWindowNotFound), errors.Is(err, browser.ErrTabNotFound):
		return http.StatusNotFound
	case errors.Is(err, browser.ErrNoBackHistory), errors.Is(err, browser.ErrNoForwardHistory):
		return http.StatusConflict
	}

	switch session.ErrorKind(err) {
	case "not_found":
		return http.StatusNotFound
	case "protected":
		return http.StatusForbidden
	case "no_current", "conflict":
		return http.StatusConflict
	case "decode":
		return http.StatusUnprocessableEntity
	case "invalid_name", "invalid_document":
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// queryBool reads a boolean query flag; a bare "?force" counts as true
func queryBool(c *gin.Context, key string) bool {
	value, ok := c.GetQuery(key)
	if !ok {
		return false
	}
	if value == "" {
		return true
	}
	b, err := strconv.ParseBool(value)
	return err == nil && b
}
