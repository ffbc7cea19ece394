package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/tabsession/internal/domain/session"
)

// recording returns a context whose reporter captures messages for the
// response while still forwarding them to the manager's reporter
func (h *Handlers) recording(c *gin.Context) (context.Context, *session.Recorder) {
	ctx := c.Request.Context()
	rec := &session.Recorder{}
	return session.WithReporter(ctx, session.MultiReporter{rec, h.manager.ReporterFor(ctx)}), rec
}

func reported(rec *session.Recorder) gin.H {
	return gin.H{
		"messages": emptyIfNil(rec.Messages()),
		"errors":   emptyIfNil(rec.Errors()),
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// RunCommand executes a command line such as ":session-save work"
func (h *Handlers) RunCommand(c *gin.Context) {
	var req struct {
		Command string `json:"command" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	ctx, rec := h.recording(c)
	err := h.dispatcher.Execute(ctx, req.Command)
	body := reported(rec)
	if err != nil {
		body["error"] = err.Error()
		c.JSON(statusFor(err), body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// ListSessions lists stored sessions, optionally filtered by a glob pattern
func (h *Handlers) ListSessions(c *gin.Context) {
	infos, err := h.manager.List(c.Request.Context(), session.ListOptions{
		Pattern:         c.Query("pattern"),
		IncludeInternal: queryBool(c, "internal"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": infos,
		"count":    len(infos),
	})
}

// GetSession returns the stored YAML document
func (h *Handlers) GetSession(c *gin.Context) {
	data, err := h.manager.Store().ReadRaw(c.Param("name"), queryBool(c, "force"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/yaml; charset=utf-8", data)
}

// SaveSession captures the browser into the named session
func (h *Handlers) SaveSession(c *gin.Context) {
	ctx, rec := h.recording(c)
	name, err := h.manager.Save(ctx, session.SaveOptions{
		Name:             c.Param("name"),
		Force:            queryBool(c, "force"),
		Quiet:            queryBool(c, "quiet"),
		OnlyActiveWindow: queryBool(c, "only_active_window"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	body := reported(rec)
	body["name"] = name
	c.JSON(http.StatusOK, body)
}

// LoadSession restores the named session into the browser
func (h *Handlers) LoadSession(c *gin.Context) {
	ctx, rec := h.recording(c)
	result, err := h.manager.Load(ctx, session.LoadOptions{
		Name:   c.Param("name"),
		Force:  queryBool(c, "force"),
		Clear:  queryBool(c, "clear"),
		Temp:   queryBool(c, "temp"),
		Delete: queryBool(c, "delete"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	body := reported(rec)
	body["windows"] = result.Windows
	body["tabs"] = result.Tabs
	c.JSON(http.StatusOK, body)
}

// DeleteSession removes the named session
func (h *Handlers) DeleteSession(c *gin.Context) {
	err := h.manager.Delete(c.Request.Context(), session.DeleteOptions{
		Name:  c.Param("name"),
		Force: queryBool(c, "force"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
