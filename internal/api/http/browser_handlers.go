package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/tabsession/internal/domain/session"
	"github.com/GriffinCanCode/tabsession/internal/providers/browser"
	"github.com/GriffinCanCode/tabsession/internal/shared/id"
	"github.com/GriffinCanCode/tabsession/internal/shared/types"
)

type tabView struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Pending string `json:"pending,omitempty"`
}

type windowView struct {
	ID       string          `json:"id"`
	Active   bool            `json:"active"`
	Geometry *types.Geometry `json:"geometry,omitempty"`
	Tabs     []tabView       `json:"tabs"`
	Current  string          `json:"current,omitempty"`
	Opened   time.Time       `json:"opened"`
}

func viewOf(w *browser.Window) windowView {
	view := windowView{ID: w.ID(), Active: w.Active(), Geometry: w.Geometry(), Tabs: []tabView{}}
	for _, t := range w.TabList() {
		pending, _ := t.Pending()
		view.Tabs = append(view.Tabs, tabView{ID: t.ID(), URL: t.URL(), Pending: pending})
	}
	if cur := w.CurrentTab(); cur != nil {
		view.Current = cur.ID()
	}
	if opened, err := id.Timestamp(w.ID()); err == nil {
		view.Opened = opened
	}
	return view
}

// ListWindows returns the live windows and, with ?document, the session
// document a save would write
func (h *Handlers) ListWindows(c *gin.Context) {
	windows := []windowView{}
	for _, w := range h.browser.WindowList() {
		windows = append(windows, viewOf(w))
	}
	body := gin.H{"windows": windows}

	if queryBool(c, "document") {
		doc, err := h.manager.Extract(c.Request.Context(), session.ExtractOptions{
			OnlyActiveWindow: queryBool(c, "only_active_window"),
		})
		switch {
		case errors.Is(err, session.ErrNothingToSave):
			body["document"] = types.Document{Windows: []types.Window{}}
		case err != nil:
			abortWithError(c, err)
			return
		default:
			body["document"] = doc
		}
	}
	c.JSON(http.StatusOK, body)
}

// OpenWindow opens a window with one tab, optionally navigating it
func (h *Handlers) OpenWindow(c *gin.Context) {
	var req struct {
		URL      string          `json:"url"`
		Geometry *types.Geometry `json:"geometry"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	ctx := c.Request.Context()
	w, tab, err := h.browser.OpenWindow(ctx, req.Geometry)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if req.URL != "" {
		if err := tab.Navigate(ctx, req.URL); err != nil {
			c.JSON(navigationStatus(err), gin.H{"error": err.Error(), "window": viewOf(w)})
			return
		}
	}
	c.JSON(http.StatusCreated, viewOf(w))
}

// CloseWindow closes a window and its tabs
func (h *Handlers) CloseWindow(c *gin.Context) {
	if err := h.browser.CloseWindow(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ActivateWindow makes a window the active one
func (h *Handlers) ActivateWindow(c *gin.Context) {
	if err := h.browser.ActivateWindow(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// OpenTab opens a tab in a window
func (h *Handlers) OpenTab(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	ctx := c.Request.Context()
	tabID, err := h.browser.NewTab(ctx, c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	tab, err := h.browser.Tab(tabID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if req.URL != "" {
		if err := tab.Navigate(ctx, req.URL); err != nil {
			c.JSON(navigationStatus(err), gin.H{"error": err.Error(), "id": tabID})
			return
		}
	}
	c.JSON(http.StatusCreated, tabView{ID: tab.ID(), URL: tab.URL()})
}

// CloseTab closes a tab; closing the last tab closes its window
func (h *Handlers) CloseTab(c *gin.Context) {
	if err := h.browser.CloseTab(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ActivateTab makes a tab the foreground tab of its window
func (h *Handlers) ActivateTab(c *gin.Context) {
	if err := h.browser.ActivateTab(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// navigationStatus reports load failures as a bad gateway
func navigationStatus(err error) int {
	if status := statusFor(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusBadGateway
}

func (h *Handlers) tab(c *gin.Context) (*browser.Tab, bool) {
	tab, err := h.browser.Tab(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return tab, true
}

// Navigate loads a URL in a tab
func (h *Handlers) Navigate(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	tab, ok := h.tab(c)
	if !ok {
		return
	}
	if err := tab.Navigate(c.Request.Context(), req.URL); err != nil {
		c.JSON(navigationStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tabView{ID: tab.ID(), URL: tab.URL()})
}

// Back moves a tab one entry back
func (h *Handlers) Back(c *gin.Context) {
	h.step(c, (*browser.Tab).Back)
}

// Forward moves a tab one entry forward
func (h *Handlers) Forward(c *gin.Context) {
	h.step(c, (*browser.Tab).Forward)
}

func (h *Handlers) step(c *gin.Context, move func(*browser.Tab) error) {
	tab, ok := h.tab(c)
	if !ok {
		return
	}
	if err := move(tab); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tabView{ID: tab.ID(), URL: tab.URL()})
}

// ReplaceState rewrites the displayed entry of a tab
func (h *Handlers) ReplaceState(c *gin.Context) {
	var req struct {
		URL   string `json:"url" binding:"required"`
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	tab, ok := h.tab(c)
	if !ok {
		return
	}
	tab.ReplaceState(req.URL, req.Title)
	c.JSON(http.StatusOK, tabView{ID: tab.ID(), URL: tab.URL()})
}

// SetScroll sets the scroll offset of a tab
func (h *Handlers) SetScroll(c *gin.Context) {
	var req types.Point
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	tab, ok := h.tab(c)
	if !ok {
		return
	}
	tab.SetScroll(req)
	c.Status(http.StatusNoContent)
}

// SetZoom sets the zoom factor of a tab
func (h *Handlers) SetZoom(c *gin.Context) {
	var req struct {
		Zoom float64 `json:"zoom" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	tab, ok := h.tab(c)
	if !ok {
		return
	}
	if err := tab.SetZoom(req.Zoom); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
