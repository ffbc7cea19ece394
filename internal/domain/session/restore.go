package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tabsession/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tabsession/internal/shared/types"
)

// RestoreOptions controls how a document is applied to the browser
type RestoreOptions struct {
	Clear bool // close all existing windows first
}

// RestoreResult counts what was opened
type RestoreResult struct {
	Windows int
	Tabs    int
}

// Restorer re-opens the windows and tabs described by a document
type Restorer struct {
	controller Controller
	logger     *logging.Logger
}

// NewRestorer creates a restorer driving controller
func NewRestorer(controller Controller, logger *logging.Logger) *Restorer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Restorer{controller: controller, logger: logger.Named("restore")}
}

// Restore opens exactly the windows, tabs and histories in doc, then applies
// the active tab of every window and finally the active window.
func (r *Restorer) Restore(ctx context.Context, doc *types.Document, opts RestoreOptions) (RestoreResult, error) {
	var result RestoreResult
	if err := doc.Validate(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	if opts.Clear {
		if err := r.controller.CloseAllWindows(ctx); err != nil {
			return result, fmt.Errorf("failed to close windows: %w", err)
		}
	}

	activeWindow := ""
	for wi, win := range doc.Windows {
		windowID, err := r.controller.NewWindow(ctx, win.Geometry)
		if err != nil {
			return result, fmt.Errorf("failed to open window %d: %w", wi, err)
		}
		result.Windows++

		activeTab := ""
		for ti, tab := range win.Tabs {
			tabID, err := r.controller.NewTab(ctx, windowID)
			if err != nil {
				return result, fmt.Errorf("failed to open tab %d in window %d: %w", ti, wi, err)
			}
			if err := r.controller.RestoreHistory(ctx, tabID, tab.History, tab.ActiveIndex()); err != nil {
				return result, fmt.Errorf("failed to restore history of tab %d in window %d: %w", ti, wi, err)
			}
			result.Tabs++
			if tab.Active {
				activeTab = tabID
			}
		}

		if activeTab != "" {
			if err := r.controller.ActivateTab(ctx, activeTab); err != nil {
				return result, fmt.Errorf("failed to activate tab: %w", err)
			}
		}
		if win.Active {
			activeWindow = windowID
		}
	}

	if activeWindow != "" {
		if err := r.controller.ActivateWindow(ctx, activeWindow); err != nil {
			return result, fmt.Errorf("failed to activate window: %w", err)
		}
	}

	r.logger.Debug("Session restored", zap.Int("windows", result.Windows), zap.Int("tabs", result.Tabs))
	return result, nil
}
