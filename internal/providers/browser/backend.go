package browser

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/tabsession/internal/domain/session"
)

// Backend selects a rendering engine profile
type Backend string

const (
	BackendWebEngine Backend = "webengine"
	BackendWebKit    Backend = "webkit"
)

// ParseBackend parses a backend name, case-insensitively
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case BackendWebEngine:
		return BackendWebEngine, nil
	case BackendWebKit:
		return BackendWebKit, nil
	}
	return "", fmt.Errorf("unknown backend %q (expected %s or %s)", name, BackendWebEngine, BackendWebKit)
}

// Capabilities returns what the backend reports to the session extractor
func (b Backend) Capabilities() session.Capabilities {
	switch b {
	case BackendWebKit:
		return session.Capabilities{Name: string(b), PerEntryViewport: true}
	default:
		return session.Capabilities{Name: string(BackendWebEngine), OmitsBlankEntry: true}
	}
}
