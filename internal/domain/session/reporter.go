package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tabsession/internal/infrastructure/logging"
)

// Reporter is the user-facing message sink
type Reporter interface {
	Message(text string)
	Error(text string)
}

type reporterKey struct{}

// WithReporter overrides the manager's reporter for operations run with ctx
func WithReporter(ctx context.Context, r Reporter) context.Context {
	return context.WithValue(ctx, reporterKey{}, r)
}

// ReporterFrom returns the reporter attached to ctx, or fallback
func ReporterFrom(ctx context.Context, fallback Reporter) Reporter {
	if r, ok := ctx.Value(reporterKey{}).(Reporter); ok && r != nil {
		return r
	}
	return fallback
}

// LogReporter writes user-facing messages to the log
type LogReporter struct {
	logger *logging.Logger
}

// NewLogReporter creates a reporter backed by logger
func NewLogReporter(logger *logging.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Message(text string) {
	r.logger.Info(text, zap.String("kind", "message"))
}

func (r *LogReporter) Error(text string) {
	r.logger.Warn(text, zap.String("kind", "error"))
}

// Recorder keeps reported messages in memory
type Recorder struct {
	mu       sync.Mutex
	messages []string
	errors   []string
}

func (r *Recorder) Message(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
}

func (r *Recorder) Error(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, text)
}

// Messages returns a copy of the recorded informational messages
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// Errors returns a copy of the recorded error messages
func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

// MultiReporter fans out to several reporters
type MultiReporter []Reporter

func (m MultiReporter) Message(text string) {
	for _, r := range m {
		r.Message(text)
	}
}

func (m MultiReporter) Error(text string) {
	for _, r := range m {
		r.Error(text)
	}
}
