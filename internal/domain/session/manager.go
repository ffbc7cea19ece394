package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tabsession/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tabsession/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/tabsession/internal/shared/types"
)

// DefaultName is used by save when no name is given
const DefaultName = "default"

// SaveOptions are the flags of session-save
type SaveOptions struct {
	Name             string
	Force            bool
	Quiet            bool
	Current          bool
	OnlyActiveWindow bool
}

// LoadOptions are the flags of session-load
type LoadOptions struct {
	Name   string
	Force  bool
	Clear  bool // close existing windows first
	Temp   bool // don't move the current-session pointer
	Delete bool // remove the file after a successful load
}

// DeleteOptions are the flags of session-delete
type DeleteOptions struct {
	Name  string
	Force bool
}

// ListOptions are the flags of session-list
type ListOptions struct {
	Pattern         string
	IncludeInternal bool
}

// Manager runs session commands against a store and a live browser.
// Every failure is reported to the user and returned as an *OpError.
type Manager struct {
	store       *Store
	extractor   *Extractor
	restorer    *Restorer
	reporter    Reporter
	logger      *logging.Logger
	metrics     *monitoring.Metrics
	defaultName string
}

// Option configures a Manager
type Option func(*Manager)

// WithDefaultReporter sets the reporter used when the context carries none
func WithDefaultReporter(r Reporter) Option {
	return func(m *Manager) {
		if r != nil {
			m.reporter = r
		}
	}
}

// WithMetrics records operation outcomes
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithDefaultName overrides DefaultName
func WithDefaultName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.defaultName = name
		}
	}
}

// NewManager creates a session manager
func NewManager(store *Store, renderer Renderer, controller Controller, logger *logging.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		store:       store,
		extractor:   NewExtractor(renderer),
		restorer:    NewRestorer(controller, logger),
		logger:      logger.Named("session"),
		defaultName: DefaultName,
	}
	m.reporter = NewLogReporter(m.logger)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the underlying store
func (m *Manager) Store() *Store {
	return m.store
}

// ReporterFor returns the reporter operations run with ctx talk to
func (m *Manager) ReporterFor(ctx context.Context) Reporter {
	return ReporterFrom(ctx, m.reporter)
}

// Save captures the live browser and writes it under a name. It returns the
// name actually used.
func (m *Manager) Save(ctx context.Context, opts SaveOptions) (string, error) {
	timer := monitoring.NewTimer(m.metrics, string(VerbSave))

	name, err := m.saveName(opts)
	if err == nil {
		// Gate before touching the browser so a rejected save has no side effects
		err = m.store.Authorize(name, opts.Force)
	}
	var doc *types.Document
	if err == nil {
		doc, err = m.extractor.Extract(ctx, ExtractOptions{OnlyActiveWindow: opts.OnlyActiveWindow})
	}
	if err == nil {
		err = m.store.Save(name, doc, opts.Force)
	}
	if err != nil {
		return name, m.fail(ctx, timer, VerbSave, name, err)
	}

	m.store.SetCurrent(name)
	m.refreshStored()
	timer.Stop(ErrorKind(nil))
	m.logger.Info("Session saved", zap.String("session", name), zap.Int("windows", len(doc.Windows)), zap.Int("tabs", doc.TabCount()))
	if !opts.Quiet {
		m.ReporterFor(ctx).Message(fmt.Sprintf("Saved session %s.", name))
	}
	return name, nil
}

func (m *Manager) saveName(opts SaveOptions) (string, error) {
	if opts.Current {
		if opts.Name != "" {
			return opts.Name, ErrConflictingName
		}
		current, ok := m.store.Current()
		if !ok {
			return "", ErrNoCurrentSession
		}
		return current, nil
	}
	if opts.Name == "" {
		return m.defaultName, nil
	}
	return opts.Name, nil
}

// Load reads a named session and re-opens its windows
func (m *Manager) Load(ctx context.Context, opts LoadOptions) (RestoreResult, error) {
	timer := monitoring.NewTimer(m.metrics, string(VerbLoad))

	doc, err := m.store.Load(opts.Name, opts.Force)
	if err != nil {
		return RestoreResult{}, m.fail(ctx, timer, VerbLoad, opts.Name, err)
	}
	result, err := m.restorer.Restore(ctx, doc, RestoreOptions{Clear: opts.Clear})
	if err != nil {
		return result, m.fail(ctx, timer, VerbLoad, opts.Name, err)
	}
	if m.metrics != nil {
		m.metrics.AddRestored(result.Windows, result.Tabs)
	}
	if !opts.Temp {
		m.store.SetCurrent(opts.Name)
	}
	timer.Stop(ErrorKind(nil))
	m.logger.Info("Session loaded", zap.String("session", opts.Name), zap.Int("windows", result.Windows), zap.Int("tabs", result.Tabs))

	if opts.Delete && !m.store.IsInternal(opts.Name) {
		if err := m.store.Delete(opts.Name, opts.Force); err != nil {
			m.logger.Error("Error while deleting session!", zap.String("session", opts.Name), zap.Error(err))
			return result, m.report(ctx, &OpError{Verb: VerbDelete, Name: opts.Name, Err: err})
		}
		m.refreshStored()
		m.logger.Debug("Loaded & deleted session", zap.String("session", opts.Name))
	}
	return result, nil
}

// Delete removes a named session. Success is silent.
func (m *Manager) Delete(ctx context.Context, opts DeleteOptions) error {
	timer := monitoring.NewTimer(m.metrics, string(VerbDelete))

	if err := m.store.Delete(opts.Name, opts.Force); err != nil {
		if kind := ErrorKind(err); kind == "storage" {
			m.logger.Error("Error while deleting session!", zap.String("session", opts.Name), zap.Error(err))
		}
		return m.fail(ctx, timer, VerbDelete, opts.Name, err)
	}

	m.refreshStored()
	timer.Stop(ErrorKind(nil))
	m.logger.Info("Session deleted", zap.String("session", opts.Name))
	return nil
}

// List returns the stored sessions matching opts
func (m *Manager) List(ctx context.Context, opts ListOptions) ([]types.SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := m.store.List(opts.Pattern, opts.IncludeInternal)
	if err != nil {
		return nil, err
	}
	if m.metrics != nil && opts.Pattern == "" && opts.IncludeInternal {
		m.metrics.SetSessionsStored(len(infos))
	}
	return infos, nil
}

// Extract captures the live browser without saving it
func (m *Manager) Extract(ctx context.Context, opts ExtractOptions) (*types.Document, error) {
	return m.extractor.Extract(ctx, opts)
}

func (m *Manager) fail(ctx context.Context, timer *monitoring.Timer, verb Verb, name string, err error) error {
	timer.Stop(ErrorKind(err))
	var opErr *OpError
	if !errors.As(err, &opErr) {
		opErr = &OpError{Verb: verb, Name: name, Err: err}
	}
	m.logger.Debug("Session operation failed",
		zap.String("verb", string(verb)),
		zap.String("session", name),
		zap.String("kind", ErrorKind(err)),
		zap.Error(err))
	return m.report(ctx, opErr)
}

func (m *Manager) report(ctx context.Context, opErr *OpError) error {
	m.ReporterFor(ctx).Error(opErr.Error())
	return opErr
}

func (m *Manager) refreshStored() {
	if m.metrics == nil {
		return
	}
	infos, err := m.store.List("", true)
	if err != nil {
		return
	}
	m.metrics.SetSessionsStored(len(infos))
}
