// Package command parses and runs the session commands typed on the
// browser's command line, e.g. ":session-save --quiet work".
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tabsession/internal/domain/session"
	"github.com/GriffinCanCode/tabsession/internal/infrastructure/logging"
)

// ErrUsage wraps malformed command lines
var ErrUsage = errors.New("invalid command")

// Dispatcher runs command lines against a session manager
type Dispatcher struct {
	manager *session.Manager
	logger  *logging.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(manager *session.Manager, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{manager: manager, logger: logger.Named("command")}
}

// Execute parses and runs one command line. Output goes to the reporter
// attached to ctx (or the manager's default). Operation failures are
// returned as *session.OpError, malformed input wraps ErrUsage.
func (d *Dispatcher) Execute(ctx context.Context, line string) error {
	args := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), ":"))
	reporter := d.manager.ReporterFor(ctx)
	if len(args) == 0 {
		reporter.Error("No command given")
		return fmt.Errorf("%w: empty command line", ErrUsage)
	}

	var out bytes.Buffer
	root := d.rootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)

	d.logger.Debug("Executing command", zap.Strings("args", args))
	err := root.ExecuteContext(ctx)

	if text := strings.TrimSpace(out.String()); text != "" {
		reporter.Message(text)
	}
	if err == nil {
		return nil
	}

	// Operation errors were reported by the manager
	var opErr *session.OpError
	if errors.As(err, &opErr) {
		return err
	}
	reporter.Error(err.Error())
	return fmt.Errorf("%w: %v", ErrUsage, err)
}

func (d *Dispatcher) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tabsession",
		Short:         "Session commands",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(
		d.saveCommand(),
		d.loadCommand(),
		d.deleteCommand(),
		d.listCommand(),
	)
	return root
}

func (d *Dispatcher) saveCommand() *cobra.Command {
	var opts session.SaveOptions
	cmd := &cobra.Command{
		Use:   "session-save [name]",
		Short: "Save the open windows as a named session",
		Long: `Save a session.

Without a name the default session is written. --current saves to the
session most recently loaded or saved.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Name = args[0]
			}
			_, err := d.manager.Save(cmd.Context(), opts)
			return err
		},
	}
	flags := cmd.Flags()
	flags.BoolVarP(&opts.Current, "current", "c", false, "Save the current session instead of the default")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "Don't show confirmation message")
	flags.BoolVarP(&opts.Force, "force", "f", false, "Force saving internal sessions (starting with an underline)")
	flags.BoolVarP(&opts.OnlyActiveWindow, "only-active-window", "o", false, "Saves only tabs of the currently active window")
	return cmd
}

func (d *Dispatcher) loadCommand() *cobra.Command {
	var opts session.LoadOptions
	cmd := &cobra.Command{
		Use:   "session-load name",
		Short: "Load a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Name = args[0]
			_, err := d.manager.Load(cmd.Context(), opts)
			return err
		},
	}
	flags := cmd.Flags()
	flags.BoolVarP(&opts.Clear, "clear", "c", false, "Close all existing windows")
	flags.BoolVarP(&opts.Temp, "temp", "t", false, "Don't set the current session for :session-save")
	flags.BoolVarP(&opts.Force, "force", "f", false, "Force loading internal sessions (starting with an underline)")
	flags.BoolVarP(&opts.Delete, "delete", "d", false, "Delete the saved session once it has loaded")
	return cmd
}

func (d *Dispatcher) deleteCommand() *cobra.Command {
	var opts session.DeleteOptions
	cmd := &cobra.Command{
		Use:   "session-delete name",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Name = args[0]
			return d.manager.Delete(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Force deleting internal sessions (starting with an underline)")
	return cmd
}

func (d *Dispatcher) listCommand() *cobra.Command {
	var opts session.ListOptions
	cmd := &cobra.Command{
		Use:   "session-list [pattern]",
		Short: "List stored sessions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Pattern = args[0]
			}
			infos, err := d.manager.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			reporter := d.manager.ReporterFor(cmd.Context())
			if len(infos) == 0 {
				reporter.Message("No sessions found.")
				return nil
			}
			for _, info := range infos {
				reporter.Message(info.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.IncludeInternal, "internal", "i", false, "Include internal sessions")
	return cmd
}
