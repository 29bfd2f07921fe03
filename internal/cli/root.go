// Package cli implements the tracker command-line interface: local issue
// administration and the HTTP server.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tracker/internal/paths"
	"github.com/mesh-intelligence/tracker/internal/sqlite"
	"github.com/mesh-intelligence/tracker/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// app is the state shared by subcommands of one invocation.
type app struct {
	flags    rootFlags
	settings Settings
}

// userError marks failures caused by bad input rather than the system.
type userError struct {
	err error
}

func (e *userError) Error() string { return e.err.Error() }
func (e *userError) Unwrap() error { return e.err }

func userErrorf(format string, args ...any) error {
	return &userError{err: fmt.Errorf(format, args...)}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	var uerr *userError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &uerr):
		return exitUserError
	default:
		return exitSysError
	}
}

// NewRootCmd creates the top-level "tracker" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tracker",
		Short: "Issue tracker record service",
		Long:  "Tracker stores issues in SQLite and serves listing and mutation\nendpoints over HTTP.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(a.flags.configDir)
			if err != nil {
				return fmt.Errorf("resolve config dir: %w", err)
			}
			settings, err := loadConfig(configDir)
			if err != nil {
				return err
			}
			a.settings = settings
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newIssueCmd(a))
	root.AddCommand(newUserCmd(a))
	root.AddCommand(newSessionCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	err := root.ExecuteContext(context.Background())
	if code := exitCode(err); code != exitSuccess {
		os.Exit(code)
	}
}

// dataDir resolves the data directory: --data-dir > config data_dir >
// TRACKER_DATA_DIR > platform default.
func (a *app) dataDir() (string, error) {
	return paths.ResolveDataDir(a.flags.dataDir, a.settings.DataDir)
}

// openBackend attaches a SQLite backend on the resolved data directory.
// The caller must Detach it.
func (a *app) openBackend() (*sqlite.Backend, error) {
	dir, err := a.dataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	backend := sqlite.NewBackend()
	if err := backend.Attach(types.Config{Backend: a.settings.Backend, DataDir: dir}); err != nil {
		if errors.Is(err, types.ErrBackendUnknown) || errors.Is(err, types.ErrBackendEmpty) {
			return nil, userErrorf("backend %q: %w", a.settings.Backend, err)
		}
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	return backend, nil
}

// withBackend runs fn against an attached backend and detaches afterwards.
func (a *app) withBackend(fn func(b *sqlite.Backend) error) error {
	b, err := a.openBackend()
	if err != nil {
		return err
	}
	defer b.Detach()
	return fn(b)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
