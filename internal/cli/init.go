package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tracker/internal/paths"
	"github.com/mesh-intelligence/tracker/internal/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize tracker configuration and storage",
		Long:  "Create the configuration and data directories, write a default\nconfig.yaml if none exists, then create the database schema.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	dataDir, err := a.dataDir()
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	configPath := paths.ConfigFile(configDir)
	wrote, err := writeConfigIfMissing(configPath, a.settings, a.flags.dataDir)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if err := a.withBackend(func(*sqlite.Backend) error { return nil }); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if wrote {
		fmt.Fprintf(out, "wrote %s\n", configPath)
	}
	fmt.Fprintf(out, "tracker initialized (data: %s)\n", dataDir)
	return nil
}

// writeConfigIfMissing creates config.yaml from s if the file does not
// exist. An existing file is left alone. dataDir is recorded only when it
// was given explicitly.
func writeConfigIfMissing(path string, s Settings, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := s
	cfg.DataDir = dataDir

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# tracker configuration\n")
	return true, os.WriteFile(path, append(header, data...), 0o644)
}
