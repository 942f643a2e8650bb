package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/autobudget-dev/autobudget/internal/buildinfo"
	"github.com/autobudget-dev/autobudget/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "autobudget",
		Short:   "Envelope budgeting for double-entry ledgers",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newAddCommand())
	rootCmd.AddCommand(newReconcileCommand())

	return rootCmd
}

// loadConfig resolves the config path (flag value, then AUTOBUDGET_CONFIG,
// then ./autobudget.yaml) and loads it. It also returns the ledger path,
// resolved relative to the config file's directory.
func loadConfig(flagPath string) (*config.Config, string, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv("AUTOBUDGET_CONFIG")
	}
	if path == "" {
		path = "autobudget.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}

	ledgerPath := cfg.Ledger.Path
	if !filepath.IsAbs(ledgerPath) {
		ledgerPath = filepath.Join(filepath.Dir(path), ledgerPath)
	}
	return cfg, ledgerPath, nil
}
