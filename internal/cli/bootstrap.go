// Package cli provides CLI commands for the pnp application.
package cli

import (
	gocontext "context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/pnp/internal/config"
	"github.com/example/pnp/internal/wire"
)

// settings holds the configuration resolved for the current invocation.
// Set once at startup by Bootstrap.
var settings = config.Default()

// AddGlobalFlags registers the flags shared by every command.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String("db", "", "sqlite site database (default from .pnp/config.yaml or ~/.pnp/site.db)")
	root.PersistentFlags().String("web", "", "server-relative URL of the target web (default from .pnp/config.yaml or /)")
	root.PersistentFlags().String("log-level", "", "console log level: debug, info, warning, error")
	root.PersistentFlags().BoolP("verbose", "v", false, "log template sections no handler knows")
}

// Bootstrap resolves the configuration and hands it to the wire package.
// Should be called once at CLI startup in PersistentPreRunE.
func Bootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(os.Getwd, cmd)
	if err != nil {
		return err
	}
	settings = cfg

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	wire.Configure(wire.Options{
		DatabasePath: dbPath,
		LogLevel:     cfg.LogLevel,
		Verbose:      cfg.Verbose,
	})
	return nil
}

// loadSettings reads the working directory config and applies flag overrides.
func loadSettings(getwd func() (string, error), cmd *cobra.Command) (*config.Config, error) {
	dir, err := getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database, _ = flags.GetString("db")
	}
	if flags.Changed("web") {
		cfg.Web, _ = flags.GetString("web")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}
	return cfg, nil
}

// targetWeb returns the web URL commands operate on.
func targetWeb() string {
	return settings.Web
}

// NewContext creates the context CLI commands run under.
// CLI commands should use this instead of context.Background() directly.
func NewContext() gocontext.Context {
	return gocontext.Background()
}
