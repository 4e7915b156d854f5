package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/pnp/internal/cli"
	"github.com/example/pnp/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "pnp",
		Short:   "pnp - provision site fields and content types from templates",
		Version: version.String(),
		Long: `pnp applies provisioning templates to a site. Templates declare site fields
and content types; tokens such as <<listurl:Documents>> are resolved against
the target web before anything is written.`,
		PersistentPreRunE: cli.Bootstrap,
		SilenceUsage:      true,
	}
	cli.AddGlobalFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.SiteCmd())
	rootCmd.AddCommand(cli.ApplyCmd())
	rootCmd.AddCommand(cli.ValidateCmd())
	rootCmd.AddCommand(cli.TokensCmd())
	rootCmd.AddCommand(cli.LogCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
