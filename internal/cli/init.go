package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/pnp/internal/config"
	"github.com/example/pnp/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a pnp working directory",
		Long: `Write .pnp/config.yaml in the current directory and create the sqlite site
database with the required schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			if _, err := os.Stat(filepath.Join(dir, ".pnp", "config.yaml")); errors.Is(err, os.ErrNotExist) {
				if err := config.SaveConfig(dir, settings); err != nil {
					return err
				}
				fmt.Println("✓ Config written to .pnp/config.yaml")
			}

			dbPath, err := db.GetDBPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}
			fmt.Printf("Initializing site database at %s\n", dbPath)

			if _, err := db.GetDB(); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			fmt.Println("✓ Database initialized successfully")
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  pnp site seed")
			fmt.Println("  pnp apply template.json")

			return nil
		},
	}
}
