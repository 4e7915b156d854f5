package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/pnp/internal/db"
)

// SiteCmd returns the site command
func SiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Manage the local sqlite site",
	}
	cmd.AddCommand(siteSeedCmd())
	return cmd
}

func siteSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo site",
		Long: `Load a demo site into an empty database: a root web with a /projects sub web,
the built-in Item, Document and Folder content types, a default term store
and the owner, member and visitor groups.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.GetDB()
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			if err := db.SeedFixtures(database); err != nil {
				return fmt.Errorf("failed to seed site: %w", err)
			}
			fmt.Println("✓ Demo site loaded")
			return nil
		},
	}
}
