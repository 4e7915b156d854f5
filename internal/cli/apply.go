package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/pnp/internal/ports/primary"
	"github.com/example/pnp/internal/wire"
)

// ApplyCmd returns the apply command
func ApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <template>",
		Short: "Provision a template onto the target web",
		Long: `Reconcile the target web against a JSON template. Site fields and content
types are created or updated so that a second run commits nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.ProvisioningAdapter().Apply(NewContext(), primary.ApplyRequest{
				TemplatePath: args[0],
				WebURL:       targetWeb(),
			})
			return err
		},
	}
}

// ValidateCmd returns the validate command
func ValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <template>",
		Short: "Check a template against the template schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ProvisioningAdapter().Validate(NewContext(), args[0])
		},
	}
}
