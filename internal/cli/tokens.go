package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/pnp/internal/ports/primary"
	"github.com/example/pnp/internal/wire"
)

// TokensCmd returns the tokens command
func TokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Inspect provisioning tokens",
		Long:  "List the tokens discovered for a web and substitute them into arbitrary text",
	}
	cmd.AddCommand(tokensListCmd())
	cmd.AddCommand(tokensParseCmd())
	return cmd
}

func tokensListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			templatePath, _ := cmd.Flags().GetString("template")

			_, err := wire.TokenAdapter().List(NewContext(), primary.TokenRequest{
				WebURL:       targetWeb(),
				TemplatePath: templatePath,
			})
			return err
		},
	}
	cmd.Flags().StringP("template", "t", "", "template whose parameters are added as tokens")
	return cmd
}

func tokensParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <text>",
		Short: "Substitute tokens in text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			templatePath, _ := cmd.Flags().GetString("template")
			skip, _ := cmd.Flags().GetStringSlice("skip")

			_, err := wire.TokenAdapter().Parse(NewContext(), primary.TokenRequest{
				WebURL:       targetWeb(),
				TemplatePath: templatePath,
				Input:        args[0],
				Skip:         skip,
			})
			return err
		},
	}
	cmd.Flags().StringP("template", "t", "", "template whose parameters are added as tokens")
	cmd.Flags().StringSlice("skip", nil, "token patterns to leave untouched")
	return cmd
}
