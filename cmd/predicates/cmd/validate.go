package cmd

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/solatis/predicates/internal/rules"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Check rule files for shape errors",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema for rule files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.OutOrStdout().Write(rules.RuleSchema())
		return err
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	var result *multierror.Error
	for _, path := range args {
		if _, err := rules.LoadFile(path); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", path)
	}
	return result.ErrorOrNil()
}
