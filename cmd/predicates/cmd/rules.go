package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/predicates/internal/document"
	"github.com/solatis/predicates/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage stored rules",
}

var rulesAddCmd = &cobra.Command{
	Use:   "add NAME FILE",
	Short: "Validate a rule file and store it under NAME",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesAdd,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rules",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a stored rule definition",
	Long: `Print a stored rule definition.

Without --output the source is printed as stored. With --output the rule is
bound and re-rendered in that format (json, yaml or toml).`,
	Args: cobra.ExactArgs(1),
	RunE:  runRulesShow,
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a stored rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesDelete,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesAddCmd, rulesListCmd, rulesShowCmd, rulesDeleteCmd)
	rulesShowCmd.Flags().String("output", "", "re-render the rule as json, yaml or toml")
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]

	format, err := document.FormatFromPath(path)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rule file: %w", err)
	}

	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	rule, err := store.CreateRule(cmd.Context(), name, format, source)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", rule.Name, rule.RuleID)
	return nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	stored, err := store.ListRules(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRULE ID\tFORMAT\tCREATED")
	for _, r := range stored {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Name, r.RuleID, r.Format, r.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	rule, err := store.GetRule(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		fmt.Fprint(cmd.OutOrStdout(), rule.Source)
		return nil
	}

	format, err := document.ParseFormat(output)
	if err != nil {
		return err
	}
	container, err := rules.Load([]byte(rule.Source), rule.Format)
	if err != nil {
		return fmt.Errorf("rule %s: %w", rule.Name, err)
	}
	data, err := container.Encode(format)
	if err != nil {
		return fmt.Errorf("rule %s: %w", rule.Name, err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runRulesDelete(cmd *cobra.Command, args []string) error {
	database, store, err := openStore()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := store.DeleteRule(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}
