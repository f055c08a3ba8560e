package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solatis/predicates/internal/document"
	"github.com/solatis/predicates/internal/rules"
	"github.com/solatis/predicates/internal/types"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a rule file against a document",
	Long: `Evaluate a rule file against a document and print true or false.

The document is read from --document, or from stdin when --document is "-"
(use --document-format to name its format). Evaluation errors follow the
engine.on_error policy: skip prints false, match prints true, fail exits
non-zero.`,
	Example: `  predicates eval --rule urgent.yaml --document event.json
  cat event.json | predicates eval --rule urgent.yaml --document - --on-error fail`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().String("rule", "", "rule definition file (.json, .yaml, .toml)")
	evalCmd.Flags().String("document", "", `document file, or "-" for stdin`)
	evalCmd.Flags().String("document-format", "json", "format of a document read from stdin")
	evalCmd.Flags().String("on-error", "", "override engine.on_error (skip, match, fail)")
	_ = evalCmd.MarkFlagRequired("rule")
	_ = evalCmd.MarkFlagRequired("document")
}

func runEval(cmd *cobra.Command, args []string) error {
	rulePath, _ := cmd.Flags().GetString("rule")
	docPath, _ := cmd.Flags().GetString("document")

	policy := cfg.Engine.OnError
	if cmd.Flags().Changed("on-error") {
		value, _ := cmd.Flags().GetString("on-error")
		parsed, err := rules.ParseOnErrorPolicy(value)
		if err != nil {
			return err
		}
		policy = parsed
	}

	container, err := rules.LoadFile(rulePath)
	if err != nil {
		return err
	}

	doc, err := readDocument(cmd, docPath)
	if err != nil {
		return err
	}

	rule := &rules.NamedRule{
		Name:      strings.TrimSuffix(filepath.Base(rulePath), filepath.Ext(rulePath)),
		Container: container,
	}
	result, err := rules.Evaluate(rule, doc, policy)
	if err != nil {
		return err
	}
	if result.Err != nil {
		slog.Warn("rule evaluation error absorbed by policy",
			slog.String("rule", rule.Name),
			slog.String("policy", policy.String()),
			slog.Any("error", result.Err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Matched)
	return nil
}

// readDocument decodes the document at path, or stdin for "-".
func readDocument(cmd *cobra.Command, path string) (any, error) {
	if path != "-" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
		if info.Size() > int64(cfg.Server.MaxDocumentSize) {
			return nil, fmt.Errorf("%w: max %d bytes", types.ErrDocumentTooLarge, cfg.Server.MaxDocumentSize)
		}
		return document.DecodeFile(path)
	}

	name, _ := cmd.Flags().GetString("document-format")
	format, err := document.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), int64(cfg.Server.MaxDocumentSize)+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(data) > cfg.Server.MaxDocumentSize {
		return nil, fmt.Errorf("%w: max %d bytes", types.ErrDocumentTooLarge, cfg.Server.MaxDocumentSize)
	}
	return document.Decode(data, format)
}
