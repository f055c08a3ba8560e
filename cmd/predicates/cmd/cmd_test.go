package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/predicates/internal/types"
)

const urgentYAML = `
rule:
  op: and
  args:
    - op: equals
      args: [status, active]
    - op: expr
      args: "$.priority > 5 OR 'urgent' IN $.tags"
`

// run executes the root command with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEval(t *testing.T) {
	dir := t.TempDir()
	rule := writeFile(t, dir, "urgent.yaml", urgentYAML)
	match := writeFile(t, dir, "match.json", `{"status": "active", "priority": 9, "tags": []}`)
	miss := writeFile(t, dir, "miss.toml", "status = \"closed\"\npriority = 9\n")

	out, err := run(t, "", "eval", "--rule", rule, "--document", match, "--on-error", "skip")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = run(t, "", "eval", "--rule", rule, "--document", miss, "--on-error", "skip")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)

	out, err = run(t, "status: active\ntags: [urgent]\npriority: 1\n",
		"eval", "--rule", rule, "--document", "-", "--document-format", "yaml", "--on-error", "skip")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestEval_ErrorPolicy(t *testing.T) {
	dir := t.TempDir()
	rule := writeFile(t, dir, "cmp.json", `{"rule": {"op": "expr", "args": "$.name > 5"}}`)
	doc := writeFile(t, dir, "doc.json", `{"name": "alice"}`)

	out, err := run(t, "", "eval", "--rule", rule, "--document", doc, "--on-error", "skip")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)

	out, err = run(t, "", "eval", "--rule", rule, "--document", doc, "--on-error", "match")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	_, err = run(t, "", "eval", "--rule", rule, "--document", doc, "--on-error", "fail")
	assert.ErrorIs(t, err, types.ErrTypeMismatch)
}

func TestEval_DocumentFileTooLarge(t *testing.T) {
	t.Setenv("PRED_SERVER_MAX_DOCUMENT_SIZE", "16")
	dir := t.TempDir()
	rule := writeFile(t, dir, "urgent.yaml", urgentYAML)
	doc := writeFile(t, dir, "big.json", `{"status": "active", "priority": 9, "tags": []}`)

	_, err := run(t, "", "eval", "--rule", rule, "--document", doc, "--on-error", "skip")
	assert.ErrorIs(t, err, types.ErrDocumentTooLarge)

	_, err = run(t, `{"status": "active", "priority": 9, "tags": []}`,
		"eval", "--rule", rule, "--document", "-", "--document-format", "json", "--on-error", "skip")
	assert.ErrorIs(t, err, types.ErrDocumentTooLarge)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", urgentYAML)
	bad1 := writeFile(t, dir, "bad1.json", `{"rule": {"op": "or", "args": []}}`)
	bad2 := writeFile(t, dir, "bad2.json", `{"rule": {"op": "equals", "args": ["a"]}}`)

	out, err := run(t, "", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "ok "+good)

	out, err = run(t, "", "validate", good, bad1, bad2)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrShape)
	assert.Contains(t, err.Error(), bad1)
	assert.Contains(t, err.Error(), bad2)
	assert.Contains(t, out, "ok "+good)
}

func TestSchema(t *testing.T) {
	out, err := run(t, "", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"$schema"`)
}

func TestRulesLifecycle(t *testing.T) {
	dir := t.TempDir()
	dbFlag := "sqlite://" + filepath.Join(dir, "rules.db")
	rule := writeFile(t, dir, "urgent.yaml", urgentYAML)

	out, err := run(t, "", "migrate", "--db-url", dbFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "001_initial_schema.sql")
	assert.Contains(t, out, "applied")

	out, err = run(t, "", "rules", "add", "urgent", rule, "--db-url", dbFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "created urgent")

	_, err = run(t, "", "rules", "add", "urgent", rule, "--db-url", dbFlag)
	assert.ErrorIs(t, err, types.ErrRuleExists)

	out, err = run(t, "", "rules", "list", "--db-url", dbFlag)
	require.NoError(t, err)
	assert.Contains(t, out, "urgent")
	assert.Contains(t, out, "yaml")

	out, err = run(t, "", "rules", "show", "urgent", "--db-url", dbFlag)
	require.NoError(t, err)
	assert.Equal(t, urgentYAML, out)

	out, err = run(t, "", "rules", "show", "urgent", "--output", "json", "--db-url", dbFlag)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rule": {"op": "and", "args": [
		{"op": "equals", "args": ["status", "active"]},
		{"op": "expr", "args": "$.priority > 5 OR 'urgent' IN $.tags"}
	]}}`, out)

	_, err = run(t, "", "rules", "show", "urgent", "--output", "xml", "--db-url", dbFlag)
	assert.Error(t, err)

	_, err = run(t, "", "rules", "delete", "urgent", "--db-url", dbFlag)
	require.NoError(t, err)

	_, err = run(t, "", "rules", "delete", "urgent", "--db-url", dbFlag)
	assert.ErrorIs(t, err, types.ErrRuleNotFound)
}
