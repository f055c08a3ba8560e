// internal/rules/marshal.go
package rules

import (
	"encoding/json"
	"fmt"

	"github.com/solatis/predicates/internal/document"
	"github.com/solatis/predicates/internal/types"
)

/*
 * Serialization of the operator tree back to rule documents.
 *
 * ToDocument is the inverse of Bind: it renders {"rule": {"op", "args"}}
 * with [field, value] for equals/in, a list of child rules for and/or and
 * the raw text for expr. Binding the result yields an equivalent tree.
 *
 * Numeric values are normalized to int64 or float64 so every encoder emits
 * them as numbers (go-toml would write json.Number as a string).
 */

// ToDocument renders the container as a generic rule document.
func (c *RuleContainer) ToDocument() (map[string]any, error) {
	if c == nil {
		return nil, errNilRule
	}
	node, err := RuleToDocument(c.Rule)
	if err != nil {
		return nil, err
	}
	return map[string]any{"rule": node}, nil
}

// MarshalJSON encodes the container in its declarative document form.
func (c *RuleContainer) MarshalJSON() ([]byte, error) {
	doc, err := c.ToDocument()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Encode renders the container in the given format.
func (c *RuleContainer) Encode(format types.Format) ([]byte, error) {
	doc, err := c.ToDocument()
	if err != nil {
		return nil, err
	}
	return document.Encode(doc, format)
}

// RuleToDocument renders a single rule node as {"op": ..., "args": ...}.
func RuleToDocument(rule Rule) (map[string]any, error) {
	switch r := rule.(type) {
	case nil:
		return nil, errNilRule

	case *Equals:
		if r == nil {
			return nil, errNilRule
		}
		return node(OpEquals, []any{r.Field, literalValue(r.Value)}), nil

	case *In:
		if r == nil {
			return nil, errNilRule
		}
		return node(OpIn, []any{r.Field, literalValue(r.Value)}), nil

	case *And:
		if r == nil || len(r.children) == 0 {
			return nil, emptyCombinator(OpAnd)
		}
		args, err := childDocuments(r.children)
		if err != nil {
			return nil, err
		}
		return node(OpAnd, args), nil

	case *Or:
		if r == nil || len(r.children) == 0 {
			return nil, emptyCombinator(OpOr)
		}
		args, err := childDocuments(r.children)
		if err != nil {
			return nil, err
		}
		return node(OpOr, args), nil

	case *Expr:
		if r == nil {
			return nil, errNilRule
		}
		return node(OpExpr, r.Text), nil

	default:
		return nil, fmt.Errorf("rules: unknown rule variant %T", rule)
	}
}

func node(op Op, args any) map[string]any {
	return map[string]any{"op": string(op), "args": args}
}

func childDocuments(children []Rule) ([]any, error) {
	out := make([]any, 0, len(children))
	for _, child := range children {
		doc, err := RuleToDocument(child)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// literalValue converts json.Number and narrow numeric kinds to int64,
// uint64 or float64.
func literalValue(v any) any {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if b, ok := toBigInt(n); ok && b.IsUint64() {
			return b.Uint64()
		}
		f, _ := n.Float64()
		return f
	}
	if b, ok := toBigInt(v); ok {
		if b.IsInt64() {
			return b.Int64()
		}
		return b.Uint64()
	}
	if f, ok := toFloat64(v); ok {
		return f
	}
	return v
}
