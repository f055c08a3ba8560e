// internal/rules/bind.go
package rules

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/solatis/predicates/internal/document"
	"github.com/solatis/predicates/internal/types"
)

/*
 * Schema binding from generic documents to the operator tree.
 *
 * Binds {"rule": {"op": ..., "args": ...}} documents decoded from JSON, YAML
 * or TOML into a RuleContainer. Malformed input never reaches the operator
 * tree as a half-built node.
 *
 * Binding workflow:
 *   1. Validate against the embedded JSON schema (discriminant, arity,
 *      literal types, non-empty and/or, non-empty expr)
 *   2. Build typed nodes bottom-up, validating field paths with ParsePath
 *      and nesting depth against MaxRuleDepth
 *   3. Aggregate every violation found in step 2 with go-multierror so one
 *      pass reports all bad paths in a rule file
 *
 * Expr text is kept opaque; clauses are parsed at evaluation time.
 */

// Bind converts a decoded rule container document into a RuleContainer.
func Bind(doc any) (*RuleContainer, error) {
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	root, ok := doc.(map[string]any)
	if !ok {
		return nil, &ShapeError{Reason: "rule container must be a mapping"}
	}

	rule, err := bindRule(root["rule"], "rule", 1)
	if err != nil {
		return nil, err
	}
	return &RuleContainer{Rule: rule}, nil
}

// BindRule converts a single decoded rule node (without the container
// wrapper) into a Rule.
func BindRule(node any) (Rule, error) {
	container, err := Bind(map[string]any{"rule": node})
	if err != nil {
		return nil, err
	}
	return container.Rule, nil
}

// Load decodes data in the given format and binds it.
func Load(data []byte, format types.Format) (*RuleContainer, error) {
	doc, err := document.Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("decode rule: %w", err)
	}
	return Bind(doc)
}

// LoadFile reads, decodes and binds a rule file, detecting format by extension.
func LoadFile(path string) (*RuleContainer, error) {
	doc, err := document.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("decode rule file: %w", err)
	}
	container, err := Bind(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return container, nil
}

// bindRule builds one node. level is the nesting level of node (root = 1).
func bindRule(node any, path string, level int) (Rule, error) {
	m, ok := node.(map[string]any)
	if !ok {
		return nil, &ShapeError{Path: path, Reason: "rule must be a mapping"}
	}
	op, _ := m["op"].(string)
	args := m["args"]
	argsPath := path + ".args"

	switch Op(op) {
	case OpEquals:
		field, value, err := bindPair(args, argsPath)
		if err != nil {
			return nil, err
		}
		return &Equals{Field: field, Value: value}, nil

	case OpIn:
		field, value, err := bindPair(args, argsPath)
		if err != nil {
			return nil, err
		}
		return &In{Field: field, Value: value}, nil

	case OpAnd, OpOr:
		return bindCombinator(Op(op), args, argsPath, level)

	case OpExpr:
		text, ok := args.(string)
		if !ok || text == "" {
			return nil, &ShapeError{Path: argsPath, Reason: "expr requires a non-empty string"}
		}
		return &Expr{Text: text}, nil

	default:
		return nil, &ShapeError{Path: path + ".op", Reason: fmt.Sprintf("unknown operator %q", op)}
	}
}

// bindCombinator builds an and/or node, collecting all child errors.
func bindCombinator(op Op, args any, path string, level int) (Rule, error) {
	items, ok := args.([]any)
	if !ok || len(items) == 0 {
		return nil, &ShapeError{Path: path, Reason: fmt.Sprintf("%s requires a non-empty list of rules", op)}
	}
	if level >= types.MaxRuleDepth {
		return nil, &ShapeError{Path: path, Reason: fmt.Sprintf("nesting exceeds %d levels", types.MaxRuleDepth), Err: types.ErrRuleTooDeep}
	}

	var result *multierror.Error
	children := make([]Rule, 0, len(items))
	for i, item := range items {
		child, err := bindRule(item, fmt.Sprintf("%s[%d]", path, i), level+1)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		children = append(children, child)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	if op == OpAnd {
		return NewAnd(children...)
	}
	return NewOr(children...)
}

// bindPair validates [field, value] arguments of equals/in.
func bindPair(args any, path string) (string, any, error) {
	pair, ok := args.([]any)
	if !ok || len(pair) != 2 {
		return "", nil, &ShapeError{Path: path, Reason: "expected [field, value]"}
	}

	field, ok := pair[0].(string)
	if !ok || field == "" {
		return "", nil, &ShapeError{Path: path + "[0]", Reason: "field must be a non-empty string"}
	}
	if _, err := ParsePath(field); err != nil {
		return "", nil, &ShapeError{Path: path + "[0]", Reason: fmt.Sprintf("invalid field path %q", field), Err: err}
	}

	if !isLiteral(pair[1]) {
		return "", nil, &ShapeError{Path: path + "[1]", Reason: fmt.Sprintf("value must be null, boolean, number or string, got %s", describeType(pair[1]))}
	}

	return field, pair[1], nil
}

// isLiteral reports whether v is a scalar literal.
func isLiteral(v any) bool {
	if _, ok := toFloat64(v); ok {
		return true
	}
	switch v.(type) {
	case nil, bool, string:
		return true
	default:
		return false
	}
}
