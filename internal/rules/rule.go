// internal/rules/rule.go
package rules

import (
	"fmt"

	"github.com/solatis/predicates/internal/types"
)

/*
 * Operator tree.
 *
 * Rule is a closed tagged union of Equals, In, And, Or and Expr. The
 * unexported marker method seals the set; Test dispatches with an exhaustive
 * type switch rather than per-variant methods.
 *
 * Construction invariants (enforced by NewAnd/NewOr and the binder):
 *   - And/Or have at least one child
 *   - Nesting depth never exceeds MaxRuleDepth
 *   - Rules are never mutated after construction, so the tree is acyclic and
 *     safe for concurrent Test calls
 *
 * Error policy: Equals and In never fail. And/Or stop at the first child
 * error and return it unchanged. A zero-value And/Or (built without
 * NewAnd/NewOr) or a nil rule is reported as ShapeError, never a match. Expr returns MalformedExpressionError and
 * TypeMismatchError from the expression engine.
 */

// Op is the discriminant of a declarative rule.
type Op string

const (
	OpEquals Op = "equals"
	OpIn     Op = "in"
	OpAnd    Op = "and"
	OpOr     Op = "or"
	OpExpr   Op = "expr"
)

// Rule is one node of the operator tree.
type Rule interface {
	Op() Op
	depth() int
}

// Equals matches when the resolved field equals Value.
type Equals struct {
	Field string
	Value any
}

// In matches when Value is a member of the resolved field.
type In struct {
	Field string
	Value any
}

// And matches when every child matches.
type And struct {
	children []Rule
	height   int
}

// Or matches when any child matches.
type Or struct {
	children []Rule
	height   int
}

// Expr matches when the expression text evaluates to true.
type Expr struct {
	Text string
}

func (*Equals) Op() Op { return OpEquals }
func (*In) Op() Op     { return OpIn }
func (*And) Op() Op    { return OpAnd }
func (*Or) Op() Op     { return OpOr }
func (*Expr) Op() Op   { return OpExpr }

func (*Equals) depth() int { return 1 }
func (*In) depth() int     { return 1 }
func (a *And) depth() int  { return a.height }
func (o *Or) depth() int   { return o.height }
func (*Expr) depth() int   { return 1 }

// NewAnd builds an And node. Returns ShapeError for an empty child list or
// nesting deeper than MaxRuleDepth.
func NewAnd(children ...Rule) (*And, error) {
	height, err := childHeight(OpAnd, children)
	if err != nil {
		return nil, err
	}
	return &And{children: append([]Rule(nil), children...), height: height}, nil
}

// NewOr builds an Or node. Returns ShapeError for an empty child list or
// nesting deeper than MaxRuleDepth.
func NewOr(children ...Rule) (*Or, error) {
	height, err := childHeight(OpOr, children)
	if err != nil {
		return nil, err
	}
	return &Or{children: append([]Rule(nil), children...), height: height}, nil
}

// Children returns a copy of the child rules.
func (a *And) Children() []Rule { return append([]Rule(nil), a.children...) }

// Children returns a copy of the child rules.
func (o *Or) Children() []Rule { return append([]Rule(nil), o.children...) }

// childHeight validates a combinator's children and returns its height.
func childHeight(op Op, children []Rule) (int, error) {
	if len(children) == 0 {
		return 0, &ShapeError{Reason: fmt.Sprintf("%s requires at least one child rule", op)}
	}
	height := 0
	for i, child := range children {
		if child == nil {
			return 0, &ShapeError{Reason: fmt.Sprintf("%s child %d is nil", op, i)}
		}
		if d := child.depth(); d > height {
			height = d
		}
	}
	height++
	if height > types.MaxRuleDepth {
		return 0, &ShapeError{Reason: fmt.Sprintf("nesting depth %d exceeds %d", height, types.MaxRuleDepth), Err: types.ErrRuleTooDeep}
	}
	return height, nil
}

// Test evaluates rule against doc.
func Test(rule Rule, doc any) (bool, error) {
	switch r := rule.(type) {
	case nil:
		return false, errNilRule

	case *Equals:
		if r == nil {
			return false, errNilRule
		}
		value, found := Resolve(doc, r.Field)
		return found && Equal(value, r.Value), nil

	case *In:
		if r == nil {
			return false, errNilRule
		}
		value, found := Resolve(doc, r.Field)
		if !found {
			return false, nil
		}
		in, _ := contains(value, r.Value, false)
		return in, nil

	case *And:
		if r == nil || len(r.children) == 0 {
			return false, emptyCombinator(OpAnd)
		}
		for _, child := range r.children {
			matched, err := Test(child, doc)
			if err != nil {
				return false, err
			}
			if !matched {
				return false, nil
			}
		}
		return true, nil

	case *Or:
		if r == nil || len(r.children) == 0 {
			return false, emptyCombinator(OpOr)
		}
		for _, child := range r.children {
			matched, err := Test(child, doc)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil

	case *Expr:
		if r == nil {
			return false, errNilRule
		}
		return EvaluateExpr(r.Text, doc)

	default:
		panic(fmt.Sprintf("rules: unknown rule variant %T", rule))
	}
}

var errNilRule = &ShapeError{Reason: "rule is nil"}

// emptyCombinator reports an And/Or that has no children.
func emptyCombinator(op Op) error {
	return &ShapeError{Reason: fmt.Sprintf("%s requires at least one child rule", op)}
}
