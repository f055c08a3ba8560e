package rules

import (
	"fmt"

	"github.com/solatis/predicates/internal/types"
)

// ShapeError reports a declarative rule that violates an arity or type
// invariant. Path locates the offending node ("rule.args[1]").
type ShapeError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ShapeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %s", types.ErrShape, e.Reason)
	}
	return fmt.Sprintf("%v at %s: %s", types.ErrShape, e.Path, e.Reason)
}

// Unwrap exposes both the ErrShape sentinel and the underlying cause.
func (e *ShapeError) Unwrap() []error {
	if e.Err == nil {
		return []error{types.ErrShape}
	}
	return []error{types.ErrShape, e.Err}
}

// MalformedExpressionError reports an expr clause matching neither the
// comparison nor the containment grammar.
type MalformedExpressionError struct {
	Clause string
}

func (e *MalformedExpressionError) Error() string {
	return fmt.Sprintf("%v: invalid clause %q", types.ErrMalformedExpression, e.Clause)
}

func (e *MalformedExpressionError) Unwrap() error {
	return types.ErrMalformedExpression
}

// TypeMismatchError reports an ordering operator applied to incomparable
// operands. Left is "absent" when the field did not resolve.
type TypeMismatchError struct {
	Clause string
	Op     CompareOp
	Left   string
	Right  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%v: cannot apply %s to %s and %s in %q", types.ErrTypeMismatch, e.Op, e.Left, e.Right, e.Clause)
}

func (e *TypeMismatchError) Unwrap() error {
	return types.ErrTypeMismatch
}
