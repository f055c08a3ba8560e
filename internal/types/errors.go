package types

import "errors"

// Sentinel errors for predicate binding and evaluation.
var (
	// ErrShape indicates a declarative rule violates an arity or type invariant.
	// Raised while binding, never from evaluation.
	ErrShape = errors.New("invalid rule shape")

	// ErrMalformedExpression indicates an expr clause matches neither the
	// comparison nor the containment grammar.
	ErrMalformedExpression = errors.New("malformed expression")

	// ErrTypeMismatch indicates an ordering operator was applied to
	// incomparable operands.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrPathTooDeep indicates a field path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("field path exceeds maximum depth")

	// ErrInvalidPath indicates field path text could not be split into segments.
	ErrInvalidPath = errors.New("invalid field path")

	// ErrRuleTooDeep indicates nested and/or rules exceed MaxRuleDepth.
	ErrRuleTooDeep = errors.New("rule nesting exceeds maximum depth")

	// ErrRuleNotFound indicates no rule is registered under the requested name.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrRuleExists indicates a stored rule already uses the requested name.
	ErrRuleExists = errors.New("rule already exists")

	// ErrRuleTooLarge indicates a rule definition exceeds MaxRuleSourceSize.
	ErrRuleTooLarge = errors.New("rule definition exceeds maximum size")

	// ErrDocumentTooLarge indicates a document exceeds MaxDocumentSize.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size")
)
