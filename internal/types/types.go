// Package types provides domain models shared across predicates components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only the
// standard library so the rule engine can be embedded without pulling in the
// service stack. ID utilities in ids.go import uuid but are isolated.
package types

// RuleID represents a UUIDv7 identifier for a stored rule.
// String alias enables type safety while maintaining JSON string serialization.
type RuleID string

// Format names a serialization format for rule definitions and documents.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Resource limits enforced by the rule engine to keep evaluation bounded.
const (
	// MaxPathDepth limits the number of segments in a field path.
	// 16 levels handles deeply nested documents ($.a.b.c...) comfortably.
	MaxPathDepth = 16

	// MaxRuleDepth limits and/or nesting so evaluation stack depth stays bounded
	// on adversarial rule trees.
	MaxRuleDepth = 64

	// MaxDocumentSize limits a serialized document accepted over the wire.
	// 1MB allows typical application payloads.
	MaxDocumentSize = 1024 * 1024

	// MaxRuleSourceSize limits the serialized rule definition stored per rule.
	MaxRuleSourceSize = 256 * 1024
)
