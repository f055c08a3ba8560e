// internal/rules/operators.go
package rules

import (
	"encoding/json"
	"math"
	"math/big"
	"strings"
)

/*
 * Operator comparison logic.
 *
 * Implements structural equality, ordering and membership shared by the
 * declarative operators (Equals, In) and the expr sub-language.
 *
 * Equality rules:
 *   - Numbers compare by numeric value across Go numeric kinds (JSON decodes
 *     float64 or json.Number, YAML decodes int, TOML decodes int64). Two
 *     integers compare exactly; float64 is used only when either side is
 *     fractional, so integers above 2^53 stay distinct
 *   - Strings compare by exact content
 *   - Booleans are distinct from numbers
 *   - nil only equals nil
 *   - Sequences and mappings compare element-wise
 *
 * Ordering: numbers against numbers, strings against strings. Every other
 * pairing is incomparable and reported as ok=false; callers turn that into
 * TypeMismatchError.
 *
 * Membership: sequences by element equality, strings by substring (string
 * needle only). Mapping key membership is opt-in for the expr sub-language.
 */

// CompareOp names a comparison operator of the expr sub-language.
type CompareOp string

const (
	OpEq  CompareOp = "=="
	OpNeq CompareOp = "!="
	OpGt  CompareOp = ">"
	OpLt  CompareOp = "<"
	OpGte CompareOp = ">="
	OpLte CompareOp = "<="
)

// Equal performs structural equality with numeric type coercion.
func Equal(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		cmp, ok := compareNumbers(a, b)
		return ok && cmp == 0
	}

	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, aval := range av {
			bval, ok := bv[k]
			if !ok || !Equal(aval, bval) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// compareOrdered performs three-way comparison (-1/0/1).
// ok is false for incomparable operands.
func compareOrdered(a, b any) (int, bool) {
	if isNumber(a) && isNumber(b) {
		return compareNumbers(a, b)
	}

	as, oka := a.(string)
	bs, okb := b.(string)
	if oka && okb {
		return strings.Compare(as, bs), true
	}

	return 0, false
}

// applyOrdering applies an ordering operator to a three-way comparison result.
func applyOrdering(op CompareOp, cmp int) bool {
	switch op {
	case OpGt:
		return cmp > 0
	case OpLt:
		return cmp < 0
	case OpGte:
		return cmp >= 0
	case OpLte:
		return cmp <= 0
	default:
		return false
	}
}

// contains tests membership of needle in haystack.
// iterable is false when haystack supports no membership test at all.
func contains(haystack, needle any, mappingKeys bool) (found bool, iterable bool) {
	switch h := haystack.(type) {
	case []any:
		for _, elem := range h {
			if Equal(elem, needle) {
				return true, true
			}
		}
		return false, true
	case string:
		s, ok := needle.(string)
		if !ok {
			return false, false
		}
		return strings.Contains(h, s), true
	case map[string]any:
		if !mappingKeys {
			return false, false
		}
		s, ok := needle.(string)
		if !ok {
			return false, false
		}
		_, found := h[s]
		return found, true
	default:
		return false, false
	}
}

// isNumber reports whether v is a numeric document value.
func isNumber(v any) bool {
	_, ok := toFloat64(v)
	return ok
}

// compareNumbers performs three-way comparison of two numbers. Integers are
// compared exactly; anything fractional falls back to float64. ok is false
// when either side is NaN.
func compareNumbers(a, b any) (int, bool) {
	if ia, ok := toBigInt(a); ok {
		if ib, ok := toBigInt(b); ok {
			return ia.Cmp(ib), true
		}
	}

	na, _ := toFloat64(a)
	nb, _ := toFloat64(b)
	if math.IsNaN(na) || math.IsNaN(nb) {
		return 0, false
	}
	switch {
	case na < nb:
		return -1, true
	case na > nb:
		return 1, true
	default:
		return 0, true
	}
}

// toBigInt converts integer kinds, and json.Number holding an integer, to an
// exact big.Int. Floats are never integers here, even when whole.
func toBigInt(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case int:
		return big.NewInt(int64(n)), true
	case int8:
		return big.NewInt(int64(n)), true
	case int16:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return big.NewInt(i), true
		}
		return new(big.Int).SetString(n.String(), 10)
	default:
		return nil, false
	}
}

// toFloat64 converts value to float64 if it's a numeric type.
// Booleans are not numbers.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// describeType names the document type of v for error messages.
func describeType(v any) string {
	if _, ok := toFloat64(v); ok {
		return "number"
	}
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "sequence"
	case map[string]any:
		return "mapping"
	default:
		return "unknown"
	}
}
