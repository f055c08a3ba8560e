// internal/rules/fieldpath.go
package rules

import (
	"strconv"
	"strings"

	"github.com/solatis/predicates/internal/types"
)

/*
 * Field path resolution for generic documents.
 *
 * Resolves dot/bracket paths ("user.tags[0]", "$.a.b[0][1]") through nested
 * mappings and sequences. Resolution is total: every failure (missing key,
 * out-of-range index, type mismatch, malformed path text) yields Absent,
 * reported as found=false, and never an error or panic.
 *
 * Key functions:
 *   - ParsePath: Splits path text into PathSegment chain (used at bind time,
 *     enforces MaxPathDepth)
 *   - Resolve: Parses and traverses in one step, Absent on any failure. No
 *     depth limit applies here, so values nested arbitrarily deep resolve
 *   - ResolveSegments: Traverses an already-parsed PathSegment chain
 *
 * Root marker: "$." (and bare "$") is stripped before segment parsing so the
 * expr sub-language and declarative rules share one resolver.
 */

// ParsePath splits path text into segments.
// Returns ErrInvalidPath for empty segments or unbalanced brackets and
// ErrPathTooDeep if the path exceeds MaxPathDepth.
func ParsePath(path string) ([]types.PathSegment, error) {
	return parsePath(path, types.MaxPathDepth)
}

// parsePath splits path text into segments. maxDepth <= 0 means unlimited.
func parsePath(path string, maxDepth int) ([]types.PathSegment, error) {
	path = stripRoot(path)
	if path == "" {
		return nil, nil
	}

	var segments []types.PathSegment
	for _, part := range strings.Split(path, ".") {
		segs, err := parseSegment(part, len(segments) == 0)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segs...)
		if maxDepth > 0 && len(segments) > maxDepth {
			return nil, types.ErrPathTooDeep
		}
	}

	return segments, nil
}

// stripRoot removes the "$." or bare "$" root marker.
func stripRoot(path string) string {
	path = strings.TrimSpace(path)
	if path == "$" {
		return ""
	}
	return strings.TrimPrefix(path, "$.")
}

// parseSegment parses "key", "key[0]", "key[0][1]" or, for the first
// segment only, "[0]" (index into a root sequence).
func parseSegment(part string, first bool) ([]types.PathSegment, error) {
	key := part
	rest := ""
	if i := strings.IndexByte(part, '['); i >= 0 {
		key, rest = part[:i], part[i:]
	}
	if strings.ContainsAny(key, "]") {
		return nil, types.ErrInvalidPath
	}

	var segments []types.PathSegment
	switch {
	case key != "":
		segments = append(segments, types.PathSegment{Key: key})
	case rest == "" || !first:
		return nil, types.ErrInvalidPath
	}

	for rest != "" {
		if rest[0] != '[' {
			return nil, types.ErrInvalidPath
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, types.ErrInvalidPath
		}
		idx, err := strconv.Atoi(strings.TrimSpace(rest[1:end]))
		if err != nil {
			return nil, types.ErrInvalidPath
		}
		segments = append(segments, types.PathSegment{Index: idx, IsIndex: true})
		rest = rest[end+1:]
	}

	return segments, nil
}

// Resolve looks up path in doc. The boolean is false when the path is Absent,
// including when path text is malformed.
func Resolve(doc any, path string) (any, bool) {
	segments, err := parsePath(path, 0)
	if err != nil {
		return nil, false
	}
	return ResolveSegments(doc, segments)
}

// ResolveSegments traverses doc following segments.
// Iterative, so resolution depth never grows the stack.
func ResolveSegments(doc any, segments []types.PathSegment) (any, bool) {
	current := doc
	for _, seg := range segments {
		switch v := current.(type) {
		case map[string]any:
			if seg.IsIndex {
				// Cannot index into mapping with integer
				return nil, false
			}
			val, ok := v[seg.Key]
			if !ok {
				return nil, false
			}
			current = val

		case []any:
			if !seg.IsIndex {
				// Cannot use string key on sequence
				return nil, false
			}
			if seg.Index < 0 || seg.Index >= len(v) {
				return nil, false
			}
			current = v[seg.Index]

		default:
			// Null or scalar value but path continues
			return nil, false
		}
	}
	return current, true
}

// FormatPath renders segments back to path text.
func FormatPath(segments []types.PathSegment) string {
	var b strings.Builder
	for i, seg := range segments {
		if seg.IsIndex {
			b.WriteString("[" + strconv.Itoa(seg.Index) + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.Key)
	}
	return b.String()
}
