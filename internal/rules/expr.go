// internal/rules/expr.go
package rules

import (
	"regexp"
	"strings"
)

/*
 * Expression engine for the expr rule variant.
 *
 * Grammar (flat, left-to-right, no precedence, no parentheses):
 *
 *   expr        := clause ( LOGOP clause )*
 *   LOGOP       := " AND " | " OR "            (case-insensitive)
 *   clause      := containment | comparison
 *   containment := literal WS ("IN" | "NOT" WS "IN") WS "$." path
 *                  (literal is one quoted string or one whitespace-free token)
 *   comparison  := "$." path WS? ("=="|"!="|">="|"<="|">"|"<") WS? literal
 *
 * Evaluation flow:
 *   1. splitLogical scans once, toggling a quote flag on ' and ", and cuts on
 *      " AND " / " OR " windows outside quotes
 *   2. Each clause tries containment first, then comparison
 *   3. Clauses fold left-to-right: "A OR B AND C" is "(A OR B) AND C"
 *
 * Short-circuit: an AND clause is skipped while the running result is false,
 * an OR clause is skipped while it is true. Skipped clauses are never
 * evaluated, so they cannot raise; the fold still consumes every operator.
 *
 * Absent fields: IN is false and NOT IN is true; == is false and != is true;
 * ordering operators raise TypeMismatchError.
 */

// LogicalOp joins two clauses of an expression.
type LogicalOp string

const (
	LogicalAnd LogicalOp = "AND"
	LogicalOr  LogicalOp = "OR"
)

var (
	containmentPattern = regexp.MustCompile(`(?is)^('[^']*'|"[^"]*"|\S+)\s+(NOT\s+IN|IN)\s+\$\.([\p{L}\p{N}_.\[\]-]+)$`)
	comparisonPattern  = regexp.MustCompile(`(?s)^\$\.([\p{L}\p{N}_.\[\]-]+)\s*(==|!=|>=|<=|>|<)\s*(.+)$`)
)

// EvaluateExpr evaluates expression text against doc.
func EvaluateExpr(text string, doc any) (bool, error) {
	clauses, ops := splitLogical(text)

	result, err := evaluateClause(clauses[0], doc)
	if err != nil {
		return false, err
	}

	for i, op := range ops {
		switch op {
		case LogicalAnd:
			if !result {
				continue
			}
		case LogicalOr:
			if result {
				continue
			}
		}
		result, err = evaluateClause(clauses[i+1], doc)
		if err != nil {
			return false, err
		}
	}

	return result, nil
}

// splitLogical cuts text on " AND " / " OR " outside quoted substrings.
// Always returns len(ops)+1 clauses.
func splitLogical(text string) ([]string, []LogicalOp) {
	var clauses []string
	var ops []LogicalOp

	inQuotes := false
	last := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\'' || c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes || c != ' ' {
			continue
		}
		switch {
		case i+5 <= len(text) && strings.EqualFold(text[i:i+5], " AND "):
			clauses = append(clauses, text[last:i])
			ops = append(ops, LogicalAnd)
			last = i + 5
			i += 3
		case i+4 <= len(text) && strings.EqualFold(text[i:i+4], " OR "):
			clauses = append(clauses, text[last:i])
			ops = append(ops, LogicalOr)
			last = i + 4
			i += 2
		}
	}

	clauses = append(clauses, text[last:])
	return clauses, ops
}

// evaluateClause evaluates a single containment or comparison clause.
func evaluateClause(clause string, doc any) (bool, error) {
	clause = strings.TrimSpace(clause)

	if m := containmentPattern.FindStringSubmatch(clause); m != nil {
		return evaluateContainment(m[1], m[2], m[3], doc), nil
	}

	m := comparisonPattern.FindStringSubmatch(clause)
	if m == nil {
		return false, &MalformedExpressionError{Clause: clause}
	}
	return evaluateComparison(clause, m[1], CompareOp(m[2]), m[3], doc)
}

// evaluateContainment applies IN / NOT IN.
// Absent and non-iterable fields make IN false and NOT IN true.
func evaluateContainment(literal, operator, path string, doc any) bool {
	negate := strings.Contains(strings.ToUpper(operator), "NOT")
	needle := DecodeLiteral(literal)

	haystack, found := Resolve(doc, path)
	if !found {
		return negate
	}

	in, iterable := contains(haystack, needle, true)
	if !iterable {
		return negate
	}
	return in != negate
}

// evaluateComparison applies ==, !=, >, <, >=, <=.
func evaluateComparison(clause, path string, op CompareOp, literal string, doc any) (bool, error) {
	target := DecodeLiteral(literal)
	value, found := Resolve(doc, path)

	switch op {
	case OpEq:
		return found && Equal(value, target), nil
	case OpNeq:
		return !found || !Equal(value, target), nil
	}

	if !found {
		return false, &TypeMismatchError{Clause: clause, Op: op, Left: "absent", Right: describeType(target)}
	}
	cmp, ok := compareOrdered(value, target)
	if !ok {
		return false, &TypeMismatchError{Clause: clause, Op: op, Left: describeType(value), Right: describeType(target)}
	}
	return applyOrdering(op, cmp), nil
}
