// internal/rules/literal.go
package rules

import (
	"strconv"
	"strings"
)

/*
 * Restricted literal decoding for the expr sub-language.
 *
 * Decodes the literal side of a clause into a document scalar:
 *   - Quoted strings: 'text' or "text" (backslash escapes honoured inside
 *     double quotes via strconv.Unquote)
 *   - Decimal integers and floats: 42, -1, 3.14, 1e3
 *   - Booleans: True/False, true/false
 *   - Null: None, null, nil
 *   - Anything else: the raw trimmed text as a string
 *
 * This is a pure textual/numeric parser. Nothing in a literal is ever
 * evaluated; unparseable text falls back to a plain string.
 */

// DecodeLiteral decodes literal text into nil, bool, int64, float64 or string.
func DecodeLiteral(text string) any {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if s, ok := decodeQuoted(text); ok {
		return s
	}

	switch text {
	case "True", "true":
		return true
	case "False", "false":
		return false
	case "None", "null", "nil":
		return nil
	}

	if n, ok := decodeNumber(text); ok {
		return n
	}

	return text
}

// decodeQuoted strips matching single or double quotes.
func decodeQuoted(text string) (string, bool) {
	if len(text) < 2 {
		return "", false
	}
	q := text[0]
	if (q != '\'' && q != '"') || text[len(text)-1] != q {
		return "", false
	}
	inner := text[1 : len(text)-1]
	if strings.IndexByte(inner, q) >= 0 && !strings.Contains(inner, `\`) {
		// 'a' == 'b' is two literals, not one
		return "", false
	}
	if q == '"' {
		if s, err := strconv.Unquote(text); err == nil {
			return s, true
		}
	}
	return inner, true
}

// decodeNumber parses decimal integers and floats.
// Integers that overflow int64 fall through to float64.
func decodeNumber(text string) (any, bool) {
	if !looksNumeric(text) {
		return nil, false
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, true
	}
	return nil, false
}

// looksNumeric rejects strconv spellings that are not decimal literals
// (Inf, NaN, hex, underscores).
func looksNumeric(text string) bool {
	digits := 0
	for i, r := range text {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-' || r == '+':
			if i != 0 && text[i-1] != 'e' && text[i-1] != 'E' {
				return false
			}
		case r == '.' || r == 'e' || r == 'E':
		default:
			return false
		}
	}
	return digits > 0
}
