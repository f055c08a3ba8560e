// internal/rules/evaluate.go
package rules

import (
	"fmt"
	"strings"

	"github.com/solatis/predicates/internal/types"
)

/*
 * Rule evaluation with caller-selected error policy.
 *
 * Test never swallows errors: a malformed expr clause or an ordering
 * comparison on incomparable operands is returned to the caller. Services
 * need a decision instead, so Evaluate applies an OnErrorPolicy:
 *
 *   - skip:  error counts as "no match" (Matched=false, Err recorded)
 *   - match: error counts as "match" (Matched=true, Err recorded)
 *   - fail:  error is returned
 *
 * MatchResult carries the rule identity so batch evaluation can report which
 * rules matched and which could not be evaluated.
 */

// OnErrorPolicy specifies behavior when a rule cannot be evaluated.
type OnErrorPolicy int

const (
	OnErrorSkip OnErrorPolicy = iota
	OnErrorMatch
	OnErrorFail
)

// String returns the configuration spelling of the policy.
func (p OnErrorPolicy) String() string {
	switch p {
	case OnErrorSkip:
		return "skip"
	case OnErrorMatch:
		return "match"
	case OnErrorFail:
		return "fail"
	default:
		return fmt.Sprintf("OnErrorPolicy(%d)", int(p))
	}
}

// ParseOnErrorPolicy parses "skip", "match" or "fail".
func ParseOnErrorPolicy(s string) (OnErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip":
		return OnErrorSkip, nil
	case "match":
		return OnErrorMatch, nil
	case "fail", "error":
		return OnErrorFail, nil
	default:
		return 0, fmt.Errorf("unknown on_error policy %q (expected skip, match or fail)", s)
	}
}

// NamedRule is a bound rule with its identity.
type NamedRule struct {
	RuleID    types.RuleID
	Name      string
	Container *RuleContainer
}

// MatchResult contains the outcome of rule evaluation.
type MatchResult struct {
	Matched  bool
	RuleID   types.RuleID
	RuleName string
	Err      error // evaluation error absorbed by the policy, if any
}

// Evaluate tests rule against doc and applies policy to evaluation errors.
func Evaluate(rule *NamedRule, doc any, policy OnErrorPolicy) (MatchResult, error) {
	result := MatchResult{
		RuleID:   rule.RuleID,
		RuleName: rule.Name,
	}

	matched, err := rule.Container.Test(doc)
	if err != nil {
		if policy == OnErrorFail {
			return result, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		result.Err = err
		result.Matched = applyErrorPolicy(policy)
		return result, nil
	}

	result.Matched = matched
	return result, nil
}

// applyErrorPolicy converts OnErrorPolicy to a boolean match result.
// MATCH -> true, SKIP -> false.
func applyErrorPolicy(policy OnErrorPolicy) bool {
	switch policy {
	case OnErrorMatch:
		return true
	default:
		return false
	}
}
