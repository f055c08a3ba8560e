package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/solatis/predicates/internal/types"
)

// Engine holds the active set of named rules.
// Rules are read-only once bound; Replace swaps the whole set so in-flight
// evaluations keep the set they started with.
type Engine struct {
	mu     sync.RWMutex
	rules  map[string]*NamedRule
	policy OnErrorPolicy
	logger *slog.Logger
}

// NewEngine creates a rules engine with the given error policy.
// A nil logger uses slog.Default().
func NewEngine(policy OnErrorPolicy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rules:  make(map[string]*NamedRule),
		policy: policy,
		logger: logger,
	}
}

// Policy returns the engine's error policy.
func (e *Engine) Policy() OnErrorPolicy {
	return e.policy
}

// Replace installs rules as the active set, discarding the previous one.
// Returns an error for duplicate names or nil containers.
func (e *Engine) Replace(rules []*NamedRule) error {
	next := make(map[string]*NamedRule, len(rules))
	for _, r := range rules {
		if r == nil || r.Container == nil || r.Container.Rule == nil {
			return fmt.Errorf("rule has no bound definition")
		}
		if _, exists := next[r.Name]; exists {
			return fmt.Errorf("duplicate rule name %q", r.Name)
		}
		next[r.Name] = r
	}

	e.mu.Lock()
	e.rules = next
	e.mu.Unlock()

	e.logger.Info("rules loaded", slog.Int("count", len(next)))
	return nil
}

// Get returns the named rule.
func (e *Engine) Get(name string) (*NamedRule, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, ok := e.rules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrRuleNotFound, name)
	}
	return r, nil
}

// Names returns the active rule names in sorted order.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.rules))
	for name := range e.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate tests the named rule against doc under the engine's policy.
func (e *Engine) Evaluate(name string, doc any) (MatchResult, error) {
	rule, err := e.Get(name)
	if err != nil {
		return MatchResult{RuleName: name}, err
	}
	return e.evaluate(rule, doc)
}

// EvaluateAll tests every active rule against doc, in name order.
// Under OnErrorFail the first evaluation error stops the batch.
func (e *Engine) EvaluateAll(doc any) ([]MatchResult, error) {
	e.mu.RLock()
	rules := make([]*NamedRule, 0, len(e.rules))
	for _, r := range e.rules {
		rules = append(rules, r)
	}
	e.mu.RUnlock()

	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Name < rules[j].Name
	})

	results := make([]MatchResult, 0, len(rules))
	for _, r := range rules {
		result, err := e.evaluate(r, doc)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (e *Engine) evaluate(rule *NamedRule, doc any) (MatchResult, error) {
	result, err := Evaluate(rule, doc, e.policy)
	if err != nil {
		e.logger.Warn("rule evaluation failed",
			slog.String("rule", rule.Name),
			slog.Any("error", err))
		return result, err
	}
	if result.Err != nil {
		e.logger.Debug("rule evaluation error absorbed by policy",
			slog.String("rule", rule.Name),
			slog.String("policy", e.policy.String()),
			slog.Any("error", result.Err))
	}
	return result, nil
}
