package rules

import (
	"errors"
	"testing"

	"github.com/solatis/predicates/internal/types"
)

func namedRule(t *testing.T, name string, rule Rule) *NamedRule {
	t.Helper()
	return &NamedRule{
		RuleID:    types.RuleID("rule-" + name),
		Name:      name,
		Container: &RuleContainer{Rule: rule},
	}
}

func TestEvaluate_Match(t *testing.T) {
	rule := namedRule(t, "active", &Equals{Field: "status", Value: "active"})

	result, err := Evaluate(rule, map[string]any{"status": "active"}, OnErrorFail)
	if err != nil {
		t.Fatalf("Evaluate() error = %v, want nil", err)
	}
	if !result.Matched {
		t.Errorf("Matched = false, want true")
	}
	if result.RuleID != "rule-active" || result.RuleName != "active" {
		t.Errorf("identity = (%v, %v), want (rule-active, active)", result.RuleID, result.RuleName)
	}
	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}
}

func TestEvaluate_ErrorPolicy(t *testing.T) {
	rule := namedRule(t, "broken", &Expr{Text: "$.count > 'ten'"})
	doc := map[string]any{"count": 3}

	tests := []struct {
		name        string
		policy      OnErrorPolicy
		wantMatched bool
		wantErr     bool
	}{
		{"skip", OnErrorSkip, false, false},
		{"match", OnErrorMatch, true, false},
		{"fail", OnErrorFail, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Evaluate(rule, doc, tt.policy)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Evaluate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, types.ErrTypeMismatch) {
					t.Errorf("Evaluate() error = %v, want ErrTypeMismatch", err)
				}
				return
			}
			if result.Matched != tt.wantMatched {
				t.Errorf("Matched = %v, want %v", result.Matched, tt.wantMatched)
			}
			if !errors.Is(result.Err, types.ErrTypeMismatch) {
				t.Errorf("Err = %v, want ErrTypeMismatch recorded", result.Err)
			}
		})
	}
}

func TestParseOnErrorPolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    OnErrorPolicy
		wantErr bool
	}{
		{"skip", OnErrorSkip, false},
		{"MATCH", OnErrorMatch, false},
		{" fail ", OnErrorFail, false},
		{"error", OnErrorFail, false},
		{"ignore", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOnErrorPolicy(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOnErrorPolicy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseOnErrorPolicy(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	for _, p := range []OnErrorPolicy{OnErrorSkip, OnErrorMatch, OnErrorFail} {
		parsed, err := ParseOnErrorPolicy(p.String())
		if err != nil || parsed != p {
			t.Errorf("ParseOnErrorPolicy(%q) = (%v, %v), want %v", p.String(), parsed, err, p)
		}
	}
}
