package rules

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/predicates/internal/types"
)

func mustAnd(t *testing.T, children ...Rule) *And {
	t.Helper()
	r, err := NewAnd(children...)
	if err != nil {
		t.Fatalf("NewAnd() error = %v", err)
	}
	return r
}

func mustOr(t *testing.T, children ...Rule) *Or {
	t.Helper()
	r, err := NewOr(children...)
	if err != nil {
		t.Fatalf("NewOr() error = %v", err)
	}
	return r
}

func TestTest_Declarative(t *testing.T) {
	doc := mustDecode(t, `{
		"foo": {"bar": "World", "list": ["a", 2, true], "map": {"k": 1}},
		"status": "active",
		"count": 3,
		"none": null
	}`)

	tests := []struct {
		name     string
		rule     Rule
		expected bool
	}{
		{"equals string", &Equals{Field: "status", Value: "active"}, true},
		{"equals numeric across kinds", &Equals{Field: "count", Value: 3.0}, true},
		{"equals with root marker", &Equals{Field: "$.foo.bar", Value: "World"}, true},
		{"equals mismatch", &Equals{Field: "status", Value: "inactive"}, false},
		{"equals absent", &Equals{Field: "missing", Value: nil}, false},
		{"equals explicit null", &Equals{Field: "none", Value: nil}, true},
		{"equals bool is not number", &Equals{Field: "foo.list[2]", Value: 1}, false},
		{"in substring", &In{Field: "foo.bar", Value: "W"}, true},
		{"in substring missing", &In{Field: "foo.bar", Value: "Z"}, false},
		{"in sequence", &In{Field: "foo.list", Value: int64(2)}, true},
		{"in sequence boolean", &In{Field: "foo.list", Value: true}, true},
		{"in sequence missing", &In{Field: "foo.list", Value: "b"}, false},
		{"in mapping is false", &In{Field: "foo.map", Value: "k"}, false},
		{"in number is false", &In{Field: "count", Value: 3}, false},
		{"in null is false", &In{Field: "none", Value: "x"}, false},
		{"in absent is false", &In{Field: "missing", Value: "x"}, false},
		{"expr", &Expr{Text: "$.count >= 3 AND 'a' IN $.foo.list"}, true},
		{
			"and all true",
			mustAnd(t, &Equals{Field: "status", Value: "active"}, &In{Field: "foo.bar", Value: "Wor"}),
			true,
		},
		{
			"and one false",
			mustAnd(t, &Equals{Field: "status", Value: "active"}, &In{Field: "foo.bar", Value: "Z"}),
			false,
		},
		{
			"or one true",
			mustOr(t, &Equals{Field: "status", Value: "gone"}, &Equals{Field: "count", Value: 3}),
			true,
		},
		{
			"or none true",
			mustOr(t, &Equals{Field: "status", Value: "gone"}, &Equals{Field: "count", Value: 4}),
			false,
		},
		{
			"nested combinators",
			mustAnd(t,
				mustOr(t, &Equals{Field: "status", Value: "gone"}, &In{Field: "foo.list", Value: "a"}),
				&Expr{Text: "$.foo.map.k == 1"},
			),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Test(tt.rule, doc)
			if err != nil {
				t.Fatalf("Test() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("Test() = %v, expected %v", got, tt.expected)
			}
			if container := (&RuleContainer{Rule: tt.rule}); mustTest(t, container, doc) != got {
				t.Errorf("RuleContainer.Test() disagrees with Test()")
			}
		})
	}
}

func mustTest(t *testing.T, c *RuleContainer, doc any) bool {
	t.Helper()
	got, err := c.Test(doc)
	if err != nil {
		t.Fatalf("RuleContainer.Test() error = %v", err)
	}
	return got
}

// Combinators stop at the first deciding child, so a later child that
// would raise is never evaluated.
func TestTest_ShortCircuit(t *testing.T) {
	doc := map[string]any{"status": "active"}
	raising := &Expr{Text: "this is not a clause"}

	t.Run("and stops at first false", func(t *testing.T) {
		rule := mustAnd(t, &Equals{Field: "status", Value: "gone"}, raising)
		got, err := Test(rule, doc)
		if err != nil || got {
			t.Errorf("Test() = (%v, %v), want (false, nil)", got, err)
		}
	})

	t.Run("or stops at first true", func(t *testing.T) {
		rule := mustOr(t, &Equals{Field: "status", Value: "active"}, raising)
		got, err := Test(rule, doc)
		if err != nil || !got {
			t.Errorf("Test() = (%v, %v), want (true, nil)", got, err)
		}
	})

	t.Run("and propagates child error", func(t *testing.T) {
		rule := mustAnd(t, &Equals{Field: "status", Value: "active"}, raising)
		_, err := Test(rule, doc)
		if !errors.Is(err, types.ErrMalformedExpression) {
			t.Errorf("Test() error = %v, want ErrMalformedExpression", err)
		}
	})

	t.Run("or propagates child error", func(t *testing.T) {
		rule := mustOr(t, &Equals{Field: "status", Value: "gone"}, &Expr{Text: "$.status > 1"})
		_, err := Test(rule, doc)
		if !errors.Is(err, types.ErrTypeMismatch) {
			t.Errorf("Test() error = %v, want ErrTypeMismatch", err)
		}
	})
}

func TestNewAnd_Shape(t *testing.T) {
	if _, err := NewAnd(); !errors.Is(err, types.ErrShape) {
		t.Errorf("NewAnd() error = %v, want ErrShape", err)
	}
	if _, err := NewOr(); !errors.Is(err, types.ErrShape) {
		t.Errorf("NewOr() error = %v, want ErrShape", err)
	}
	if _, err := NewAnd(&Equals{Field: "a", Value: 1}, nil); !errors.Is(err, types.ErrShape) {
		t.Errorf("NewAnd(nil child) error = %v, want ErrShape", err)
	}

	var shapeErr *ShapeError
	if _, err := NewOr(); !errors.As(err, &shapeErr) {
		t.Errorf("NewOr() error %T is not *ShapeError", err)
	}
}

func TestNewAnd_DepthLimit(t *testing.T) {
	var rule Rule = &Equals{Field: "a", Value: 1}
	for level := 2; level <= types.MaxRuleDepth; level++ {
		next, err := NewAnd(rule)
		if err != nil {
			t.Fatalf("NewAnd() at level %d error = %v", level, err)
		}
		rule = next
	}

	_, err := NewOr(rule)
	if !errors.Is(err, types.ErrRuleTooDeep) {
		t.Fatalf("NewOr() beyond max depth error = %v, want ErrRuleTooDeep", err)
	}
	if !errors.Is(err, types.ErrShape) {
		t.Errorf("depth error should also be a shape error: %v", err)
	}

	got, err := Test(rule, map[string]any{"a": 1})
	if err != nil || !got {
		t.Errorf("Test() at max depth = (%v, %v), want (true, nil)", got, err)
	}
}

func TestChildren_ReturnsCopy(t *testing.T) {
	and := mustAnd(t, &Equals{Field: "a", Value: 1})
	children := and.Children()
	children[0] = &Equals{Field: "b", Value: 2}

	if and.Children()[0].(*Equals).Field != "a" {
		t.Error("mutating Children() result changed the rule")
	}
}

func TestTest_UnconstructedRules(t *testing.T) {
	doc := map[string]any{"a": 1}

	tests := []struct {
		name string
		test func() (bool, error)
	}{
		{"zero-value and", func() (bool, error) { return Test(&And{}, doc) }},
		{"zero-value or", func() (bool, error) { return Test(&Or{}, doc) }},
		{"nil rule", func() (bool, error) { return Test(nil, doc) }},
		{"nil equals pointer", func() (bool, error) { return Test((*Equals)(nil), doc) }},
		{"or with zero-value child", func() (bool, error) { return Test(mustOr(t, &And{}), doc) }},
		{"zero-value container", func() (bool, error) { return (&RuleContainer{}).Test(doc) }},
		{"nil container", func() (bool, error) { return (*RuleContainer)(nil).Test(doc) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, err := tt.test()
			if !errors.Is(err, types.ErrShape) {
				t.Errorf("error = %v, want ErrShape", err)
			}
			if matched {
				t.Error("unconstructed rule matched")
			}
		})
	}
}

// buildRule deterministically derives a declarative rule tree from seeds.
func buildRule(seeds []int, pos *int, level int) Rule {
	next := func() int {
		v := seeds[*pos%len(seeds)]
		*pos++
		return v
	}

	fields := []string{"a", "b.c", "list", "list[1]", "missing", "$.b", "n"}
	values := []any{nil, true, false, int64(1), 2.5, "x", "", "c"}

	kind := next() % 4
	if level >= 4 {
		kind %= 2
	}
	switch kind {
	case 0:
		return &Equals{Field: fields[next()%len(fields)], Value: values[next()%len(values)]}
	case 1:
		return &In{Field: fields[next()%len(fields)], Value: values[next()%len(values)]}
	default:
		n := next()%3 + 1
		children := make([]Rule, 0, n)
		for i := 0; i < n; i++ {
			children = append(children, buildRule(seeds, pos, level+1))
		}
		if kind == 2 {
			r, _ := NewAnd(children...)
			return r
		}
		r, _ := NewOr(children...)
		return r
	}
}

// Property-based test: declarative rules never fail evaluation
func TestTest_PropertyDeclarativeNeverErrors(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	docs := []any{
		map[string]any{"a": int64(1), "b": map[string]any{"c": "xc"}, "list": []any{"x", 2.5, nil}, "n": nil},
		map[string]any{"a": "text", "b": []any{1, 2}},
		[]any{1, 2, 3},
		"scalar",
		nil,
	}

	properties.Property("equals/in/and/or trees evaluate without error", prop.ForAll(
		func(seeds []int) bool {
			pos := 0
			rule := buildRule(seeds, &pos, 1)
			for _, doc := range docs {
				if _, err := Test(rule, doc); err != nil {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(16, gen.IntRange(0, 1000)),
	))

	properties.Property("and/or agree with boolean connectives", prop.ForAll(
		func(av, bv int) bool {
			doc := map[string]any{"a": int64(av % 3), "b": int64(bv % 3)}
			and := mustAnd(t, &Equals{Field: "a", Value: int64(1)}, &Equals{Field: "b", Value: int64(1)})
			or := mustOr(t, &Equals{Field: "a", Value: int64(1)}, &Equals{Field: "b", Value: int64(1)})
			andResult, _ := Test(and, doc)
			orResult, _ := Test(or, doc)
			return andResult == (av%3 == 1 && bv%3 == 1) && orResult == (av%3 == 1 || bv%3 == 1)
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
