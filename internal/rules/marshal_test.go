package rules

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/solatis/predicates/internal/document"
	"github.com/solatis/predicates/internal/types"
)

const mixedRule = `{
	"rule": {
		"op": "or",
		"args": [
			{"op": "equals", "args": ["count", 3]},
			{"op": "equals", "args": ["ratio", 2.5]},
			{"op": "in", "args": ["tags", "urgent"]},
			{"op": "and", "args": [
				{"op": "equals", "args": ["active", true]},
				{"op": "expr", "args": "$.priority > 5 AND 'x' NOT IN $.tags"}
			]}
		]
	}
}`

func TestToDocument_Shape(t *testing.T) {
	container, err := Load([]byte(mixedRule), types.FormatJSON)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got, err := container.ToDocument()
	if err != nil {
		t.Fatalf("ToDocument() error = %v", err)
	}

	expected := map[string]any{
		"rule": map[string]any{
			"op": "or",
			"args": []any{
				map[string]any{"op": "equals", "args": []any{"count", int64(3)}},
				map[string]any{"op": "equals", "args": []any{"ratio", 2.5}},
				map[string]any{"op": "in", "args": []any{"tags", "urgent"}},
				map[string]any{"op": "and", "args": []any{
					map[string]any{"op": "equals", "args": []any{"active", true}},
					map[string]any{"op": "expr", "args": "$.priority > 5 AND 'x' NOT IN $.tags"},
				}},
			},
		},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("ToDocument() = %#v\nexpected %#v", got, expected)
	}
}

func TestToDocument_RoundTrip(t *testing.T) {
	sources := []struct {
		name   string
		data   string
		format types.Format
	}{
		{"json", jsonRule, types.FormatJSON},
		{"yaml", yamlRule, types.FormatYAML},
		{"toml", tomlRule, types.FormatTOML},
		{"mixed literals", mixedRule, types.FormatJSON},
	}

	docs := []any{
		map[string]any{"status": "active", "tags": []any{"urgent"}, "priority": 1},
		map[string]any{"status": "active", "tags": []any{}, "priority": 9},
		map[string]any{"status": "closed", "tags": []any{"urgent"}, "priority": 9},
		map[string]any{"count": 3, "ratio": 1.0, "tags": []any{}},
		map[string]any{"active": true, "priority": 6, "tags": []any{"y"}},
	}

	for _, src := range sources {
		original, err := Load([]byte(src.data), src.format)
		if err != nil {
			t.Fatalf("%s: Load() error = %v", src.name, err)
		}
		first, err := original.ToDocument()
		if err != nil {
			t.Fatalf("%s: ToDocument() error = %v", src.name, err)
		}

		for _, format := range []types.Format{types.FormatJSON, types.FormatYAML, types.FormatTOML} {
			t.Run(src.name+"/"+string(format), func(t *testing.T) {
				data, err := original.Encode(format)
				if err != nil {
					t.Fatalf("Encode() error = %v", err)
				}
				rebound, err := Load(data, format)
				if err != nil {
					t.Fatalf("Load(encoded) error = %v\n%s", err, data)
				}

				second, err := rebound.ToDocument()
				if err != nil {
					t.Fatalf("ToDocument() after rebind error = %v", err)
				}
				if !reflect.DeepEqual(first, second) {
					t.Errorf("round trip changed rule:\n got %#v\nwant %#v", second, first)
				}

				for i, doc := range docs {
					want, wantErr := original.Test(doc)
					got, gotErr := rebound.Test(doc)
					if got != want || (wantErr == nil) != (gotErr == nil) {
						t.Errorf("doc %d: rebound Test() = (%v, %v), original (%v, %v)", i, got, gotErr, want, wantErr)
					}
				}
			})
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	container, err := Load([]byte(jsonRule), types.FormatJSON)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	data, err := json.Marshal(container)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	doc, err := document.Decode(data, types.FormatJSON)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if _, err := Bind(doc); err != nil {
		t.Errorf("Bind(marshalled) error = %v", err)
	}
}

func TestEncode_NullLiteral(t *testing.T) {
	container := &RuleContainer{Rule: &Equals{Field: "deleted_at", Value: nil}}

	if _, err := container.Encode(types.FormatTOML); !errors.Is(err, document.ErrUnencodable) {
		t.Errorf("Encode(toml) error = %v, want ErrUnencodable", err)
	}

	data, err := container.Encode(types.FormatYAML)
	if err != nil {
		t.Fatalf("Encode(yaml) error = %v", err)
	}
	rebound, err := Load(data, types.FormatYAML)
	if err != nil {
		t.Fatalf("Load(yaml) error = %v", err)
	}
	eq, ok := rebound.Rule.(*Equals)
	if !ok || eq.Value != nil {
		t.Errorf("rebound rule = %#v, want equals with null value", rebound.Rule)
	}
}

func TestToDocument_Unconstructed(t *testing.T) {
	if _, err := (&RuleContainer{Rule: &And{}}).ToDocument(); !errors.Is(err, types.ErrShape) {
		t.Errorf("ToDocument(zero-value and) error = %v, want ErrShape", err)
	}
	if _, err := (&RuleContainer{}).ToDocument(); !errors.Is(err, types.ErrShape) {
		t.Errorf("ToDocument(nil rule) error = %v, want ErrShape", err)
	}
}
