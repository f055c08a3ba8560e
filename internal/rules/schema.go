package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const ruleSchemaURL = "https://github.com/solatis/predicates/rule.schema.json"

//go:embed schema/rule.schema.json
var ruleSchemaJSON []byte

// RuleSchema returns the JSON schema for serialized rule containers.
func RuleSchema() []byte {
	return append([]byte(nil), ruleSchemaJSON...)
}

// ruleSchema is compiled once; a compiled schema is immutable and safe to share.
var ruleSchema = mustCompileSchema(ruleSchemaJSON)

func mustCompileSchema(data []byte) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("rules: unmarshal rule schema: %v", err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(ruleSchemaURL, doc); err != nil {
		panic(fmt.Sprintf("rules: add rule schema: %v", err))
	}
	schema, err := compiler.Compile(ruleSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("rules: compile rule schema: %v", err))
	}
	return schema
}

// validateSchema checks doc against the rule container schema.
// Returns a ShapeError located at the most specific failing instance path.
func validateSchema(doc any) error {
	// Round-trip through JSON so YAML/TOML numeric kinds become json.Number,
	// which is what the validator expects.
	data, err := json.Marshal(doc)
	if err != nil {
		return &ShapeError{Reason: "rule definition is not representable as JSON", Err: err}
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &ShapeError{Reason: "rule definition is not representable as JSON", Err: err}
	}

	err = ruleSchema.Validate(inst)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return &ShapeError{Reason: "schema validation failed", Err: err}
	}
	return &ShapeError{
		Path:   locationToPath(findMostSpecificLocation(validationErr)),
		Reason: "does not match rule schema",
		Err:    validationErr,
	}
}

// findMostSpecificLocation returns the longest InstanceLocation among err
// and its causes.
func findMostSpecificLocation(err *jsonschema.ValidationError) []string {
	longest := err.InstanceLocation
	for _, cause := range err.Causes {
		candidate := findMostSpecificLocation(cause)
		if len(candidate) > len(longest) {
			longest = candidate
		}
	}
	return longest
}

// locationToPath renders ["rule", "args", "1"] as "rule.args[1]".
func locationToPath(location []string) string {
	var b strings.Builder
	for _, part := range location {
		if _, err := strconv.Atoi(part); err == nil {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
