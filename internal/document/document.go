// Package document decodes JSON, YAML and TOML text into generic document
// values: nil, bool, numbers, string, []any and map[string]any.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/solatis/predicates/internal/types"
)

var (
	// ErrUnsupportedFormat indicates a format or file extension with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrTrailingData indicates JSON input holding more than one value.
	ErrTrailingData = errors.New("unexpected data after top-level value")

	// ErrUnencodable indicates a value the target format cannot represent,
	// such as null in TOML.
	ErrUnencodable = errors.New("value not representable in format")
)

// ParseFormat converts a format name ("json", "yaml", "yml", "toml").
func ParseFormat(name string) (types.Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return types.FormatJSON, nil
	case "yaml", "yml":
		return types.FormatYAML, nil
	case "toml":
		return types.FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath detects the format from a file extension.
func FormatFromPath(path string) (types.Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// DecodeFile reads path and decodes it using the format implied by its extension.
func DecodeFile(path string) (any, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Decode(data, format)
}

// Decode parses data in the given format into a generic document.
func Decode(data []byte, format types.Format) (any, error) {
	var (
		doc any
		err error
	)

	switch format {
	case types.FormatJSON:
		doc, err = decodeJSON(data)
	case types.FormatYAML:
		doc, err = decodeYAML(data)
	case types.FormatTOML:
		doc, err = decodeTOML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	return Normalize(doc), nil
}

// decodeJSON keeps numbers as json.Number so large integers survive.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parse json: %w", ErrTrailingData)
	}
	return doc, nil
}

func decodeYAML(data []byte) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return doc, nil
}

func decodeTOML(data []byte) (any, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	return doc, nil
}

// Encode renders a generic document in the given format.
func Encode(doc any, format types.Format) ([]byte, error) {
	switch format {
	case types.FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil

	case types.FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil

	case types.FormatTOML:
		if containsNull(doc) {
			return nil, fmt.Errorf("encode toml: %w: null", ErrUnencodable)
		}
		data, err := toml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return data, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// containsNull reports whether v holds a nil anywhere.
func containsNull(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case map[string]any:
		for _, elem := range val {
			if containsNull(elem) {
				return true
			}
		}
	case []any:
		for _, elem := range val {
			if containsNull(elem) {
				return true
			}
		}
	}
	return false
}

// Normalize converts decoder-specific containers into []any and
// map[string]any. YAML mappings with non-string keys have their keys
// rendered with fmt.Sprint; TOML tables arrive as []map[string]any.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Normalize(elem)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = Normalize(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Normalize(elem)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Normalize(elem)
		}
		return out
	default:
		return v
	}
}
