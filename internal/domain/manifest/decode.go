package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Format identifies a descriptor encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the descriptor encoding from a file extension.
// Unknown extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Document is a decoded descriptor tree with normalized scalar types:
// numbers are float64 and nested objects are map[string]interface{}.
type Document map[string]interface{}

// Decode turns descriptor bytes into a normalized Document
func Decode(data []byte, format Format) (Document, error) {
	var raw interface{}

	switch format {
	case FormatJSON, "":
		if err := sonic.ConfigStd.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatTOML:
		var tree map[string]interface{}
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		raw = tree
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	obj, ok := normalize(raw).(map[string]interface{})
	if !ok {
		return nil, errors.New("descriptor root must be an object")
	}
	return Document(obj), nil
}

// normalize converts decoder-specific shapes into the JSON shapes the parser expects
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}
