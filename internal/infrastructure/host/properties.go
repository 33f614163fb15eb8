package host

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/manifest"
)

// loadProperties reads a flat property file. Nested values are skipped.
func loadProperties(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read device properties: %w", err)
	}

	doc, err := manifest.Decode(data, manifest.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("decode device properties %s: %w", path, err)
	}

	props := make(map[string]string, len(doc))
	for name, v := range doc {
		if s, ok := scalar(v); ok {
			props[name] = s
		}
	}
	return props, nil
}

func scalar(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case nil, map[string]interface{}, []interface{}:
		return "", false
	default:
		return fmt.Sprint(val), true
	}
}
