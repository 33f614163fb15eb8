// Package utils holds small helpers shared by the catalog, the ops API and
// the lint tool.
package utils

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// Size limits (in bytes)
const (
	MaxJSONSize   = 1 * 1024 * 1024 // 1MB - launch parameter documents
	MaxScriptSize = 256 * 1024      // 256KB - diagnostic scripts
	MaxParamSize  = 64 * 1024       // 64KB - single bridge call parameter
)

const (
	MaxIDLength  = 255
	MaxJSONDepth = 20
)

// AppIDPattern accepts reverse-domain style application ids
var AppIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+-]*$`)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if value == "" {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateAppID checks an application id. The parser accepts any non-empty
// id, so this is only applied at the ops API and in lint warnings.
func ValidateAppID(appID string) error {
	if err := ValidateString(appID, "app id", 1, MaxIDLength, true); err != nil {
		return err
	}
	if !AppIDPattern.MatchString(appID) {
		return fmt.Errorf("app id %q contains invalid characters", appID)
	}
	return nil
}

// ValidateDisplayAffinity checks a requested display id. Negative ids are
// accepted and clear the pin; ids must fit in 32 bits.
func ValidateDisplayAffinity(display *int) error {
	if display == nil {
		return nil
	}
	if *display > math.MaxInt32 {
		return fmt.Errorf("display affinity %d exceeds maximum %d", *display, math.MaxInt32)
	}
	return nil
}

// ValidateJSONDocument checks size, syntax and nesting depth of a JSON document
func ValidateJSONDocument(doc string, maxSize int) error {
	if len(doc) > maxSize {
		return fmt.Errorf("JSON size %d bytes exceeds maximum %d bytes", len(doc), maxSize)
	}

	var v interface{}
	if err := sonic.ConfigStd.UnmarshalFromString(doc, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return ValidateJSONDepth(v, MaxJSONDepth)
}

// ValidateJSONDepth checks if JSON nesting depth is within limits
func ValidateJSONDepth(data interface{}, maxDepth int) error {
	return checkDepth(data, 0, maxDepth)
}

func checkDepth(data interface{}, depth, maxDepth int) error {
	if depth > maxDepth {
		return fmt.Errorf("JSON nesting depth %d exceeds maximum %d", depth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]interface{}:
		for _, value := range v {
			if err := checkDepth(value, depth+1, maxDepth); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, value := range v {
			if err := checkDepth(value, depth+1, maxDepth); err != nil {
				return err
			}
		}
	}
	return nil
}
