// Package validation implements schema driven form validation: per field rule
// sets, a pure field validator and a Form that tracks values, touched fields,
// errors and submission state.
package validation

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/noah-isme/lms-admin-gateway/pkg/sanitize"
)

// CustomFunc returns an error message, or "" when the value passes.
type CustomFunc func(value any) string

// Rule is the rule set of one field. Zero MinLength/MaxLength and nil
// Min/Max/Pattern/Custom mean "not set".
type Rule struct {
	Required  bool
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
	Min       *float64
	Max       *float64
	Email     bool
	Custom    CustomFunc
}

// Schema maps field names to rules.
type Schema map[string]Rule

// Float is a convenience for building Min/Max bounds.
func Float(v float64) *float64 {
	return &v
}

// ValidateField checks value against the rule registered for name and returns
// the first failing message. Fields without a rule always pass.
//
// Order: required, then string length/pattern/email or numeric bounds, then
// the custom predicate. Empty values skip everything after required.
func ValidateField(schema Schema, name string, value any) string {
	rule, ok := schema[name]
	if !ok {
		return ""
	}

	if rule.Required && isBlank(value) {
		return fmt.Sprintf("%s is required", name)
	}
	if !rule.Required && isEmpty(value) {
		return ""
	}

	if s, ok := value.(string); ok {
		length := utf8.RuneCountInString(s)
		if rule.MinLength > 0 && length < rule.MinLength {
			return fmt.Sprintf("%s must be at least %d characters", name, rule.MinLength)
		}
		if rule.MaxLength > 0 && length > rule.MaxLength {
			return fmt.Sprintf("%s must be no more than %d characters", name, rule.MaxLength)
		}
		if rule.Pattern != nil && !rule.Pattern.MatchString(s) {
			return fmt.Sprintf("%s format is invalid", name)
		}
		if rule.Email && !sanitize.ValidateEmail(s).Valid {
			return fmt.Sprintf("%s must be a valid email address", name)
		}
	}

	if n, ok := toNumber(value); ok {
		if rule.Min != nil && n < *rule.Min {
			return fmt.Sprintf("%s must be at least %s", name, formatNumber(*rule.Min))
		}
		if rule.Max != nil && n > *rule.Max {
			return fmt.Sprintf("%s must be no more than %s", name, formatNumber(*rule.Max))
		}
	}

	if rule.Custom != nil {
		if msg := rule.Custom(value); msg != "" {
			return msg
		}
	}

	return ""
}

// isEmpty reports a missing value: nil or the empty string.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// isBlank extends isEmpty with whitespace-only strings.
func isBlank(value any) bool {
	if isEmpty(value) {
		return true
	}
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) == ""
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
