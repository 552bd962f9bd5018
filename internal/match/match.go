package match

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/chatsim-dev/chatsim/internal/errors"
)

// Kind selects the matching strategy of a rule.
type Kind string

const (
	KindRegex    Kind = "regex"
	KindContains Kind = "contains"
)

// Rule is one match rule of a sequence step. A rule is immutable once
// constructed; evaluation never mutates the inspected structure.
type Rule struct {
	Kind    Kind   `json:"type" yaml:"type"`
	Path    string `json:"path" yaml:"path"`
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Value   any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// Validate checks the rule's structural invariants, compiling regex
// patterns eagerly so a bad pattern fails at config load rather than
// mid-run. It runs before any traversal, so malformed rules never
// silently evaluate to false.
func (r Rule) Validate() error {
	switch r.Kind {
	case KindRegex:
		if r.Pattern == "" {
			return errors.MatchInvalidRule(string(r.Kind), "pattern is required")
		}
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return errors.MatchInvalidPattern(r.Pattern, err)
		}
	case KindContains:
		if r.Value == nil {
			return errors.MatchInvalidRule(string(r.Kind), "value is required")
		}
	default:
		return errors.MatchInvalidRule(string(r.Kind), "unknown rule type")
	}
	return nil
}

// Evaluate resolves the rule's path against root and applies the rule's
// strategy. An unresolvable path is a non-match, not an error; only
// structurally invalid rules and uncompilable patterns fail.
func Evaluate(root any, r Rule) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}

	value, ok := Resolve(root, r.Path)

	switch r.Kind {
	case KindRegex:
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return false, errors.MatchInvalidPattern(r.Pattern, err)
		}
		if !ok {
			value = nil
		}
		// MatchString searches anywhere in the string; no anchoring.
		return re.MatchString(stringify(value)), nil

	case KindContains:
		if !ok {
			return false, nil
		}
		return contains(value, r.Value), nil
	}

	// Unreachable: Validate rejects unknown kinds.
	return false, nil
}

// contains applies the type-aware membership test of a contains rule.
func contains(resolved, want any) bool {
	switch node := resolved.(type) {
	case []any:
		// Element membership with structural equality, never a stringified join.
		for _, elem := range node {
			if equalValue(elem, want) {
				return true
			}
		}
		return false
	case map[string]any:
		// Key membership. JSON object keys are strings, so a non-string
		// value can never be a member.
		key, isString := want.(string)
		if !isString {
			return false
		}
		_, present := node[key]
		return present
	case string:
		return strings.Contains(node, stringify(want))
	default:
		return strings.Contains(stringify(resolved), stringify(want))
	}
}

// equalValue compares two JSON-shaped values structurally. Numeric values
// compare by magnitude regardless of decoded Go type, since YAML decodes
// integers as int while JSON decodes every number as float64.
func equalValue(a, b any) bool {
	if na, ok := toFloat(a); ok {
		nb, ok := toFloat(b)
		return ok && na == nb
	}

	switch va := a.(type) {
	case nil:
		return b == nil
	case string:
		vb, ok := b.(string)
		return ok && va == vb
	case bool:
		vb, ok := b.(bool)
		return ok && va == vb
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !equalValue(va[i], vb[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for k, v := range va {
			other, present := vb[k]
			if !present || !equalValue(v, other) {
				return false
			}
		}
		return true
	}

	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// stringify converts a resolved value to its canonical string form. Absent
// and null become the empty string; scalars use their plain rendering;
// composites use their JSON encoding.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool, int, int64, uint64, float32, float64, json.Number:
		return fmt.Sprintf("%v", val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}
