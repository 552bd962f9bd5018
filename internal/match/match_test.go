package match

import (
	"testing"

	"github.com/chatsim-dev/chatsim/internal/errors"
)

func TestEvaluate_Regex(t *testing.T) {
	root := map[string]any{
		"t":     "create a file",
		"count": float64(42),
		"flag":  true,
		"empty": nil,
	}

	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{
			name: "search not anchored",
			rule: Rule{Kind: KindRegex, Path: "t", Pattern: "create.*file"},
			want: true,
		},
		{
			name: "substring in the middle",
			rule: Rule{Kind: KindRegex, Path: "t", Pattern: "a fil"},
			want: true,
		},
		{
			name: "case sensitive",
			rule: Rule{Kind: KindRegex, Path: "t", Pattern: "Create"},
			want: false,
		},
		{
			name: "anchors still honored when written",
			rule: Rule{Kind: KindRegex, Path: "t", Pattern: "^file"},
			want: false,
		},
		{
			name: "number stringified canonically",
			rule: Rule{Kind: KindRegex, Path: "count", Pattern: "^42$"},
			want: true,
		},
		{
			name: "bool stringified",
			rule: Rule{Kind: KindRegex, Path: "flag", Pattern: "true"},
			want: true,
		},
		{
			name: "absent path is empty string",
			rule: Rule{Kind: KindRegex, Path: "missing", Pattern: "^$"},
			want: true,
		},
		{
			name: "null is empty string",
			rule: Rule{Kind: KindRegex, Path: "empty", Pattern: "^$"},
			want: true,
		},
		{
			name: "absent path never matches non-empty pattern",
			rule: Rule{Kind: KindRegex, Path: "missing", Pattern: "anything"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(root, tt.rule)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_Contains(t *testing.T) {
	root := map[string]any{
		"tags":    []any{"a", "b"},
		"numbers": []any{float64(1), float64(2)},
		"config":  map[string]any{"0": "zero", "debug": true},
		"text":    "hello there",
		"count":   float64(1234),
	}

	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{
			name: "list element membership",
			rule: Rule{Kind: KindContains, Path: "tags", Value: "b"},
			want: true,
		},
		{
			name: "no stringified-join membership",
			rule: Rule{Kind: KindContains, Path: "tags", Value: "a,b"},
			want: false,
		},
		{
			name: "list membership is exact equality",
			rule: Rule{Kind: KindContains, Path: "numbers", Value: float64(2)},
			want: true,
		},
		{
			name: "yaml-decoded int matches json float",
			rule: Rule{Kind: KindContains, Path: "numbers", Value: 2},
			want: true,
		},
		{
			name: "list membership does not stringify",
			rule: Rule{Kind: KindContains, Path: "numbers", Value: "2"},
			want: false,
		},
		{
			name: "map key membership",
			rule: Rule{Kind: KindContains, Path: "config", Value: "debug"},
			want: true,
		},
		{
			name: "map key membership is not value membership",
			rule: Rule{Kind: KindContains, Path: "config", Value: "zero"},
			want: false,
		},
		{
			name: "non-string value never matches a map key",
			rule: Rule{Kind: KindContains, Path: "config", Value: 0},
			want: false,
		},
		{
			name: "string substring",
			rule: Rule{Kind: KindContains, Path: "text", Value: "lo th"},
			want: true,
		},
		{
			name: "string substring case sensitive",
			rule: Rule{Kind: KindContains, Path: "text", Value: "Hello"},
			want: false,
		},
		{
			name: "scalar stringifies both sides",
			rule: Rule{Kind: KindContains, Path: "count", Value: "23"},
			want: true,
		},
		{
			name: "absent path is a non-match",
			rule: Rule{Kind: KindContains, Path: "missing.path", Value: "x"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(root, tt.rule)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_InvalidRules(t *testing.T) {
	root := map[string]any{"t": "anything"}

	tests := []struct {
		name     string
		rule     Rule
		wantCode string
	}{
		{
			name:     "regex without pattern",
			rule:     Rule{Kind: KindRegex, Path: "t"},
			wantCode: errors.CodeMatchInvalidRule,
		},
		{
			name:     "contains without value",
			rule:     Rule{Kind: KindContains, Path: "t"},
			wantCode: errors.CodeMatchInvalidRule,
		},
		{
			name:     "unknown kind",
			rule:     Rule{Kind: "fuzzy", Path: "t", Pattern: "x"},
			wantCode: errors.CodeMatchInvalidRule,
		},
		{
			name:     "uncompilable pattern",
			rule:     Rule{Kind: KindRegex, Path: "t", Pattern: "(unclosed"},
			wantCode: errors.CodeMatchInvalidPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(root, tt.rule)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.HasCode(err, tt.wantCode) {
				t.Errorf("error code = %s, want %s (err: %v)", errors.Code(err), tt.wantCode, err)
			}
		})
	}
}

// Validate compiles the pattern itself, so a bad pattern is caught without
// evaluating the rule against anything.
func TestRule_Validate_CompilesPattern(t *testing.T) {
	err := Rule{Kind: KindRegex, Path: "t", Pattern: "[unclosed"}.Validate()
	if !errors.HasCode(err, errors.CodeMatchInvalidPattern) {
		t.Errorf("error code = %s, want %s (err: %v)", errors.Code(err), errors.CodeMatchInvalidPattern, err)
	}

	if err := (Rule{Kind: KindRegex, Path: "t", Pattern: "a+"}).Validate(); err != nil {
		t.Errorf("valid pattern rejected: %v", err)
	}
}

// Rule validation runs before path resolution, so an invalid rule fails even
// when its path would not resolve.
func TestEvaluate_ValidationBeforeResolution(t *testing.T) {
	_, err := Evaluate(map[string]any{}, Rule{Kind: KindRegex, Path: "no.such.path"})
	if !errors.HasCode(err, errors.CodeMatchInvalidRule) {
		t.Errorf("error code = %s, want %s", errors.Code(err), errors.CodeMatchInvalidRule)
	}
}
