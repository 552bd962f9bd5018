// Package sim implements the deterministic conversation-replay engine: it
// matches a session against an ordered test sequence, applies canned
// responses, and resolves tool invocations per step policy.
package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chatsim-dev/chatsim/internal/api"
	"github.com/chatsim-dev/chatsim/internal/errors"
	"github.com/chatsim-dev/chatsim/internal/match"
)

// ToolBehavior selects how a step's pending tool invocations are resolved.
type ToolBehavior string

const (
	// ToolMock fabricates deterministic results from the step's tool_results map.
	ToolMock ToolBehavior = "mock"
	// ToolExecute delegates to the configured tool runner.
	ToolExecute ToolBehavior = "execute"
	// ToolSkip surfaces the tool_use to the caller and stops the turn.
	ToolSkip ToolBehavior = "skip"
)

// Step is one (match rule, canned response, tool policy) unit of a test
// case. Steps are consumed at most once per run, in declared order.
type Step struct {
	Match        match.Rule        `json:"match" yaml:"match"`
	Response     api.Message       `json:"response" yaml:"response"`
	ToolBehavior ToolBehavior      `json:"tool_behavior" yaml:"tool_behavior"`
	ToolResults  map[string]string `json:"tool_results,omitempty" yaml:"tool_results,omitempty"`
}

// TestCase is a named, ordered sequence of steps.
type TestCase struct {
	Name     string `json:"name" yaml:"name"`
	Sequence []Step `json:"sequence" yaml:"sequence"`
}

// Config is a collection of test cases. The engine treats it as read-only.
type Config struct {
	Tests []TestCase `json:"tests" yaml:"tests"`
}

// Test returns the named test case, or nil if absent.
func (c *Config) Test(name string) *TestCase {
	for i := range c.Tests {
		if c.Tests[i].Name == name {
			return &c.Tests[i]
		}
	}
	return nil
}

// Validate checks structural invariants of every test case: unique names,
// non-empty sequences, and per-step match rules that pass eager validation.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Tests))
	for i, tc := range c.Tests {
		if tc.Name == "" {
			return errors.ConfigMissingField(fmt.Sprintf("tests.%d.name", i))
		}
		if seen[tc.Name] {
			return errors.ConfigInvalidValue(fmt.Sprintf("tests.%d.name", i), tc.Name, "duplicate test name")
		}
		seen[tc.Name] = true

		if len(tc.Sequence) == 0 {
			return errors.ConfigMissingField(fmt.Sprintf("tests.%d.sequence", i))
		}
		for j, step := range tc.Sequence {
			if err := step.Match.Validate(); err != nil {
				return errors.Wrapf(errors.CodeConfigInvalidValue, err,
					"tests.%d.sequence.%d.match is invalid", i, j)
			}
		}
	}
	return nil
}

// Lint reports non-fatal authoring warnings: adjacent steps with identical
// match rules, where declared order silently decides the winner.
func (c *Config) Lint() []string {
	var warnings []string
	for _, tc := range c.Tests {
		for j := 1; j < len(tc.Sequence); j++ {
			if sameRule(tc.Sequence[j-1].Match, tc.Sequence[j].Match) {
				warnings = append(warnings, fmt.Sprintf(
					"test %q: steps %d and %d have identical match rules; the earlier step always wins",
					tc.Name, j-1, j))
			}
		}
	}
	return warnings
}

func sameRule(a, b match.Rule) bool {
	if a.Kind != b.Kind || a.Path != b.Path || a.Pattern != b.Pattern {
		return false
	}
	aj, _ := json.Marshal(a.Value)
	bj, _ := json.Marshal(b.Value)
	return string(aj) == string(bj)
}

// LoadConfig reads a test config from a JSON or YAML file, chosen by
// extension, and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.IOFileNotFound(path)
		}
		return nil, errors.IOReadError(path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON parses and validates a JSON test config.
func ParseJSON(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.CodeConfigInvalidValue, "decode test config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseYAML parses and validates a YAML test config. Rule values and tool
// inputs are normalized to their JSON-decoded shapes so matching behaves the
// same regardless of the source format.
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.CodeConfigInvalidValue, "decode test config", err)
	}
	for i := range cfg.Tests {
		for j := range cfg.Tests[i].Sequence {
			step := &cfg.Tests[i].Sequence[j]
			step.Match.Value = normalizeYAML(step.Match.Value)
			for k := range step.Response.Content {
				step.Response.Content[k].Input = normalizeYAMLMap(step.Response.Content[k].Input)
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalizeYAML converts yaml.v3's map[string]any/[]any trees into the same
// shapes encoding/json produces. yaml.v3 already decodes mappings with
// string keys as map[string]any; integers stay int, which the matcher's
// numeric comparison absorbs.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeYAMLMap(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeYAML(elem)
		}
		return out
	default:
		return v
	}
}

func normalizeYAMLMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeYAML(v)
	}
	return out
}
