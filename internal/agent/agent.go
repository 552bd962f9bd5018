// Package agent loads agent definitions: markdown files with YAML
// frontmatter under the agents dir, one <name>.md per agent.
package agent

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/chatsim-dev/chatsim/internal/errors"
	"github.com/chatsim-dev/chatsim/internal/frontmatter"
)

// namePattern matches lowercase alphanumeric with single hyphens between words
var namePattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Agent is a parsed agent definition.
type Agent struct {
	// Name is the unique identifier for this agent (required)
	Name string `yaml:"name"`

	// Description tells the caller what the agent is for (required)
	Description string `yaml:"description"`

	// Model overrides the default model for this agent (optional)
	Model string `yaml:"model,omitempty"`

	// Tools lists the tool names the agent may call (optional)
	Tools []string `yaml:"tools,omitempty"`

	// Skills lists skill names available to the agent (optional)
	Skills []string `yaml:"skills,omitempty"`

	// Prompt is the markdown system prompt below the frontmatter.
	Prompt string `yaml:"-"`

	// Path is the file the agent was loaded from.
	Path string `yaml:"-"`
}

// ParseFile loads an agent definition from a markdown file.
func ParseFile(path string) (*Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.DefNotFound(agentName(path))
		}
		return nil, errors.IOReadError(path, err)
	}

	var a Agent
	prompt, err := frontmatter.Parse(data, &a)
	if err != nil {
		return nil, errors.DefParseError(path, err)
	}
	a.Prompt = prompt
	a.Path = path

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks the definition for required fields and naming rules.
func (a *Agent) Validate() error {
	if a.Name == "" {
		return errors.DefMissingField(agentName(a.Path), "name")
	}
	if !namePattern.MatchString(a.Name) {
		return errors.Newf(errors.CodeDefParseError,
			"invalid agent name %q: must be lowercase alphanumeric with hyphens", a.Name).
			WithDetail("name", a.Name)
	}
	if a.Path != "" && a.Name != agentName(a.Path) {
		return errors.Newf(errors.CodeDefParseError,
			"agent name %q must match file name %q", a.Name, agentName(a.Path)).
			WithDetail("name", a.Name)
	}
	if a.Description == "" {
		return errors.DefMissingField(a.Name, "description")
	}
	return nil
}

// List loads every agent under baseDir, sorted by name. Non-markdown
// files are skipped; invalid definitions fail the listing.
func List(baseDir string) ([]*Agent, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.IOReadError(baseDir, err)
	}

	var agents []*Agent
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		a, err := ParseFile(filepath.Join(baseDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}

	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	return agents, nil
}

// agentName derives the agent name from its file path.
func agentName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".md")
}
