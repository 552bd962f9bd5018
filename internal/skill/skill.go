// Package skill loads skill definitions. A skill lives in its own
// directory under the skills dir and is described by a SKILL.md file
// with YAML frontmatter.
package skill

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/chatsim-dev/chatsim/internal/errors"
	"github.com/chatsim-dev/chatsim/internal/frontmatter"
)

// ManifestName is the expected skill definition filename.
const ManifestName = "SKILL.md"

// namePattern matches lowercase alphanumeric with single hyphens between words
var namePattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Skill is a parsed skill definition.
type Skill struct {
	// Name is the unique identifier for this skill (required)
	Name string `yaml:"name"`

	// Description tells the model when to use the skill (required)
	Description string `yaml:"description"`

	// Body is the markdown instructions below the frontmatter.
	Body string `yaml:"-"`

	// Dir is the directory the skill was loaded from.
	Dir string `yaml:"-"`
}

// LoadFromDir loads a skill definition from its directory.
func LoadFromDir(dir string) (*Skill, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.DefNotFound(filepath.Base(dir))
		}
		return nil, errors.IOReadError(path, err)
	}

	var s Skill
	body, err := frontmatter.Parse(data, &s)
	if err != nil {
		return nil, errors.DefParseError(path, err)
	}
	s.Body = body
	s.Dir = dir

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the definition for required fields and naming rules.
func (s *Skill) Validate() error {
	if s.Name == "" {
		return errors.DefMissingField(filepath.Base(s.Dir), "name")
	}
	if !namePattern.MatchString(s.Name) {
		return errors.Newf(errors.CodeDefParseError,
			"invalid skill name %q: must be lowercase alphanumeric with hyphens", s.Name).
			WithDetail("name", s.Name)
	}
	if s.Dir != "" && s.Name != filepath.Base(s.Dir) {
		return errors.Newf(errors.CodeDefParseError,
			"skill name %q must match directory name %q", s.Name, filepath.Base(s.Dir)).
			WithDetail("name", s.Name)
	}
	if s.Description == "" {
		return errors.DefMissingField(s.Name, "description")
	}
	return nil
}

// List loads every skill under baseDir, sorted by name. Directories
// without a SKILL.md are skipped; invalid definitions fail the listing.
func List(baseDir string) ([]*Skill, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.IOReadError(baseDir, err)
	}

	var skills []*Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(baseDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, ManifestName)); err != nil {
			continue
		}
		s, err := LoadFromDir(dir)
		if err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}

	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills, nil
}
