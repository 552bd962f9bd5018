// Package frontmatter splits and decodes YAML frontmatter from markdown
// definition files.
package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

func isDelimiter(line []byte) bool {
	return bytes.Equal(bytes.TrimRight(line, "\r"), []byte("---"))
}

// Split separates a document into its YAML frontmatter and markdown body.
// The document must start with a `---` line and contain a closing `---` line.
func Split(data []byte) (meta, body []byte, err error) {
	trimmed := bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	lines := bytes.Split(trimmed, []byte("\n"))
	if len(lines) == 0 || !isDelimiter(lines[0]) {
		return nil, nil, fmt.Errorf("missing frontmatter delimiter")
	}

	for i := 1; i < len(lines); i++ {
		if isDelimiter(lines[i]) {
			meta = bytes.Join(lines[1:i], []byte("\n"))
			body = bytes.Join(lines[i+1:], []byte("\n"))
			return meta, body, nil
		}
	}
	return nil, nil, fmt.Errorf("unterminated frontmatter")
}

// Parse decodes the frontmatter into out and returns the markdown body.
func Parse(data []byte, out any) (string, error) {
	meta, body, err := Split(data)
	if err != nil {
		return "", err
	}
	if err := yaml.Unmarshal(meta, out); err != nil {
		return "", fmt.Errorf("decode frontmatter: %w", err)
	}
	return string(body), nil
}
