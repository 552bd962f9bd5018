package frontmatter

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	doc := "---\nname: greeter\ndescription: Says hello\n---\n\nBe friendly.\n"

	var meta struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	}
	body, err := Parse([]byte(doc), &meta)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if meta.Name != "greeter" || meta.Description != "Says hello" {
		t.Errorf("meta = %+v", meta)
	}
	if strings.TrimSpace(body) != "Be friendly." {
		t.Errorf("body = %q", body)
	}
}

func TestParse_CRLF(t *testing.T) {
	doc := "---\r\nname: greeter\r\n---\r\nbody\r\n"

	var meta struct {
		Name string `yaml:"name"`
	}
	if _, err := Parse([]byte(doc), &meta); err != nil {
		t.Fatalf("Parse failed on CRLF input: %v", err)
	}
	if meta.Name != "greeter" {
		t.Errorf("name = %q", meta.Name)
	}
}

func TestSplit_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no frontmatter", "just a markdown file\n"},
		{"unterminated", "---\nname: x\nno closing delimiter\n"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Split([]byte(tt.doc)); err == nil {
				t.Error("Split should fail")
			}
		})
	}
}

func TestSplit_EmptyBody(t *testing.T) {
	_, body, err := Split([]byte("---\nname: x\n---"))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(body) != 0 {
		t.Errorf("body = %q, want empty", body)
	}
}
