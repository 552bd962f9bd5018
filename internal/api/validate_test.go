package api

import (
	"strings"
	"testing"
)

func validSession() *Request {
	return &Request{
		Model:     "claude-sonnet-4-20250514",
		MaxTokens: 1024,
		Tools:     []Tool{{Name: "Write"}},
		Messages: []Message{
			{Role: RoleUser, Content: []ContentBlock{TextBlock("write a file")}},
			{Role: RoleAssistant, Content: []ContentBlock{
				TextBlock("Writing it now."),
				ToolUseBlock("toolu_01", "Write", map[string]any{"path": "a.txt"}),
			}},
			{Role: RoleUser, Content: []ContentBlock{
				ToolResultBlock("toolu_01", "ok", false),
			}},
		},
	}
}

func TestValidateSession_Valid(t *testing.T) {
	result := ValidateSession(validSession())
	if result.HasErrors() {
		t.Fatalf("valid session failed validation: %v", result)
	}
}

func TestValidateSession_Errors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Request)
		wantField string
	}{
		{
			name:      "missing model",
			mutate:    func(r *Request) { r.Model = "" },
			wantField: "model",
		},
		{
			name:      "non-positive max_tokens",
			mutate:    func(r *Request) { r.MaxTokens = 0 },
			wantField: "max_tokens",
		},
		{
			name: "role repetition",
			mutate: func(r *Request) {
				r.Messages = append(r.Messages, Message{Role: RoleUser, Content: []ContentBlock{TextBlock("again")}})
			},
			wantField: "messages.3.role",
		},
		{
			name: "bad role",
			mutate: func(r *Request) {
				r.Messages[0].Role = "system"
			},
			wantField: "messages.0.role",
		},
		{
			name: "empty content",
			mutate: func(r *Request) {
				r.Messages[0].Content = nil
			},
			wantField: "messages.0.content",
		},
		{
			name: "undeclared tool",
			mutate: func(r *Request) {
				r.Messages[1].Content[1].Name = "Delete"
			},
			wantField: "messages.1.content.1.name",
		},
		{
			name: "dangling tool_result reference",
			mutate: func(r *Request) {
				r.Messages[2].Content[0].ToolUseID = "toolu_99"
			},
			wantField: "messages.2.content.0.tool_use_id",
		},
		{
			name: "tool_result in assistant message",
			mutate: func(r *Request) {
				r.Messages[1].Content = []ContentBlock{ToolResultBlock("toolu_00", "x", false)}
			},
			wantField: "messages.1.content.0",
		},
		{
			name: "unknown block type",
			mutate: func(r *Request) {
				r.Messages[0].Content[0].Type = "thinking"
			},
			wantField: "messages.0.content.0.type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := validSession()
			tt.mutate(session)

			result := ValidateSession(session)
			if !result.HasErrors() {
				t.Fatal("expected validation errors, got none")
			}

			found := false
			for _, err := range result.Errors {
				if strings.HasPrefix(err.Field, tt.wantField) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("no error on field %q, got: %v", tt.wantField, result)
			}
		})
	}
}

func TestValidateSession_DuplicateTool(t *testing.T) {
	session := validSession()
	session.Tools = append(session.Tools, Tool{Name: "Write"})

	result := ValidateSession(session)
	if !result.HasErrors() {
		t.Fatal("expected duplicate tool error")
	}
}
