package api

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ValidationResult holds validation errors.
type ValidationResult struct {
	Errors []ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error implements the error interface.
func (r *ValidationResult) Error() string {
	if len(r.Errors) == 0 {
		return ""
	}

	var messages []string
	for _, err := range r.Errors {
		messages = append(messages, err.Error())
	}

	return fmt.Sprintf("validation failed with %d error(s):\n  - %s",
		len(r.Errors), strings.Join(messages, "\n  - "))
}

// Add appends a validation error.
func (r *ValidationResult) Add(field, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

// ValidateSession checks that a request is well formed before simulation:
// required top-level fields, user/assistant role alternation, tool_use blocks
// naming declared tools, and tool_result blocks referring to tool_use ids
// from the immediately preceding assistant message.
func ValidateSession(r *Request) *ValidationResult {
	result := &ValidationResult{}

	if r.Model == "" {
		result.Add("model", "is required")
	}
	if r.MaxTokens <= 0 {
		result.Add("max_tokens", "must be positive")
	}

	declaredTools := make(map[string]bool, len(r.Tools))
	for i, tool := range r.Tools {
		if tool.Name == "" {
			result.Add(fmt.Sprintf("tools.%d.name", i), "is required")
			continue
		}
		if declaredTools[tool.Name] {
			result.Add(fmt.Sprintf("tools.%d.name", i), fmt.Sprintf("duplicate tool: %s", tool.Name))
		}
		declaredTools[tool.Name] = true
	}

	// Tool_use ids from the previous assistant message; tool_result blocks in
	// the following user message must reference these.
	var priorToolUseIDs map[string]bool

	for i, msg := range r.Messages {
		field := fmt.Sprintf("messages.%d", i)

		switch msg.Role {
		case RoleUser, RoleAssistant:
		default:
			result.Add(field+".role", fmt.Sprintf("must be user or assistant, got %q", msg.Role))
		}

		if i > 0 && msg.Role == r.Messages[i-1].Role {
			result.Add(field+".role", "roles must alternate between user and assistant")
		}

		if len(msg.Content) == 0 {
			result.Add(field+".content", "must not be empty")
		}

		currentToolUseIDs := make(map[string]bool)
		for j, block := range msg.Content {
			blockField := fmt.Sprintf("%s.content.%d", field, j)
			validateBlock(msg.Role, block, blockField, declaredTools, priorToolUseIDs, result)
			if block.Type == BlockToolUse {
				currentToolUseIDs[block.ID] = true
			}
		}
		priorToolUseIDs = currentToolUseIDs
	}

	return result
}

func validateBlock(role Role, block ContentBlock, field string, declaredTools, priorToolUseIDs map[string]bool, result *ValidationResult) {
	switch block.Type {
	case BlockText:
		if block.Text == "" {
			result.Add(field+".text", "is required for text blocks")
		}
	case BlockImage:
		if block.Source == nil {
			result.Add(field+".source", "is required for image blocks")
		}
	case BlockToolUse:
		if role != RoleAssistant {
			result.Add(field, "tool_use blocks only appear in assistant messages")
		}
		if block.ID == "" {
			result.Add(field+".id", "is required for tool_use blocks")
		}
		if block.Name == "" {
			result.Add(field+".name", "is required for tool_use blocks")
		} else if len(declaredTools) > 0 && !declaredTools[block.Name] {
			result.Add(field+".name", fmt.Sprintf("references undeclared tool: %s", block.Name))
		}
	case BlockToolResult:
		if role != RoleUser {
			result.Add(field, "tool_result blocks only appear in user messages")
		}
		if block.ToolUseID == "" {
			result.Add(field+".tool_use_id", "is required for tool_result blocks")
		} else if !priorToolUseIDs[block.ToolUseID] {
			result.Add(field+".tool_use_id", fmt.Sprintf("does not match a tool_use id in the preceding assistant message: %s", block.ToolUseID))
		}
	default:
		result.Add(field+".type", fmt.Sprintf("unknown content block type: %q", block.Type))
	}
}
