package sim

import (
	"context"
	"fmt"

	"github.com/chatsim-dev/chatsim/internal/api"
	"github.com/chatsim-dev/chatsim/internal/errors"
)

// ToolRunner executes a named tool with structured input and returns its
// textual output. Implementations own their timeout and cancellation policy;
// the engine invokes Execute as a plain synchronous call.
type ToolRunner interface {
	Execute(ctx context.Context, name string, input map[string]any) (string, error)
}

// ToolInvocation is a pending tool call extracted from a tool_use block.
// Invocations live only for the duration of one Simulate call.
type ToolInvocation struct {
	ID    string
	Name  string
	Input map[string]any
}

// ToolResult is the outcome of resolving one invocation.
type ToolResult struct {
	ToolUseID string
	Content   string
	IsError   bool
}

// extractInvocations collects the tool_use blocks of a message, in order.
func extractInvocations(msg api.Message) []ToolInvocation {
	var invocations []ToolInvocation
	for _, block := range msg.Content {
		if block.Type == api.BlockToolUse {
			invocations = append(invocations, ToolInvocation{
				ID:    block.ID,
				Name:  block.Name,
				Input: block.Input,
			})
		}
	}
	return invocations
}

// resolveTools produces results for the pending invocations per the step's
// behavior. The halt return is true when the behavior surfaces the tool_use
// to the caller instead of resolving it (skip, and any unknown behavior).
//
// Under execute, a failing tool becomes an is_error result rather than an
// error: one failing tool must not abort the others or the run. Only a
// missing runner is an error, since that is a configuration mistake.
func (e *Engine) resolveTools(ctx context.Context, invocations []ToolInvocation, behavior ToolBehavior, mockResults map[string]string) ([]ToolResult, bool, error) {
	switch behavior {
	case ToolMock:
		results := make([]ToolResult, len(invocations))
		for i, inv := range invocations {
			content, ok := mockResults[inv.Name]
			if !ok {
				content = fmt.Sprintf("Mock result for %s", inv.Name)
			}
			results[i] = ToolResult{ToolUseID: inv.ID, Content: content}
		}
		return results, false, nil

	case ToolExecute:
		if e.runner == nil {
			name := ""
			if len(invocations) > 0 {
				name = invocations[0].Name
			}
			return nil, false, errors.ToolNoRunner(name)
		}
		results := make([]ToolResult, len(invocations))
		for i, inv := range invocations {
			output, err := e.runner.Execute(ctx, inv.Name, inv.Input)
			if err != nil {
				e.logger.Debug("tool execution failed",
					"tool", inv.Name,
					"tool_use_id", inv.ID,
					"error", err,
				)
				results[i] = ToolResult{
					ToolUseID: inv.ID,
					Content:   fmt.Sprintf("Error executing tool %s: %v", inv.Name, err),
					IsError:   true,
				}
				continue
			}
			results[i] = ToolResult{ToolUseID: inv.ID, Content: output}
		}
		return results, false, nil

	case ToolSkip:
		return nil, true, nil

	default:
		// Unknown behaviors resolve as skip rather than failing the run.
		e.logger.Warn("unknown tool behavior, treating as skip", "behavior", behavior)
		return nil, true, nil
	}
}

// foldResults turns tool results into the single user message a real client
// would send back, one tool_result block per invocation, preserving order.
func foldResults(results []ToolResult) api.Message {
	content := make([]api.ContentBlock, len(results))
	for i, res := range results {
		content[i] = api.ToolResultBlock(res.ToolUseID, res.Content, res.IsError)
	}
	return api.Message{Role: api.RoleUser, Content: content}
}
