package sim

import (
	"encoding/json"
	"fmt"
	"hash/fnv"

	"github.com/chatsim-dev/chatsim/internal/api"
)

// formatResponse wraps an applied response message in the provider's
// response envelope. Token usage is always zero: the engine never performs
// token accounting, and callers may rely on that.
func (e *Engine) formatResponse(testName string, stepIndex int, msg api.Message, session *api.Request) *api.Response {
	return &api.Response{
		ID:         responseID(testName, stepIndex),
		Type:       "message",
		Role:       msg.Role,
		Content:    msg.Content,
		Model:      session.Model,
		StopReason: stopReason(msg),
		Usage:      api.Usage{},
	}
}

// stopReason is tool_use iff the message carries at least one unresolved
// tool invocation, end_turn otherwise.
func stopReason(msg api.Message) string {
	for _, block := range msg.Content {
		if block.Type == api.BlockToolUse {
			return api.StopToolUse
		}
	}
	return api.StopEndTurn
}

// responseID derives a stable message id from the test case and step, so
// identical runs produce identical responses.
func responseID(testName string, stepIndex int) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s#%d", testName, stepIndex)
	return fmt.Sprintf("msg_sim_%016x", h.Sum64())
}

// FormatStream renders a response as the provider's SSE event sequence:
// message_start, then one start/delta/stop group per content block in
// positional order, then message_delta with the stop reason and a terminal
// message_stop. Text arrives as a single text_delta; tool_use input as a
// single input_json_delta.
func FormatStream(resp *api.Response) []api.StreamEvent {
	head := *resp
	head.Content = []api.ContentBlock{}
	head.StopReason = ""

	events := []api.StreamEvent{
		{Type: api.EventMessageStart, Message: &head},
	}

	for i, block := range resp.Content {
		switch block.Type {
		case api.BlockText:
			open := api.TextBlock("")
			events = append(events,
				api.StreamEvent{Type: api.EventContentBlockStart, Index: i, ContentBlock: &open},
				api.StreamEvent{Type: api.EventContentBlockDelta, Index: i, Delta: &api.Delta{Type: "text_delta", Text: block.Text}},
			)
		case api.BlockToolUse:
			open := api.ToolUseBlock(block.ID, block.Name, map[string]any{})
			input, err := json.Marshal(block.Input)
			if err != nil {
				input = []byte("{}")
			}
			events = append(events,
				api.StreamEvent{Type: api.EventContentBlockStart, Index: i, ContentBlock: &open},
				api.StreamEvent{Type: api.EventContentBlockDelta, Index: i, Delta: &api.Delta{Type: "input_json_delta", PartialJSON: string(input)}},
			)
		default:
			full := block.Clone()
			events = append(events,
				api.StreamEvent{Type: api.EventContentBlockStart, Index: i, ContentBlock: &full},
			)
		}
		events = append(events, api.StreamEvent{Type: api.EventContentBlockStop, Index: i})
	}

	usage := resp.Usage
	events = append(events,
		api.StreamEvent{Type: api.EventMessageDelta, Delta: &api.Delta{StopReason: resp.StopReason}, Usage: &usage},
		api.StreamEvent{Type: api.EventMessageStop},
	)
	return events
}
