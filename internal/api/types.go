// Package api defines the provider wire shapes chatsim reads and writes.
//
// The JSON layout mirrors the Anthropic Messages API so that simulated
// requests and responses are interchangeable with real ones at the caller's
// boundary.
package api

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType discriminates the ContentBlock union.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockImage      BlockType = "image"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// StopReason values the simulator produces.
const (
	StopEndTurn = "end_turn"
	StopToolUse = "tool_use"
)

// ContentBlock is one element of a message's content array. It is a closed
// union over text, image, tool_use and tool_result; Type selects the variant
// and the variant's fields are the only ones populated.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// image
	Source *ImageSource `json:"source,omitempty"`

	// tool_use
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// ImageSource carries image payload metadata for image blocks.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
}

// TextBlock constructs a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ImageBlock constructs an image content block.
func ImageBlock(source ImageSource) ContentBlock {
	return ContentBlock{Type: BlockImage, Source: &source}
}

// ToolUseBlock constructs a tool_use content block.
func ToolUseBlock(id, name string, input map[string]any) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock constructs a tool_result content block.
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content, IsError: isError}
}

// Message is one turn of a conversation.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// SystemBlock is one entry of the request's system array.
type SystemBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Tool declares a tool the assistant may invoke.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// Request is the chat-completion request body. A stored session file is
// exactly this shape. Temperature is a pointer so an explicit 0 in a
// session file is distinguishable from the field being unset.
type Request struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature *float64      `json:"temperature,omitempty"`
	System      []SystemBlock `json:"system,omitempty"`
	Tools       []Tool        `json:"tools,omitempty"`
	Messages    []Message     `json:"messages"`
}

// Usage reports token accounting. The simulator always reports zero.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the chat-completion response envelope.
type Response struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         Role           `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason,omitempty"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        Usage          `json:"usage"`
}

// Clone returns a deep copy of the request. The simulator mutates only the
// clone, never the caller's request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	out := &Request{
		Model:     r.Model,
		MaxTokens: r.MaxTokens,
	}
	if r.Temperature != nil {
		temp := *r.Temperature
		out.Temperature = &temp
	}
	if r.System != nil {
		out.System = make([]SystemBlock, len(r.System))
		copy(out.System, r.System)
	}
	if r.Tools != nil {
		out.Tools = make([]Tool, len(r.Tools))
		for i, tool := range r.Tools {
			out.Tools[i] = Tool{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: cloneMap(tool.InputSchema),
			}
		}
	}
	if r.Messages != nil {
		out.Messages = make([]Message, len(r.Messages))
		for i, msg := range r.Messages {
			out.Messages[i] = msg.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := Message{Role: m.Role}
	if m.Content != nil {
		out.Content = make([]ContentBlock, len(m.Content))
		for i, block := range m.Content {
			out.Content[i] = block.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the content block.
func (b ContentBlock) Clone() ContentBlock {
	out := b
	if b.Source != nil {
		src := *b.Source
		out.Source = &src
	}
	out.Input = cloneMap(b.Input)
	return out
}

// cloneMap deep-copies a JSON-shaped map (maps, slices and scalars).
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		// Scalars (string, bool, numbers, nil) are value types.
		return v
	}
}
