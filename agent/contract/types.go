package contract

import "strings"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleMemory    Role = "memory"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ConversationContext is the ordered transcript for one session. Ordering is
// meaningful: the final message is always the latest turn.
type ConversationContext struct {
	Messages []Message `json:"messages"`
}

func NewConversationContext(systemPrompt string) *ConversationContext {
	cc := &ConversationContext{}
	if trimmed := strings.TrimSpace(systemPrompt); trimmed != "" {
		cc.Messages = append(cc.Messages, Message{Role: RoleSystem, Content: trimmed})
	}
	return cc
}

func (c *ConversationContext) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Messages)
}

func (c *ConversationContext) Append(role Role, content string) {
	c.Messages = append(c.Messages, Message{Role: role, Content: content})
}

// Last returns the most recent message, i.e. the current turn.
func (c *ConversationContext) Last() (Message, bool) {
	if c == nil || len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// InsertBeforeLast places msg immediately before the final message, which is
// preserved as the newest entry.
func (c *ConversationContext) InsertBeforeLast(msg Message) {
	if c == nil || len(c.Messages) == 0 {
		return
	}
	last := c.Messages[len(c.Messages)-1]
	c.Messages = append(c.Messages[:len(c.Messages)-1], msg, last)
}

// TruncateTo discards every message past the first n, restoring the
// transcript to an earlier checkpoint.
func (c *ConversationContext) TruncateTo(n int) {
	if c == nil || n < 0 || n >= len(c.Messages) {
		return
	}
	c.Messages = c.Messages[:n]
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
	// CallID ties the request back to the model's tool call so results can be
	// attached to the right message on the follow-up invocation.
	CallID string `json:"call_id,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	CallID string `json:"call_id,omitempty"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
