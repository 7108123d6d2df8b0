package assistantnode

import (
	"time"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/voicedesk/agent/contract"
)

type GraphInput struct {
	Utterance string
}

type GraphOutput struct {
	Reply string
}

// GraphState flows through one turn of the assistant graph.
type GraphState struct {
	Context *contractx.ConversationContext
	Now     time.Time

	// PlannedCalls and AssistantMsg come out of the tool-planning model
	// invocation; ToolResults out of execution.
	PlannedCalls []contractx.ToolRequest
	AssistantMsg *schema.Message
	ToolResults  []contractx.ToolResult

	Reply string
}
