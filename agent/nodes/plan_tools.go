package assistantnode

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/voicedesk/agent/contract"
)

// PlanTools invokes the tool-bound chat model over the enriched context and
// collects any tool calls it requests. A turn without tool calls is fine; the
// assistant content then becomes the reply in FinalizeReply.
func PlanTools(ctx context.Context, in *GraphState, chatModel einomodel.BaseChatModel) (*GraphState, error) {
	if in == nil || in.Context == nil {
		return nil, fmt.Errorf("%w: graph context is nil", contractx.ErrValidation)
	}

	msg, err := chatModel.Generate(ctx, toSchemaMessages(in.Context))
	if err != nil {
		return nil, fmt.Errorf("%w: tool planning invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: empty tool planning response", contractx.ErrSchemaViolation)
	}

	requests, err := toToolRequests(msg.ToolCalls)
	if err != nil {
		return nil, err
	}

	in.AssistantMsg = msg
	in.PlannedCalls = requests
	return in, nil
}

func toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}

		reqs = append(reqs, contractx.ToolRequest{
			Tool:   name,
			Args:   args,
			CallID: call.ID,
		})
	}
	return reqs, nil
}

// toSchemaMessages converts the session context to model wire messages.
// Memory entries ride along as assistant-role messages prefixed with
// "Relevant Memory:", which is how the voice runtime presents retrieved
// context to the model.
func toSchemaMessages(cc *contractx.ConversationContext) []*schema.Message {
	msgs := make([]*schema.Message, 0, cc.Len())
	for _, m := range cc.Messages {
		switch m.Role {
		case contractx.RoleSystem:
			msgs = append(msgs, schema.SystemMessage(m.Content))
		case contractx.RoleAssistant:
			msgs = append(msgs, schema.AssistantMessage(m.Content, nil))
		case contractx.RoleMemory:
			msgs = append(msgs, schema.AssistantMessage("Relevant Memory: "+m.Content, nil))
		default:
			msgs = append(msgs, schema.UserMessage(m.Content))
		}
	}
	return msgs
}
