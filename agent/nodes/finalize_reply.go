package assistantnode

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/voicedesk/agent/contract"
)

// FinalizeReply produces the spoken reply. When the planning invocation
// requested tools, the model is invoked again with the tool results attached;
// otherwise its content is used directly. The reply is appended to the
// session context as the assistant message.
func FinalizeReply(ctx context.Context, in *GraphState, chatModel einomodel.BaseChatModel) (GraphOutput, error) {
	if in == nil || in.Context == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph context is nil", contractx.ErrValidation)
	}

	reply := ""
	if len(in.ToolResults) == 0 {
		if in.AssistantMsg == nil {
			return GraphOutput{}, fmt.Errorf("%w: missing assistant message", contractx.ErrSchemaViolation)
		}
		reply = strings.TrimSpace(in.AssistantMsg.Content)
	} else {
		msgs := toSchemaMessages(in.Context)
		msgs = append(msgs, in.AssistantMsg)
		for _, result := range in.ToolResults {
			msgs = append(msgs, schema.ToolMessage(toolResultText(result), result.CallID))
		}

		msg, err := chatModel.Generate(ctx, msgs)
		if err != nil {
			return GraphOutput{}, fmt.Errorf("%w: finalize invoke: %v", contractx.ErrModelInvoke, err)
		}
		if msg != nil {
			reply = strings.TrimSpace(msg.Content)
		}
	}

	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: assistant reply is empty", contractx.ErrSchemaViolation)
	}

	in.Context.Append(contractx.RoleAssistant, reply)
	in.Reply = reply
	return GraphOutput{Reply: reply}, nil
}

func toolResultText(result contractx.ToolResult) string {
	if result.Error != "" {
		return result.Error
	}
	return result.Result
}
