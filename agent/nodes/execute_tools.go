package assistantnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/voicedesk/agent/contract"
	toolx "github.com/tanpawarit/voicedesk/agent/tool"
)

// ExecuteTools runs every planned call through the static dispatch executor.
// Tool-level problems (unknown tool, bad arguments, conflicts) travel inside
// the ToolResult for the model to see; only infrastructure faults become Go
// errors.
func ExecuteTools(ctx context.Context, in *GraphState, executor toolx.Executor) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if len(in.PlannedCalls) == 0 {
		return in, nil
	}

	results := make([]contractx.ToolResult, 0, len(in.PlannedCalls))
	for _, call := range in.PlannedCalls {
		result, err := executor(ctx, call.Tool, call.Args)
		if err != nil {
			return nil, err
		}
		result.CallID = call.CallID
		results = append(results, result)
	}
	in.ToolResults = results
	return in, nil
}
