package assistantnode

import (
	"context"
	"errors"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/voicedesk/agent/contract"
)

type fakeChatModel struct {
	replies []*schema.Message
	errs    []error
	inputs  [][]*schema.Message
	call    int
}

func (f *fakeChatModel) Generate(_ context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, in)
	i := f.call
	f.call++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var msg *schema.Message
	if i < len(f.replies) {
		msg = f.replies[i]
	}
	return msg, err
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

var fixedNow = func() time.Time {
	return time.Date(2023, 8, 15, 12, 0, 0, 0, time.UTC)
}

func TestValidateTurnAppendsUtterance(t *testing.T) {
	t.Parallel()

	cc := contractx.NewConversationContext("system prompt")
	state, err := ValidateTurn(GraphInput{Utterance: "  hello  "}, cc, fixedNow)
	if err != nil {
		t.Fatalf("ValidateTurn() error = %v", err)
	}
	if state.Now != fixedNow() {
		t.Fatalf("Now = %v, want fixed clock", state.Now)
	}

	last, _ := cc.Last()
	if last.Role != contractx.RoleUser || last.Content != "hello" {
		t.Fatalf("unexpected last message: %#v", last)
	}
}

func TestValidateTurnEmptyUtterance(t *testing.T) {
	t.Parallel()

	cc := contractx.NewConversationContext("system prompt")
	if _, err := ValidateTurn(GraphInput{Utterance: "   "}, cc, fixedNow); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("ValidateTurn() error = %v, want ErrValidation", err)
	}
}

func TestPlanToolsCollectsToolCalls(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{replies: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{
				{
					ID: "call-1",
					Function: schema.FunctionCall{
						Name:      "schedule.book_appointment",
						Arguments: `{"name":"Jane","phone":"555-0100","date":"2023-08-15","time":"10:00"}`,
					},
				},
			},
		},
	}}

	cc := contractx.NewConversationContext("system prompt")
	cc.Append(contractx.RoleUser, "book me in")
	state := &GraphState{Context: cc}

	state, err := PlanTools(context.Background(), state, model)
	if err != nil {
		t.Fatalf("PlanTools() error = %v", err)
	}
	if len(state.PlannedCalls) != 1 {
		t.Fatalf("planned %d calls, want 1", len(state.PlannedCalls))
	}
	call := state.PlannedCalls[0]
	if call.Tool != "schedule.book_appointment" || call.CallID != "call-1" {
		t.Fatalf("unexpected call: %#v", call)
	}
	if call.Args["name"] != "Jane" {
		t.Fatalf("unexpected args: %#v", call.Args)
	}
}

func TestPlanToolsInvalidArgsJSON(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{replies: []*schema.Message{
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{
				{ID: "call-1", Function: schema.FunctionCall{Name: "schedule.get_busy_slots", Arguments: "{not json"}},
			},
		},
	}}

	cc := contractx.NewConversationContext("system prompt")
	cc.Append(contractx.RoleUser, "hi")
	if _, err := PlanTools(context.Background(), &GraphState{Context: cc}, model); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("PlanTools() error = %v, want ErrSchemaViolation", err)
	}
}

func TestExecuteToolsRunsEveryCall(t *testing.T) {
	t.Parallel()

	var executed []string
	executor := func(_ context.Context, tool string, _ map[string]any) (contractx.ToolResult, error) {
		executed = append(executed, tool)
		return contractx.ToolResult{Tool: tool, Result: "ok"}, nil
	}

	state := &GraphState{
		PlannedCalls: []contractx.ToolRequest{
			{Tool: "schedule.get_available_slots", CallID: "a"},
			{Tool: "schedule.get_todays_date", CallID: "b"},
		},
	}
	state, err := ExecuteTools(context.Background(), state, executor)
	if err != nil {
		t.Fatalf("ExecuteTools() error = %v", err)
	}
	if len(executed) != 2 {
		t.Fatalf("executed %d tools, want 2", len(executed))
	}
	if state.ToolResults[0].CallID != "a" || state.ToolResults[1].CallID != "b" {
		t.Fatalf("call ids not propagated: %#v", state.ToolResults)
	}
}

func TestFinalizeReplyWithoutTools(t *testing.T) {
	t.Parallel()

	cc := contractx.NewConversationContext("system prompt")
	cc.Append(contractx.RoleUser, "hi")
	state := &GraphState{
		Context:      cc,
		AssistantMsg: &schema.Message{Role: schema.Assistant, Content: "Hello! This is Alex from Swift Motors."},
	}

	out, err := FinalizeReply(context.Background(), state, &fakeChatModel{})
	if err != nil {
		t.Fatalf("FinalizeReply() error = %v", err)
	}
	if out.Reply != "Hello! This is Alex from Swift Motors." {
		t.Fatalf("unexpected reply: %q", out.Reply)
	}

	last, _ := cc.Last()
	if last.Role != contractx.RoleAssistant || last.Content != out.Reply {
		t.Fatalf("reply not appended to context: %#v", last)
	}
}

func TestFinalizeReplyWithToolResults(t *testing.T) {
	t.Parallel()

	cc := contractx.NewConversationContext("system prompt")
	cc.Append(contractx.RoleUser, "what slots are open?")

	assistantMsg := &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: "call-1", Function: schema.FunctionCall{Name: "schedule.get_available_slots"}},
		},
	}
	model := &fakeChatModel{replies: []*schema.Message{
		{Role: schema.Assistant, Content: "We have an opening on the 15th at 10am."},
	}}

	state := &GraphState{
		Context:      cc,
		AssistantMsg: assistantMsg,
		ToolResults: []contractx.ToolResult{
			{Tool: "schedule.get_available_slots", CallID: "call-1", Result: "Available appointment slots:\n- 2023-08-15 at 10:00"},
		},
	}

	out, err := FinalizeReply(context.Background(), state, model)
	if err != nil {
		t.Fatalf("FinalizeReply() error = %v", err)
	}
	if out.Reply != "We have an opening on the 15th at 10am." {
		t.Fatalf("unexpected reply: %q", out.Reply)
	}

	// The follow-up invocation must carry the tool-call message and its result.
	if len(model.inputs) != 1 {
		t.Fatalf("model invoked %d times, want 1", len(model.inputs))
	}
	msgs := model.inputs[0]
	lastMsg := msgs[len(msgs)-1]
	if lastMsg.Role != schema.Tool || lastMsg.ToolCallID != "call-1" {
		t.Fatalf("unexpected trailing message: %#v", lastMsg)
	}
}

func TestToSchemaMessagesMemoryRole(t *testing.T) {
	t.Parallel()

	cc := contractx.NewConversationContext("system prompt")
	cc.Append(contractx.RoleMemory, "likes SUVs")
	cc.Append(contractx.RoleUser, "I want an SUV")

	msgs := toSchemaMessages(cc)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[1].Role != schema.Assistant || msgs[1].Content != "Relevant Memory: likes SUVs" {
		t.Fatalf("unexpected memory conversion: %#v", msgs[1])
	}
}
