package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	contractx "github.com/tanpawarit/voicedesk/agent/contract"
	memoryx "github.com/tanpawarit/voicedesk/agent/memory"
	nodex "github.com/tanpawarit/voicedesk/agent/nodes"
	schedulex "github.com/tanpawarit/voicedesk/agent/schedule"
	toolx "github.com/tanpawarit/voicedesk/agent/tool"
)

type Config struct {
	SystemPrompt string
}

// Assistant runs one conversational session: it owns the session context and
// processes turns strictly sequentially, each turn flowing through the
// compiled graph (validate, enrich with memory, plan tools, execute,
// finalize). The surrounding voice transport hands in transcribed utterances
// and speaks the returned replies.
type Assistant struct {
	mu        sync.Mutex
	sessionID string
	context   *contractx.ConversationContext

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	store schedulex.Store,
	chatModel einomodel.ToolCallingChatModel,
	enricher *memoryx.Enricher,
	cfg Config,
) (*Assistant, error) {
	if store == nil {
		return nil, errors.New("scheduling store is required")
	}
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		return nil, contractx.ErrPromptMissing
	}

	infos, executor := toolx.BuildForAssistant(store, time.Now)
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, err
	}

	a := &Assistant{
		sessionID: uuid.NewString(),
		context:   contractx.NewConversationContext(cfg.SystemPrompt),
		now:       time.Now,
	}

	graphRunner, err := a.compileTurnGraph(context.Background(), toolModel, enricher, executor)
	if err != nil {
		return nil, err
	}
	a.graphRunner = graphRunner

	return a, nil
}

func (a *Assistant) SessionID() string {
	return a.sessionID
}

// HandleTurn processes one user utterance and returns the assistant reply.
// Turns are serialized: context rewriting depends on the prior turn's
// ordering, so a session never interleaves turns. A failed turn leaves no
// trace in the session context, so a retried utterance is not doubled.
func (a *Assistant) HandleTurn(ctx context.Context, utterance string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	checkpoint := a.context.Len()
	out, err := a.graphRunner.Invoke(ctx, nodex.GraphInput{Utterance: utterance})
	if err != nil {
		a.context.TruncateTo(checkpoint)
		return "", err
	}
	return out.Reply, nil
}
