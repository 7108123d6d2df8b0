package memory

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/voicedesk/agent/contract"
	"github.com/tanpawarit/voicedesk/pkg/mem0"
)

// Client is the slice of the memory service the enricher needs.
type Client interface {
	Add(ctx context.Context, records []mem0.Record, userID string) error
	Search(ctx context.Context, query, userID string) ([]mem0.SearchResult, error)
}

// Enricher rewrites the conversation context before each model invocation:
// it records the latest user utterance and injects semantically relevant
// prior memory. Memory-service failures never abort the turn; the context is
// simply left unchanged.
type Enricher struct {
	client Client
	userID string
}

func NewEnricher(client Client, userID string) (*Enricher, error) {
	if client == nil {
		return nil, errors.New("memory client is required")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	return &Enricher{client: client, userID: userID}, nil
}

// Enrich persists the final message (the current user utterance) and, when
// the search returns hits, inserts a single memory message immediately before
// it. The add is issued before the search; because of that ordering the
// search may retrieve the just-written utterance, and no filtering is applied.
func (e *Enricher) Enrich(ctx context.Context, cc *contractx.ConversationContext) {
	last, ok := cc.Last()
	if !ok {
		return
	}

	record := mem0.Record{Role: string(last.Role), Content: last.Content}
	if err := e.client.Add(ctx, []mem0.Record{record}, e.userID); err != nil {
		log.Warn().Err(err).Str("user_id", e.userID).Msg("memory add failed")
	}

	results, err := e.client.Search(ctx, last.Content, e.userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", e.userID).Msg("memory search failed, continuing without enrichment")
		return
	}
	if len(results) == 0 {
		return
	}

	texts := make([]string, 0, len(results))
	for _, result := range results {
		texts = append(texts, result.Memory)
	}
	cc.InsertBeforeLast(contractx.Message{
		Role:    contractx.RoleMemory,
		Content: strings.Join(texts, " "),
	})
	log.Debug().Int("memories", len(results)).Str("user_id", e.userID).Msg("context enriched with prior memory")
}
