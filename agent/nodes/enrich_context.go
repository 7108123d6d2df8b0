package assistantnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/voicedesk/agent/contract"
	memoryx "github.com/tanpawarit/voicedesk/agent/memory"
)

// EnrichContext runs the memory enrichment pipeline over the turn context.
// The enricher swallows memory-service failures, so this node never aborts
// the turn on its account.
func EnrichContext(ctx context.Context, in *GraphState, enricher *memoryx.Enricher) (*GraphState, error) {
	if in == nil || in.Context == nil {
		return nil, fmt.Errorf("%w: graph context is nil", contractx.ErrValidation)
	}
	if enricher != nil {
		enricher.Enrich(ctx, in.Context)
	}
	return in, nil
}
