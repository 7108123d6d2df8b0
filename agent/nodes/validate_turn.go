package assistantnode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/voicedesk/agent/contract"
)

// ValidateTurn checks the incoming utterance and appends it to the session
// context as the newest user message.
func ValidateTurn(in GraphInput, cc *contractx.ConversationContext, now func() time.Time) (*GraphState, error) {
	if cc == nil {
		return nil, fmt.Errorf("%w: conversation context is nil", contractx.ErrValidation)
	}

	utterance := strings.TrimSpace(in.Utterance)
	if utterance == "" {
		return nil, fmt.Errorf("%w: utterance is empty", contractx.ErrValidation)
	}

	cc.Append(contractx.RoleUser, utterance)
	return &GraphState{
		Context: cc,
		Now:     now(),
	}, nil
}
