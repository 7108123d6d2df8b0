package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/voicedesk/agent/agents/assistant"
	"github.com/tanpawarit/voicedesk/agent/llm"
	memoryx "github.com/tanpawarit/voicedesk/agent/memory"
	"github.com/tanpawarit/voicedesk/agent/prompt"
	schedulex "github.com/tanpawarit/voicedesk/agent/schedule"
	configx "github.com/tanpawarit/voicedesk/pkg/config"
	_ "github.com/tanpawarit/voicedesk/pkg/logger/autoload"
	"github.com/tanpawarit/voicedesk/pkg/mem0"
	openrouterx "github.com/tanpawarit/voicedesk/pkg/openrouter"
)

type AppConfig struct {
	UserID string `envconfig:"USER_ID" split_words:"true" required:"true"`
	// StoreBackend selects the scheduling persistence: "csv" or "postgres".
	StoreBackend string `envconfig:"STORE_BACKEND" split_words:"true" default:"csv"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("")

	store, cleanup, err := buildStore(ctx, appCfg.StoreBackend)
	if err != nil {
		log.Fatal().Err(err).Msg("build scheduling store")
	}
	defer cleanup()

	mem0Cfg := configx.MustNew[mem0.Config]("MEM0")
	mem0Client, err := mem0.NewClient(*mem0Cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build mem0 client")
	}

	enricher, err := memoryx.NewEnricher(mem0Client, appCfg.UserID)
	if err != nil {
		log.Fatal().Err(err).Msg("build memory enricher")
	}

	llmCfg := configx.MustNew[llm.Config]("OPENROUTER")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("validate llm config")
	}
	openRouterCfg := llmCfg.OpenRouter()
	if openrouterx.NewClient(openRouterCfg) == nil {
		log.Fatal().Msg("openrouter credentials are missing")
	}
	chatModel, err := openRouterCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build chat model")
	}

	agent, err := assistant.New(store, chatModel, enricher, assistant.Config{
		SystemPrompt: prompt.Assistant(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build assistant")
	}

	log.Info().
		Str("session_id", agent.SessionID()).
		Str("user_id", appCfg.UserID).
		Str("store", appCfg.StoreBackend).
		Msg("assistant ready")

	// The voice transport is external; this loop stands in for it, feeding
	// transcribed utterances line by line.
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		utterance := strings.TrimSpace(scanner.Text())
		if utterance == "" {
			continue
		}
		reply, err := agent.HandleTurn(ctx, utterance)
		if err != nil {
			log.Error().Err(err).Msg("turn failed")
			continue
		}
		fmt.Println(reply)
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("read input")
	}
}

func buildStore(ctx context.Context, backend string) (schedulex.Store, func(), error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "postgres":
		pgCfg := configx.MustNew[schedulex.PostgresConfig]("POSTGRES")
		store, err := schedulex.NewBunStoreFromConfig(*pgCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Init(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		fileCfg := configx.MustNew[schedulex.FileConfig]("SCHEDULE")
		store, err := schedulex.NewCSVStore(*fileCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
