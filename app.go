package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/marketing-ai/agent/agents/crew"
	"github.com/tanpawarit/marketing-ai/agent/agents/member"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	llmx "github.com/tanpawarit/marketing-ai/agent/llm"
	promptx "github.com/tanpawarit/marketing-ai/agent/prompt"
	statex "github.com/tanpawarit/marketing-ai/agent/state"
	toolx "github.com/tanpawarit/marketing-ai/agent/tool"
	configx "github.com/tanpawarit/marketing-ai/pkg/config"
	qstashx "github.com/tanpawarit/marketing-ai/pkg/qstash"
	reportx "github.com/tanpawarit/marketing-ai/pkg/report"
	serperx "github.com/tanpawarit/marketing-ai/pkg/serper"
)

func newRenderer() (*reportx.Renderer, error) {
	reportCfg, err := configx.New[reportx.Config]("REPORT")
	if err != nil {
		return nil, err
	}
	return reportx.NewRenderer(*reportCfg), nil
}

// newCrew wires the crew from environment configuration. The returned func
// releases the state store.
func newCrew(ctx context.Context) (*crew.Crew, func(), error) {
	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return nil, nil, err
	}
	settings, err := configx.New[crew.Settings]("CREW")
	if err != nil {
		return nil, nil, err
	}
	stateCfg, err := configx.New[statex.Config]("STATE")
	if err != nil {
		return nil, nil, err
	}
	serperCfg, err := configx.New[serperx.Config]("SERPER")
	if err != nil {
		return nil, nil, err
	}
	qstashCfg, err := configx.New[qstashx.Config]("QSTASH")
	if err != nil {
		return nil, nil, err
	}

	renderer, err := newRenderer()
	if err != nil {
		return nil, nil, err
	}
	opts := []toolx.Option{toolx.WithRenderer(renderer)}
	if serperCfg.APIKey != "" {
		searcher, err := serperx.NewClient(*serperCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create serper client: %w", err)
		}
		opts = append(opts, toolx.WithSearcher(searcher))
	} else {
		log.Warn().Msg("SERPER_API_KEY not set, trend research runs without web search")
	}
	gateway := toolx.NewGateway(opts...)

	defs, err := promptx.LoadDefinitions(settings.PromptDir)
	if err != nil {
		return nil, nil, err
	}

	registry, err := member.NewRegistry(ctx, *llmCfg, defs, gateway, settings.MaxToolRounds)
	if err != nil {
		return nil, nil, err
	}

	store, err := statex.NewStore(ctx, *stateCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s state store: %w", stateCfg.Backend, err)
	}

	release := func() {
		if closer, ok := store.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				log.Warn().Err(err).Msg("close state store")
			}
		}
	}

	var publisher contractx.Publisher
	if qstashCfg.Enabled() {
		client, err := qstashx.NewClient(*qstashCfg)
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("create qstash client: %w", err)
		}
		publisher = crew.NewQStashPublisher(client)
	}

	c, err := crew.New(store, registry, defs, publisher, *settings)
	if err != nil {
		release()
		return nil, nil, err
	}
	return c, release, nil
}
