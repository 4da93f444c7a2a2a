package member

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	llmx "github.com/tanpawarit/marketing-ai/agent/llm"
	promptx "github.com/tanpawarit/marketing-ai/agent/prompt"
)

type registryImpl struct {
	trendResearcher  contractx.Agent
	strategist       contractx.Agent
	campaignDesigner contractx.Agent
}

func (r *registryImpl) TrendResearcher() contractx.Agent {
	return r.trendResearcher
}

func (r *registryImpl) Strategist() contractx.Agent {
	return r.strategist
}

func (r *registryImpl) CampaignDesigner() contractx.Agent {
	return r.campaignDesigner
}

// ModelFactory builds the chat model used by one crew role.
type ModelFactory func(ctx context.Context, agentType contractx.AgentType) (einomodel.ToolCallingChatModel, error)

// LLMModelFactory creates OpenAI-compatible chat models from cfg.
func LLMModelFactory(cfg llmx.Config) ModelFactory {
	return func(ctx context.Context, agentType contractx.AgentType) (einomodel.ToolCallingChatModel, error) {
		modelCfg := cfg.ChatModelFor(agentType)
		chatModel, err := modelCfg.New(ctx)
		if err != nil {
			return nil, err
		}
		return chatModel, nil
	}
}

func NewRegistry(ctx context.Context, cfg llmx.Config, defs promptx.Definitions, toolbox Toolbox, maxToolRounds int) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewRegistryWithModels(ctx, LLMModelFactory(cfg), defs, toolbox, maxToolRounds)
}

func NewRegistryWithModels(ctx context.Context, models ModelFactory, defs promptx.Definitions, toolbox Toolbox, maxToolRounds int) (contractx.Registry, error) {
	if models == nil {
		return nil, fmt.Errorf("%w: model factory is required", contractx.ErrValidation)
	}
	if err := defs.Validate(); err != nil {
		return nil, err
	}

	build := func(agentType contractx.AgentType) (contractx.Agent, error) {
		def, err := defs.Agent(agentType)
		if err != nil {
			return nil, err
		}
		chatModel, err := models(ctx, agentType)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, agentType, err)
		}
		return newMember(ctx, agentType, chatModel, def, toolbox, maxToolRounds)
	}

	trendResearcher, err := build(contractx.AgentTypeTrendResearcher)
	if err != nil {
		return nil, err
	}
	strategist, err := build(contractx.AgentTypeStrategist)
	if err != nil {
		return nil, err
	}
	campaignDesigner, err := build(contractx.AgentTypeCampaignDesigner)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		trendResearcher:  trendResearcher,
		strategist:       strategist,
		campaignDesigner: campaignDesigner,
	}, nil
}
