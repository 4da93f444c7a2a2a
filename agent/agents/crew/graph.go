package crew

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/marketing-ai/agent/nodes"
)

func (c *Crew) compileKickoffGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_inputs",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateInputs(in, c.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_inputs: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_run",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadOrCreateRun(ctx, in, c.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_run: %w", err)
	}

	if err := graph.AddLambdaNode("trend_task",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.TrendTask(ctx, in, c.store, c.agents, c.defs)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node trend_task: %w", err)
	}

	if err := graph.AddLambdaNode("strategy_task",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.StrategyTask(ctx, in, c.store, c.agents, c.defs)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node strategy_task: %w", err)
	}

	if err := graph.AddLambdaNode("campaign_task",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CampaignTask(ctx, in, c.store, c.agents, c.defs, c.paths)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node campaign_task: %w", err)
	}

	if err := graph.AddLambdaNode("pdf_generation_task",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PDFGenerationTask(ctx, in, c.store, c.agents, c.defs, c.paths)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node pdf_generation_task: %w", err)
	}

	if err := graph.AddLambdaNode("publish_report",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PublishReport(ctx, in, c.publisher)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node publish_report: %w", err)
	}

	if err := graph.AddLambdaNode("finalize",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.Finalize(ctx, in, c.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_inputs"},
		{"validate_inputs", "load_or_create_run"},
		{"load_or_create_run", "trend_task"},
		{"trend_task", "strategy_task"},
		{"strategy_task", "campaign_task"},
		{"campaign_task", "pdf_generation_task"},
		{"pdf_generation_task", "publish_report"},
		{"publish_report", "finalize"},
		{"finalize", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("crew.kickoff"))
	if err != nil {
		return nil, fmt.Errorf("compile crew graph: %w", err)
	}
	return runner, nil
}
