package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	reportx "github.com/tanpawarit/marketing-ai/pkg/report"
	serperx "github.com/tanpawarit/marketing-ai/pkg/serper"
)

const (
	ToolWebSearch     = "web.search"
	ToolStrategyScore = "strategy.score"
	ToolGeneratePDF   = "report.generate_pdf"
)

type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

type Searcher interface {
	Search(ctx context.Context, query string, num int) ([]serperx.Result, error)
}

type Renderer interface {
	RenderFile(jsonPath string, outputPath string) (reportx.Result, error)
}

// Gateway owns the tools available to crew members and runs their calls.
type Gateway struct {
	searcher Searcher
	renderer Renderer
}

type Option func(*Gateway)

func WithSearcher(s Searcher) Option {
	return func(g *Gateway) {
		g.searcher = s
	}
}

func WithRenderer(r Renderer) Option {
	return func(g *Gateway) {
		g.renderer = r
	}
}

func NewGateway(opts ...Option) *Gateway {
	g := &Gateway{}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// InfosFor lists the tools bound to the role's chat model. Tools whose
// backend is not configured are left out.
func (g *Gateway) InfosFor(agentType contractx.AgentType) []*schema.ToolInfo {
	switch agentType {
	case contractx.AgentTypeTrendResearcher:
		if g.searcher == nil {
			return nil
		}
		return []*schema.ToolInfo{searchToolInfo()}
	case contractx.AgentTypeStrategist:
		return []*schema.ToolInfo{scoreToolInfo()}
	case contractx.AgentTypeCampaignDesigner:
		if g.renderer == nil {
			return nil
		}
		return []*schema.ToolInfo{generatePDFToolInfo()}
	default:
		return nil
	}
}

func (g *Gateway) ExecutorFor(agentType contractx.AgentType) Executor {
	allowed := make(map[string]struct{})
	for _, info := range g.InfosFor(agentType) {
		allowed[info.Name] = struct{}{}
	}
	fallback := DefaultExecutor(agentType)

	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		if _, ok := allowed[tool]; !ok {
			return fallback(ctx, tool, args)
		}
		switch tool {
		case ToolWebSearch:
			return executeSearch(ctx, g.searcher, tool, args)
		case ToolStrategyScore:
			return executeScore(tool, args)
		case ToolGeneratePDF:
			return executeGeneratePDF(g.renderer, tool, args)
		default:
			return fallback(ctx, tool, args)
		}
	}
}

func DefaultExecutor(agentType contractx.AgentType) Executor {
	return func(ctx context.Context, tool string, _ map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is unavailable for agent=%s", tool, agentType),
		}, nil
	}
}

// Execute runs the requests in order. Problems the model can correct are
// reported in ToolResult.Error; only cancellation aborts the batch.
func (g *Gateway) Execute(ctx context.Context, agentType contractx.AgentType, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	executor := g.ExecutorFor(agentType)
	results := make([]contractx.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: tool=%s: %v", contractx.ErrToolFailed, req.Tool, err)
		}
		res, err := executor(ctx, req.Tool, req.Args)
		if err != nil {
			return nil, fmt.Errorf("%w: tool=%s: %v", contractx.ErrToolFailed, req.Tool, err)
		}
		log.Debug().
			Str("agent", string(agentType)).
			Str("tool", req.Tool).
			Bool("ok", res.Error == "").
			Msg("tool executed")
		results = append(results, res)
	}
	return results, nil
}

func stringArg(args map[string]any, key string, required bool) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		if required {
			return "", fmt.Errorf("%s is required", key)
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	s = strings.TrimSpace(s)
	if s == "" && required {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

func intArg(args map[string]any, key string, fallback int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}
