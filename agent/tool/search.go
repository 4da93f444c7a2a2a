package tool

import (
	"context"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	serperx "github.com/tanpawarit/marketing-ai/pkg/serper"
)

const maxSearchResults = 20

type SearchOutput struct {
	Query   string           `json:"query"`
	Results []serperx.Result `json:"results"`
}

func searchToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolWebSearch,
		Desc: "Search the web for recent articles, news and discussions about a query.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Desc: "Search query", Required: true},
			"num":   {Type: schema.Integer, Desc: "Number of results, 1 to 20"},
		}),
	}
}

func executeSearch(ctx context.Context, searcher Searcher, tool string, args map[string]any) (contractx.ToolResult, error) {
	query, err := stringArg(args, "query", true)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	num, err := intArg(args, "num", 0)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	if num < 0 || num > maxSearchResults {
		num = maxSearchResults
	}

	results, err := searcher.Search(ctx, query, num)
	if err != nil {
		if ctx.Err() != nil {
			return contractx.ToolResult{}, ctx.Err()
		}
		return contractx.ToolResult{Tool: tool, Error: "search failed: " + err.Error()}, nil
	}

	return contractx.ToolResult{
		Tool: tool,
		Result: SearchOutput{
			Query:   query,
			Results: results,
		},
	}, nil
}
