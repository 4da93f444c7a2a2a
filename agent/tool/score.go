package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
)

const (
	minRating = 0
	maxRating = 10
)

// Criterion is one weighted dimension of a strategy score.
type Criterion struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Rating float64 `json:"rating"`
}

type ScoreOutput struct {
	Score     float64     `json:"score"`
	Criteria  []Criterion `json:"criteria"`
	MaxRating float64     `json:"max_rating"`
}

func scoreToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolStrategyScore,
		Desc: "Compute a 0-10 strategy score as the weighted average of criterion ratings.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"criteria": {
				Type:     schema.Array,
				Desc:     "Scoring criteria such as reach, relevance or cost",
				Required: true,
				ElemInfo: &schema.ParameterInfo{
					Type: schema.Object,
					SubParams: map[string]*schema.ParameterInfo{
						"name":   {Type: schema.String, Desc: "Criterion name", Required: true},
						"weight": {Type: schema.Number, Desc: "Relative weight, greater than 0", Required: true},
						"rating": {Type: schema.Number, Desc: "Rating from 0 to 10", Required: true},
					},
				},
			},
		}),
	}
}

func executeScore(tool string, args map[string]any) (contractx.ToolResult, error) {
	criteria, err := parseCriteria(args)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	score, err := weightedScore(criteria)
	if err != nil {
		return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
	}
	return contractx.ToolResult{
		Tool: tool,
		Result: ScoreOutput{
			Score:     score,
			Criteria:  criteria,
			MaxRating: maxRating,
		},
	}, nil
}

func parseCriteria(args map[string]any) ([]Criterion, error) {
	raw, ok := args["criteria"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("criteria is required")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("criteria is invalid: %v", err)
	}
	var criteria []Criterion
	if err := json.Unmarshal(data, &criteria); err != nil {
		return nil, fmt.Errorf("criteria must be a list of {name, weight, rating}")
	}
	if len(criteria) == 0 {
		return nil, fmt.Errorf("criteria must not be empty")
	}
	return criteria, nil
}

func weightedScore(criteria []Criterion) (float64, error) {
	var sum, weights float64
	for i, c := range criteria {
		if strings.TrimSpace(c.Name) == "" {
			return 0, fmt.Errorf("criteria[%d].name is required", i)
		}
		if c.Weight <= 0 {
			return 0, fmt.Errorf("criteria[%d].weight must be greater than 0", i)
		}
		if c.Rating < minRating || c.Rating > maxRating {
			return 0, fmt.Errorf("criteria[%d].rating must be between %d and %d", i, minRating, maxRating)
		}
		sum += c.Weight * c.Rating
		weights += c.Weight
	}
	return math.Round(sum/weights*10) / 10, nil
}
