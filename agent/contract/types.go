package contract

import (
	"encoding/json"
	"time"

	reportx "github.com/tanpawarit/marketing-ai/pkg/report"
)

type AgentType string

const (
	AgentTypeTrendResearcher  AgentType = "trend_researcher"
	AgentTypeStrategist       AgentType = "strategist"
	AgentTypeCampaignDesigner AgentType = "campaign_designer"
)

type TaskName string

const (
	TaskTrend         TaskName = "trend_task"
	TaskStrategy      TaskName = "strategy_task"
	TaskCampaign      TaskName = "campaign_task"
	TaskPDFGeneration TaskName = "pdf_generation_task"
)

// TaskOrder is the sequential order the crew runs tasks in.
var TaskOrder = []TaskName{
	TaskTrend,
	TaskStrategy,
	TaskCampaign,
	TaskPDFGeneration,
}

type Inputs struct {
	Topic       string `json:"topic"`
	CurrentYear string `json:"current_year"`
}

// Vars exposes inputs as template variables for task descriptions.
func (in Inputs) Vars() map[string]string {
	return map[string]string{
		"topic":        in.Topic,
		"current_year": in.CurrentYear,
	}
}

type TaskRequest struct {
	Task TaskName `json:"task"`
	// Inputs fill the placeholders of the agent's role description.
	Inputs         Inputs       `json:"inputs"`
	Description    string       `json:"description"`
	ExpectedOutput string       `json:"expected_output"`
	Context        []TaskOutput `json:"context,omitempty"`
	// OutputSchema is an example of the JSON object expected when
	// Structured is set.
	OutputSchema string `json:"output_schema,omitempty"`
	// Structured asks the agent for a JSON object instead of free text.
	Structured bool `json:"-"`
}

type TaskOutput struct {
	Task   TaskName        `json:"task"`
	Output json.RawMessage `json:"output"`
}

type TaskResponse struct {
	Structured  json.RawMessage `json:"structured,omitempty"`
	Text        string          `json:"text,omitempty"`
	ToolResults []ToolResult    `json:"tool_results,omitempty"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Structured task outputs.
type (
	TrendingTopic         = reportx.Topic
	TrendingTopicList     = reportx.TopicList
	StrategyTrendingTopic = reportx.Strategy
	MarketingCampaign     = reportx.Campaign
	MarketingCampaignList = reportx.CampaignReport
)

type StrategyTrendingTopicList struct {
	Strategies []StrategyTrendingTopic `json:"strategies"`
}

// ReportEvent announces a finished crew run.
type ReportEvent struct {
	RunID        string    `json:"run_id"`
	Topic        string    `json:"topic"`
	CampaignFile string    `json:"campaign_file"`
	ReportPath   string    `json:"report_path"`
	Campaigns    int       `json:"campaigns"`
	Pages        int       `json:"pages"`
	GeneratedAt  time.Time `json:"generated_at"`
}
