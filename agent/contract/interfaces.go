package contract

import "context"

// Agent performs crew tasks for one role.
type Agent interface {
	Type() AgentType
	Perform(ctx context.Context, req TaskRequest) (TaskResponse, error)
}

type Registry interface {
	TrendResearcher() Agent
	Strategist() Agent
	CampaignDesigner() Agent
}

type ToolGateway interface {
	Execute(ctx context.Context, agentType AgentType, reqs []ToolRequest) ([]ToolResult, error)
}

type Publisher interface {
	PublishReport(ctx context.Context, event ReportEvent) error
}
