package member

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	promptx "github.com/tanpawarit/marketing-ai/agent/prompt"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
	tools     []*schema.ToolInfo
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.tools = tools
	return f, nil
}

type fakeToolbox struct {
	infos []*schema.ToolInfo
	calls []contractx.ToolRequest
}

func (f *fakeToolbox) InfosFor(contractx.AgentType) []*schema.ToolInfo {
	return f.infos
}

func (f *fakeToolbox) Execute(_ context.Context, _ contractx.AgentType, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	out := make([]contractx.ToolResult, 0, len(reqs))
	for _, r := range reqs {
		f.calls = append(f.calls, r)
		out = append(out, contractx.ToolResult{Tool: r.Tool, Result: map[string]any{"path": "/tmp/campaign.pdf"}})
	}
	return out, nil
}

func testDefinition() promptx.AgentDefinition {
	return promptx.AgentDefinition{
		Role:      "{topic} Campaign Designer",
		Goal:      "Design campaigns",
		Backstory: "Creative director",
	}
}

func toolCall(name string, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{
				ID:   "call_1",
				Type: "function",
				Function: schema.FunctionCall{
					Name:      name,
					Arguments: args,
				},
			},
		},
	}
}

func TestPerformStructuredWithoutTools(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: "<think>draft first</think>\n```json\n{\"strategies\":[{\"score\":\"8\"}]}\n```"},
		},
	}

	m, err := newMember(context.Background(), contractx.AgentTypeStrategist, fake, testDefinition(), &fakeToolbox{}, 0)
	if err != nil {
		t.Fatalf("newMember() error = %v", err)
	}

	resp, err := m.Perform(context.Background(), contractx.TaskRequest{
		Task:         contractx.TaskStrategy,
		Inputs:       contractx.Inputs{Topic: "AI LLMs", CurrentYear: "2025"},
		Description:  "Score strategies",
		OutputSchema: `{"strategies":[]}`,
		Structured:   true,
	})
	if err != nil {
		t.Fatalf("Perform() error = %v", err)
	}
	if string(resp.Structured) != `{"strategies":[{"score":"8"}]}` {
		t.Fatalf("unexpected structured output: %s", resp.Structured)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("expected a single model call, got %d", len(fake.inputs))
	}
	system := fake.inputs[0][0].Content
	if !strings.HasPrefix(system, "You are AI LLMs Campaign Designer.") {
		t.Fatalf("unexpected system prompt: %q", system)
	}
	if !strings.Contains(fake.inputs[0][1].Content, `"mode":"finalize"`) {
		t.Fatalf("unexpected user payload: %q", fake.inputs[0][1].Content)
	}
}

func TestPerformRunsToolLoopThenAnswers(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			toolCall("report.generate_pdf", `{"json_file_path":"output/campaigns.json"}`),
			{Role: schema.Assistant, Content: "PDF report generated successfully: /tmp/campaign.pdf"},
		},
	}
	toolbox := &fakeToolbox{infos: []*schema.ToolInfo{{Name: "report.generate_pdf", Desc: "pdf"}}}

	m, err := newMember(context.Background(), contractx.AgentTypeCampaignDesigner, fake, testDefinition(), toolbox, 3)
	if err != nil {
		t.Fatalf("newMember() error = %v", err)
	}
	if len(fake.tools) != 1 {
		t.Fatalf("expected tools to be bound, got %#v", fake.tools)
	}

	resp, err := m.Perform(context.Background(), contractx.TaskRequest{
		Task:        contractx.TaskPDFGeneration,
		Description: "Generate the PDF report",
	})
	if err != nil {
		t.Fatalf("Perform() error = %v", err)
	}
	if len(toolbox.calls) != 1 || toolbox.calls[0].Args["json_file_path"] != "output/campaigns.json" {
		t.Fatalf("unexpected tool calls: %#v", toolbox.calls)
	}
	if len(resp.ToolResults) != 1 {
		t.Fatalf("expected 1 tool result, got %d", len(resp.ToolResults))
	}
	if resp.Text != "PDF report generated successfully: /tmp/campaign.pdf" {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if !strings.Contains(fake.inputs[1][1].Content, `"tool_results"`) {
		t.Fatalf("second round should carry tool results: %q", fake.inputs[1][1].Content)
	}
}

func TestPerformStopsAfterMaxToolRounds(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			toolCall("report.generate_pdf", `{"json_file_path":"a.json"}`),
			toolCall("report.generate_pdf", `{"json_file_path":"b.json"}`),
			{Content: "never reached"},
		},
	}
	toolbox := &fakeToolbox{infos: []*schema.ToolInfo{{Name: "report.generate_pdf", Desc: "pdf"}}}

	m, err := newMember(context.Background(), contractx.AgentTypeCampaignDesigner, fake, testDefinition(), toolbox, 2)
	if err != nil {
		t.Fatalf("newMember() error = %v", err)
	}

	resp, err := m.Perform(context.Background(), contractx.TaskRequest{
		Task:        contractx.TaskPDFGeneration,
		Description: "Generate the PDF report",
	})
	if err != nil {
		t.Fatalf("Perform() error = %v", err)
	}
	if len(resp.ToolResults) != 2 {
		t.Fatalf("expected 2 tool results, got %d", len(resp.ToolResults))
	}
	if fake.idx != 2 {
		t.Fatalf("expected 2 model calls, got %d", fake.idx)
	}
}

func TestPerformRejectsUnknownTool(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			toolCall("shell.exec", `{"cmd":"ls"}`),
		},
	}
	toolbox := &fakeToolbox{infos: []*schema.ToolInfo{{Name: "web.search", Desc: "search"}}}

	m, err := newMember(context.Background(), contractx.AgentTypeTrendResearcher, fake, testDefinition(), toolbox, 3)
	if err != nil {
		t.Fatalf("newMember() error = %v", err)
	}

	_, err = m.Perform(context.Background(), contractx.TaskRequest{
		Task:        contractx.TaskTrend,
		Description: "Research trends",
	})
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !strings.Contains(err.Error(), "not allowed") {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toolbox.calls) != 0 {
		t.Fatalf("tool must not run, got %#v", toolbox.calls)
	}
}

func TestPerformStructuredInvalidJSON(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{{Content: "I could not decide on strategies."}},
	}

	m, err := newMember(context.Background(), contractx.AgentTypeStrategist, fake, testDefinition(), nil, 3)
	if err != nil {
		t.Fatalf("newMember() error = %v", err)
	}

	_, err = m.Perform(context.Background(), contractx.TaskRequest{
		Task:         contractx.TaskStrategy,
		Description:  "Score strategies",
		OutputSchema: `{"strategies":[]}`,
		Structured:   true,
	})
	if err == nil {
		t.Fatal("expected error but got nil")
	}
}

func TestPerformRequiresDescription(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{}
	m, err := newMember(context.Background(), contractx.AgentTypeStrategist, fake, testDefinition(), nil, 3)
	if err != nil {
		t.Fatalf("newMember() error = %v", err)
	}

	_, err = m.Perform(context.Background(), contractx.TaskRequest{Task: contractx.TaskStrategy})
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if len(fake.inputs) != 0 {
		t.Fatal("model must not be called for an invalid request")
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{name: "plain", content: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", content: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "think block", content: "<think>{not json}</think>{\"a\":1}", want: `{"a":1}`},
		{name: "prose", content: "no json here", wantErr: true},
		{name: "broken", content: `{"a":}`, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ExtractJSON(tc.content)
			if tc.wantErr {
				if !errors.Is(err, contractx.ErrSchemaViolation) {
					t.Fatalf("ExtractJSON() error = %v, want ErrSchemaViolation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("ExtractJSON() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewRegistryWithModels(t *testing.T) {
	t.Parallel()

	defs, err := promptx.LoadDefinitions("")
	if err != nil {
		t.Fatalf("LoadDefinitions() error = %v", err)
	}

	var built []contractx.AgentType
	factory := func(_ context.Context, agentType contractx.AgentType) (einomodel.ToolCallingChatModel, error) {
		built = append(built, agentType)
		return &fakeToolCallingModel{}, nil
	}

	reg, err := NewRegistryWithModels(context.Background(), factory, defs, nil, 0)
	if err != nil {
		t.Fatalf("NewRegistryWithModels() error = %v", err)
	}
	if len(built) != 3 {
		t.Fatalf("expected 3 models, got %v", built)
	}
	if reg.CampaignDesigner().Type() != contractx.AgentTypeCampaignDesigner {
		t.Fatalf("unexpected designer type: %s", reg.CampaignDesigner().Type())
	}
	if reg.TrendResearcher().Type() != contractx.AgentTypeTrendResearcher {
		t.Fatalf("unexpected researcher type: %s", reg.TrendResearcher().Type())
	}
}
