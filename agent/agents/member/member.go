package member

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	promptx "github.com/tanpawarit/marketing-ai/agent/prompt"
)

const (
	DefaultMaxToolRounds = 3

	modeAct      = "act"
	modeFinalize = "finalize"
)

const instructions = `

Requests arrive as JSON. The mode field tells you what to do.
In act mode, call the available tools when they help you complete the task. When no further tool call is needed, reply with your final answer as plain text.
In finalize mode, reply with exactly one JSON object shaped like output_schema. Do not add any text before or after it.
Results of earlier tasks are in context and results of your tool calls are in tool_results.`

// Toolbox supplies the tools of a role and executes their calls.
type Toolbox interface {
	contractx.ToolGateway
	InfosFor(agentType contractx.AgentType) []*schema.ToolInfo
}

type memberImpl struct {
	agentType        contractx.AgentType
	definition       promptx.AgentDefinition
	actRunner        compose.Runnable[map[string]any, *schema.Message]
	structuredRunner compose.Runnable[map[string]any, json.RawMessage]
	runtimeRunner    compose.Runnable[contractx.TaskRequest, contractx.TaskResponse]
	gateway          contractx.ToolGateway
	allowedTools     map[string]struct{}
	maxToolRounds    int
}

type taskPayload struct {
	Mode           string                 `json:"mode"`
	Task           contractx.TaskName     `json:"task"`
	Description    string                 `json:"description"`
	ExpectedOutput string                 `json:"expected_output"`
	OutputSchema   json.RawMessage        `json:"output_schema,omitempty"`
	Context        []contractx.TaskOutput `json:"context,omitempty"`
	ToolResults    []contractx.ToolResult `json:"tool_results,omitempty"`
}

func newMember(
	ctx context.Context,
	agentType contractx.AgentType,
	chatModel einomodel.ToolCallingChatModel,
	definition promptx.AgentDefinition,
	toolbox Toolbox,
	maxToolRounds int,
) (*memberImpl, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required for agent=%s", contractx.ErrValidation, agentType)
	}
	if maxToolRounds <= 0 {
		maxToolRounds = DefaultMaxToolRounds
	}

	structuredRunner, err := compileStructuredGraph(ctx, chatModel, "member."+string(agentType)+".structured_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile structured graph: %v", contractx.ErrModelInvoke, err)
	}

	var tools []*schema.ToolInfo
	if toolbox != nil {
		tools = toolbox.InfosFor(agentType)
	}
	actModel := chatModel
	if len(tools) > 0 {
		actModel, err = chatModel.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, agentType, err)
		}
	}
	actRunner, err := compileActGraph(ctx, actModel, "member."+string(agentType)+".act_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile act graph: %v", contractx.ErrModelInvoke, err)
	}

	allowedTools := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		allowedTools[t.Name] = struct{}{}
	}

	m := &memberImpl{
		agentType:        agentType,
		definition:       definition,
		actRunner:        actRunner,
		structuredRunner: structuredRunner,
		gateway:          toolbox,
		allowedTools:     allowedTools,
		maxToolRounds:    maxToolRounds,
	}

	runtimeRunner, err := compileRuntimeGraph(ctx, "member."+string(agentType)+".runtime_graph",
		m.prepare, m.act, m.finalizeStructured, m.finalizeText)
	if err != nil {
		return nil, fmt.Errorf("%w: compile runtime graph: %v", contractx.ErrModelInvoke, err)
	}
	m.runtimeRunner = runtimeRunner

	return m, nil
}

func (m *memberImpl) Type() contractx.AgentType {
	return m.agentType
}

func (m *memberImpl) Perform(ctx context.Context, req contractx.TaskRequest) (contractx.TaskResponse, error) {
	out, err := m.runtimeRunner.Invoke(ctx, req)
	if err != nil {
		return contractx.TaskResponse{}, err
	}
	return out, nil
}

func (m *memberImpl) prepare(_ context.Context, req contractx.TaskRequest) (*memberGraphState, error) {
	if strings.TrimSpace(string(req.Task)) == "" {
		return nil, fmt.Errorf("%w: task name is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: task=%s description is required", contractx.ErrValidation, req.Task)
	}
	if req.Structured && !json.Valid([]byte(req.OutputSchema)) {
		return nil, fmt.Errorf("%w: task=%s output schema must be valid json", contractx.ErrValidation, req.Task)
	}
	return &memberGraphState{
		Req:    req,
		System: m.definition.SystemPrompt(req.Inputs.Vars()) + instructions,
	}, nil
}

// act lets the model call tools for up to maxToolRounds rounds. A reply
// without tool calls ends the loop and becomes the text answer.
func (m *memberImpl) act(ctx context.Context, state *memberGraphState) (*memberGraphState, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: member graph state is nil", contractx.ErrValidation)
	}
	if state.Req.Structured && len(m.allowedTools) == 0 {
		return state, nil
	}

	for round := 0; round < m.maxToolRounds; round++ {
		input, err := m.payload(modeAct, state)
		if err != nil {
			return nil, err
		}
		msg, err := m.actRunner.Invoke(ctx, map[string]any{
			"system": state.System,
			"input":  input,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: agent=%s act invoke: %v", contractx.ErrModelInvoke, m.agentType, err)
		}
		if msg == nil {
			return nil, fmt.Errorf("%w: agent=%s empty act response", contractx.ErrSchemaViolation, m.agentType)
		}

		toolRequests, err := toToolRequests(msg.ToolCalls)
		if err != nil {
			return nil, err
		}
		if len(toolRequests) == 0 {
			state.Text = strings.TrimSpace(thinkBlockPattern.ReplaceAllString(msg.Content, ""))
			return state, nil
		}

		for _, tr := range toolRequests {
			if _, ok := m.allowedTools[tr.Tool]; !ok {
				return nil, fmt.Errorf("%w: tool=%s is not allowed for agent=%s", contractx.ErrSchemaViolation, tr.Tool, m.agentType)
			}
		}

		results, err := m.gateway.Execute(ctx, m.agentType, toolRequests)
		if err != nil {
			return nil, err
		}
		state.ToolResults = append(state.ToolResults, results...)

		log.Debug().
			Str("agent", string(m.agentType)).
			Str("task", string(state.Req.Task)).
			Int("round", round+1).
			Int("tool_calls", len(toolRequests)).
			Msg("tool round finished")
	}
	return state, nil
}

func (m *memberImpl) finalizeStructured(ctx context.Context, state *memberGraphState) (contractx.TaskResponse, error) {
	input, err := m.payload(modeFinalize, state)
	if err != nil {
		return contractx.TaskResponse{}, err
	}
	out, err := m.structuredRunner.Invoke(ctx, map[string]any{
		"system": state.System,
		"input":  input,
	})
	if err != nil {
		return contractx.TaskResponse{}, fmt.Errorf("%w: agent=%s structured invoke: %v", contractx.ErrModelInvoke, m.agentType, err)
	}
	if len(out) == 0 {
		return contractx.TaskResponse{}, fmt.Errorf("%w: agent=%s structured output is empty", contractx.ErrSchemaViolation, m.agentType)
	}
	return contractx.TaskResponse{
		Structured:  out,
		Text:        state.Text,
		ToolResults: state.ToolResults,
	}, nil
}

func (m *memberImpl) finalizeText(_ context.Context, state *memberGraphState) (contractx.TaskResponse, error) {
	if state.Text == "" && len(state.ToolResults) == 0 {
		return contractx.TaskResponse{}, fmt.Errorf("%w: agent=%s returned no answer", contractx.ErrSchemaViolation, m.agentType)
	}
	return contractx.TaskResponse{
		Text:        state.Text,
		ToolResults: state.ToolResults,
	}, nil
}

func (m *memberImpl) payload(mode string, state *memberGraphState) (string, error) {
	req := state.Req
	p := taskPayload{
		Mode:           mode,
		Task:           req.Task,
		Description:    req.Description,
		ExpectedOutput: req.ExpectedOutput,
		Context:        req.Context,
		ToolResults:    state.ToolResults,
	}
	if mode == modeFinalize {
		p.OutputSchema = json.RawMessage(req.OutputSchema)
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("%w: marshal task payload: %v", contractx.ErrValidation, err)
	}
	return string(b), nil
}

func toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, tool, err)
			}
		}

		reqs = append(reqs, contractx.ToolRequest{
			Tool: tool,
			Args: args,
		})
	}
	return reqs, nil
}
