package crewnode

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	promptx "github.com/tanpawarit/marketing-ai/agent/prompt"
	statex "github.com/tanpawarit/marketing-ai/agent/state"
)

// taskStep describes how one crew task is asked for and accepted.
type taskStep struct {
	name         contractx.TaskName
	vars         map[string]string
	context      []contractx.TaskName
	outputSchema string
	// accept checks the response and returns the output to checkpoint.
	accept func(resp contractx.TaskResponse) (json.RawMessage, error)
}

func agentFor(reg contractx.Registry, agentType contractx.AgentType) (contractx.Agent, error) {
	var agent contractx.Agent
	switch agentType {
	case contractx.AgentTypeTrendResearcher:
		agent = reg.TrendResearcher()
	case contractx.AgentTypeStrategist:
		agent = reg.Strategist()
	case contractx.AgentTypeCampaignDesigner:
		agent = reg.CampaignDesigner()
	}
	if agent == nil {
		return nil, fmt.Errorf("%w: no agent for type=%s", contractx.ErrValidation, agentType)
	}
	return agent, nil
}

// runTask performs step unless the run already completed it. Progress is
// saved before and after the agent call so a failed run can be resumed.
func runTask(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	reg contractx.Registry,
	defs promptx.Definitions,
	step taskStep,
) (*GraphState, error) {
	if in == nil || in.Run == nil {
		return nil, fmt.Errorf("%w: graph run is nil", contractx.ErrValidation)
	}
	if in.Run.IsTaskDone(step.name) {
		log.Info().Str("run_id", in.RunID).Str("task", string(step.name)).Msg("task already completed, skipping")
		return in, nil
	}

	def, err := defs.Task(step.name)
	if err != nil {
		return nil, err
	}
	agent, err := agentFor(reg, def.Agent)
	if err != nil {
		return nil, err
	}

	vars := in.Inputs.Vars()
	for k, v := range step.vars {
		vars[k] = v
	}

	req := contractx.TaskRequest{
		Task:           step.name,
		Inputs:         in.Inputs,
		Description:    promptx.Render(def.Description, vars),
		ExpectedOutput: promptx.Render(def.ExpectedOutput, vars),
		Context:        contextOutputs(in.Run, step.context),
		OutputSchema:   step.outputSchema,
		Structured:     step.outputSchema != "",
	}

	if err := in.Run.StartTask(step.name, def.Agent, in.Now); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, in.Run); err != nil {
		return nil, err
	}

	log.Info().
		Str("run_id", in.RunID).
		Str("task", string(step.name)).
		Str("agent", string(def.Agent)).
		Msg("task started")

	output, err := performAndAccept(ctx, agent, req, step.accept)
	if err != nil {
		return nil, failTask(ctx, in, store, step.name, err)
	}

	if err := in.Run.CompleteTask(step.name, output, in.Now); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, in.Run); err != nil {
		return nil, err
	}

	log.Info().Str("run_id", in.RunID).Str("task", string(step.name)).Msg("task completed")
	return in, nil
}

func performAndAccept(
	ctx context.Context,
	agent contractx.Agent,
	req contractx.TaskRequest,
	accept func(contractx.TaskResponse) (json.RawMessage, error),
) (json.RawMessage, error) {
	resp, err := agent.Perform(ctx, req)
	if err != nil {
		return nil, err
	}
	return accept(resp)
}

func failTask(ctx context.Context, in *GraphState, store statex.Store, name contractx.TaskName, cause error) error {
	log.Error().Err(cause).Str("run_id", in.RunID).Str("task", string(name)).Msg("task failed")

	if err := in.Run.FailTask(name, cause, in.Now); err != nil {
		return fmt.Errorf("%w (record failure: %v)", cause, err)
	}
	// a cancelled context must not hide the failure record
	if err := store.Save(context.WithoutCancel(ctx), in.Run); err != nil {
		log.Error().Err(err).Str("run_id", in.RunID).Msg("failed to save run failure")
	}
	return fmt.Errorf("task %s: %w", name, cause)
}

func contextOutputs(run *statex.RunState, names []contractx.TaskName) []contractx.TaskOutput {
	if len(names) == 0 {
		return nil
	}
	want := make(map[contractx.TaskName]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var out []contractx.TaskOutput
	for _, o := range run.Outputs() {
		if _, ok := want[o.Task]; ok {
			out = append(out, o)
		}
	}
	return out
}

// decodeStructured unmarshals the structured answer into dst and runs
// validate on it.
func decodeStructured[T any](resp contractx.TaskResponse, dst *T, validate func(T) error) (json.RawMessage, error) {
	if len(resp.Structured) == 0 {
		return nil, fmt.Errorf("%w: structured output is missing", contractx.ErrSchemaViolation)
	}
	var out T
	if err := json.Unmarshal(resp.Structured, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	if err := validate(out); err != nil {
		return nil, err
	}
	normalized, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)
	}
	*dst = out
	return normalized, nil
}
