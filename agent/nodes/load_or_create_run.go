package crewnode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	statex "github.com/tanpawarit/marketing-ai/agent/state"
)

// LoadOrCreateRun resumes a stored run or starts a new one. Outputs of
// completed tasks are decoded back into the graph state.
func LoadOrCreateRun(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	run, err := store.Load(ctx, in.RunID)
	switch {
	case err == nil:
		if run.Inputs.Topic != in.Inputs.Topic {
			return nil, fmt.Errorf("%w: run=%s topic=%q", ErrRunMismatch, in.RunID, run.Inputs.Topic)
		}
		in.Inputs = run.Inputs
	case errors.Is(err, statex.ErrStateNotFound):
		run = statex.NewRunState(in.RunID, in.Inputs, in.Now)
		if err := store.Save(ctx, run); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	in.Run = run
	in.CampaignFile = run.CampaignFile
	in.ReportPath = run.ReportPath

	if err := restoreOutput(run, contractx.TaskTrend, &in.Trends); err != nil {
		return nil, err
	}
	if err := restoreOutput(run, contractx.TaskStrategy, &in.Strategies); err != nil {
		return nil, err
	}
	if err := restoreOutput(run, contractx.TaskCampaign, &in.Campaigns); err != nil {
		return nil, err
	}
	if rec, ok := run.Task(contractx.TaskPDFGeneration); ok && rec.Status == statex.TaskCompleted {
		var out pdfOutput
		if err := json.Unmarshal(rec.Output, &out); err == nil {
			in.Pages = out.Pages
			in.Message = out.Message
		}
	}
	return in, nil
}

func restoreOutput(run *statex.RunState, name contractx.TaskName, dst any) error {
	rec, ok := run.Task(name)
	if !ok || rec.Status != statex.TaskCompleted || len(rec.Output) == 0 {
		return nil
	}
	if err := json.Unmarshal(rec.Output, dst); err != nil {
		return fmt.Errorf("restore %s output: %w", name, err)
	}
	return nil
}
