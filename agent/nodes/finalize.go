package crewnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	statex "github.com/tanpawarit/marketing-ai/agent/state"
)

func Finalize(ctx context.Context, in *GraphState, store statex.Store) (GraphOutput, error) {
	if in == nil || in.Run == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph run is nil", contractx.ErrValidation)
	}
	if in.ReportPath == "" {
		return GraphOutput{}, fmt.Errorf("%w: report path is empty", contractx.ErrValidation)
	}

	if in.Run.Status != statex.RunCompleted {
		in.Run.Complete(in.Now)
		if err := in.Run.Validate(); err != nil {
			return GraphOutput{}, fmt.Errorf("state validation failed: %w", err)
		}
		if err := store.Save(ctx, in.Run); err != nil {
			return GraphOutput{}, err
		}
	}

	message := in.Message
	if message == "" {
		message = "PDF report generated successfully: " + in.ReportPath
	}
	return GraphOutput{
		RunID:        in.RunID,
		Status:       in.Run.Status,
		CampaignFile: in.CampaignFile,
		ReportPath:   in.ReportPath,
		Pages:        in.Pages,
		Message:      message,
		Campaigns:    in.Campaigns.Campaigns,
	}, nil
}
