package crewnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	statex "github.com/tanpawarit/marketing-ai/agent/state"
)

// PublishReport announces the finished report once per run. Delivery
// problems are logged and do not fail the run.
func PublishReport(ctx context.Context, in *GraphState, publisher contractx.Publisher) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if publisher == nil || (in.Run != nil && in.Run.Status == statex.RunCompleted) {
		return in, nil
	}

	event := contractx.ReportEvent{
		RunID:        in.RunID,
		Topic:        in.Inputs.Topic,
		CampaignFile: in.CampaignFile,
		ReportPath:   in.ReportPath,
		Campaigns:    len(in.Campaigns.Campaigns),
		Pages:        in.Pages,
		GeneratedAt:  in.Now,
	}
	if err := publisher.PublishReport(ctx, event); err != nil {
		log.Warn().Err(err).Str("run_id", in.RunID).Msg("failed to publish report event")
	}
	return in, nil
}
