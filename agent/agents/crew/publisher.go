package crew

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/marketing-ai/agent/contract"
	qstashx "github.com/tanpawarit/marketing-ai/pkg/qstash"
)

// QStashPublisher delivers report events to the configured QStash
// destination.
type QStashPublisher struct {
	client *qstashx.Client
}

func NewQStashPublisher(client *qstashx.Client) *QStashPublisher {
	return &QStashPublisher{client: client}
}

func (p *QStashPublisher) PublishReport(ctx context.Context, event contractx.ReportEvent) error {
	if p == nil || p.client == nil {
		return nil
	}
	resp, err := p.client.Publish(ctx, event)
	if err != nil {
		return fmt.Errorf("publish report event: %w", err)
	}
	log.Info().
		Str("run_id", event.RunID).
		Str("message_id", resp.MessageID).
		Msg("report event published")
	return nil
}
