package main

import (
	"context"
	"errors"
	"log/slog"

	"giftaihub/internal/outbox"
	"giftaihub/internal/service"

	"github.com/aws/aws-lambda-go/events"
)

type redeliverer interface {
	Redeliver(ctx context.Context, job outbox.Job) error
}

// Processor resends queued emails. Failed records are reported back so SQS
// retries only those, and moves them to the DLQ after its redrive limit.
type Processor struct {
	notifier redeliverer
	logger   *slog.Logger
}

func NewProcessor(notifier redeliverer, logger *slog.Logger) *Processor {
	return &Processor{
		notifier: notifier,
		logger:   logger,
	}
}

func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.ErrorContext(ctx, "email redelivery failed", "message_id", rec.MessageId, "error", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}

	p.logger.InfoContext(ctx, "batch processed", "records", len(ev.Records), "failed", len(resp.BatchItemFailures))
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	job, err := outbox.Decode(rec.Body)
	if err != nil {
		// retrying cannot fix the body
		p.logger.WarnContext(ctx, "dropping undecodable job", "message_id", rec.MessageId, "error", err)
		return nil
	}

	err = p.notifier.Redeliver(ctx, job)
	if errors.Is(err, service.ErrCodeNotFound) {
		// nothing left to send
		p.logger.WarnContext(ctx, "dropping job for unknown gift code", "message_id", rec.MessageId, "kind", job.Kind)
		return nil
	}
	return err
}
