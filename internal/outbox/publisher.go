// Package outbox queues failed transactional emails for redelivery.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"giftaihub/internal/client"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
)

type JobKind string

const (
	JobGiftReceived JobKind = "gift_received"
	JobGiftRedeemed JobKind = "gift_redeemed"
)

type Job struct {
	Kind       JobKind   `json:"kind"`
	Code       string    `json:"code"`
	Reason     string    `json:"reason,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func (j Job) Validate() error {
	switch j.Kind {
	case JobGiftReceived, JobGiftRedeemed:
	default:
		return fmt.Errorf("unknown job kind %q", j.Kind)
	}
	if j.Code == "" {
		return errors.New("job has no gift code")
	}
	return nil
}

type Publisher interface {
	Publish(ctx context.Context, job Job) error
}

// NewPublisher returns an SQS-backed publisher, or a no-op one when queueURL is empty.
func NewPublisher(sqsClient client.SQSAPI, queueURL string) Publisher {
	if sqsClient == nil || queueURL == "" {
		return noopPublisher{}
	}
	return &sqsPublisher{sqs: sqsClient, queueURL: queueURL}
}

type sqsPublisher struct {
	sqs      client.SQSAPI
	queueURL string
}

func (p *sqsPublisher) Publish(ctx context.Context, job Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	messageBody := string(body)

	_, err = p.sqs.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &p.queueURL,
		MessageBody: &messageBody,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"kind": stringAttr(string(job.Kind)),
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("send message (%s): %w", apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func stringAttr(v string) sqstypes.MessageAttributeValue {
	dataType := "String"
	return sqstypes.MessageAttributeValue{
		DataType:    &dataType,
		StringValue: &v,
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Job) error { return nil }

// Decode parses a queued job body.
func Decode(body string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return job, fmt.Errorf("decode job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return job, err
	}
	return job, nil
}
