// Package metrics publishes business counters to CloudWatch.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"giftaihub/internal/client"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/smithy-go"
)

const (
	CheckoutSessionsCreated = "CheckoutSessionsCreated"
	GiftCodesIssued         = "GiftCodesIssued"
	GiftCodesRedeemed       = "GiftCodesRedeemed"
	EmailDeliveryFailures   = "EmailDeliveryFailures"
	WebhookEventsProcessed  = "WebhookEventsProcessed"
)

type Recorder interface {
	Count(ctx context.Context, name string, value float64)
}

// NewRecorder returns a CloudWatch recorder, or a no-op one when namespace is empty.
func NewRecorder(cw client.CloudWatchAPI, namespace string, logger *slog.Logger) Recorder {
	if cw == nil || namespace == "" {
		return Noop{}
	}
	return &cloudWatchRecorder{cw: cw, namespace: namespace, logger: logger}
}

type cloudWatchRecorder struct {
	cw        client.CloudWatchAPI
	namespace string
	logger    *slog.Logger
}

// Count publishes one datum. Failures are logged and never returned.
func (r *cloudWatchRecorder) Count(ctx context.Context, name string, value float64) {
	now := time.Now().UTC()
	_, err := r.cw.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &r.namespace,
		MetricData: []cwtypes.MetricDatum{{
			MetricName: &name,
			Value:      &value,
			Unit:       cwtypes.StandardUnitCount,
			Timestamp:  &now,
		}},
	})
	if err != nil {
		attrs := []any{"metric", name, "error", err}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			attrs = append(attrs, "aws_code", apiErr.ErrorCode())
		}
		r.logger.WarnContext(ctx, "put metric data failed", attrs...)
	}
}

type Noop struct{}

func (Noop) Count(context.Context, string, float64) {}
