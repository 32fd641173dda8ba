package metrics

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.inputs = append(m.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, m.err
}

func TestCountPublishesDatum(t *testing.T) {
	m := &mockCloudWatch{}
	r := NewRecorder(m, "GiftAIHub", slog.Default())

	r.Count(context.Background(), GiftCodesIssued, 2)

	require.Len(t, m.inputs, 1)
	in := m.inputs[0]
	assert.Equal(t, "GiftAIHub", *in.Namespace)
	require.Len(t, in.MetricData, 1)
	assert.Equal(t, GiftCodesIssued, *in.MetricData[0].MetricName)
	assert.Equal(t, 2.0, *in.MetricData[0].Value)
	assert.Equal(t, cwtypes.StandardUnitCount, in.MetricData[0].Unit)
}

func TestCountLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	m := &mockCloudWatch{err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "nope"}}
	r := NewRecorder(m, "GiftAIHub", slog.New(slog.NewTextHandler(&buf, nil)))

	r.Count(context.Background(), EmailDeliveryFailures, 1)

	assert.Contains(t, buf.String(), "put metric data failed")
	assert.Contains(t, buf.String(), "AccessDenied")
}

func TestNoopWithoutNamespace(t *testing.T) {
	r := NewRecorder(&mockCloudWatch{}, "", slog.Default())
	_, ok := r.(Noop)
	assert.True(t, ok)
}
