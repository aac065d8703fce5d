package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the subset of the CloudWatch client used for publishing
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics publishes lineage measurements to CloudWatch.
// Publishing is best effort: failures are logged and dropped.
type CloudWatchMetrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
}

// NewCloudWatchMetrics creates a new CloudWatch metrics sink
func NewCloudWatchMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordBuild publishes the duration and size of a lineage build
func (m *CloudWatchMetrics) RecordBuild(ctx context.Context, role string, nodes int, duration time.Duration, outcome string) {
	dims := []types.Dimension{
		{Name: aws.String("Role"), Value: aws.String(role)},
		{Name: aws.String("Outcome"), Value: aws.String(outcome)},
	}
	now := aws.Time(time.Now())
	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("LineageBuildDuration"),
			Dimensions: dims,
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  now,
		},
		{
			MetricName: aws.String("LineageGraphNodes"),
			Dimensions: dims,
			Value:      aws.Float64(float64(nodes)),
			Unit:       types.StandardUnitCount,
			Timestamp:  now,
		},
	})
}

// RecordExport publishes the duration of a graph export
func (m *CloudWatchMetrics) RecordExport(ctx context.Context, kind string, duration time.Duration) {
	m.put(ctx, []types.MetricDatum{
		{
			MetricName: aws.String("GraphExportDuration"),
			Dimensions: []types.Dimension{
				{Name: aws.String("Kind"), Value: aws.String(kind)},
			},
			Value:     aws.Float64(float64(duration.Milliseconds())),
			Unit:      types.StandardUnitMilliseconds,
			Timestamp: aws.Time(time.Now()),
		},
	})
}

func (m *CloudWatchMetrics) put(ctx context.Context, data []types.MetricDatum) {
	if m.client == nil {
		return
	}
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Warn("Failed to publish CloudWatch metrics",
			zap.String("namespace", m.namespace),
			zap.Error(err),
		)
	}
}

// Recorder receives lineage build and export measurements
type Recorder interface {
	RecordBuild(ctx context.Context, role string, nodes int, duration time.Duration, outcome string)
	RecordExport(ctx context.Context, kind string, duration time.Duration)
}

// Recorders fans measurements out to several recorders
type Recorders []Recorder

// RecordBuild implements Recorder
func (rs Recorders) RecordBuild(ctx context.Context, role string, nodes int, duration time.Duration, outcome string) {
	for _, r := range rs {
		r.RecordBuild(ctx, role, nodes, duration, outcome)
	}
}

// RecordExport implements Recorder
func (rs Recorders) RecordExport(ctx context.Context, kind string, duration time.Duration) {
	for _, r := range rs {
		r.RecordExport(ctx, kind, duration)
	}
}
