// Package metrics emits the service's CloudWatch metrics. Recording never
// fails the caller: PutMetricData errors are logged and dropped.
package metrics

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"queryresults/internal/types"
)

// Result is the value of the Result dimension.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchRecorder publishes outcome counters to CloudWatch.
//
// Metrics emitted:
//   - EmailRequestOutcome: Dims {Result} -- once per reported email request
//   - DownloadRecordWritten: Dims {Result} -- once per secure download record write
type CloudWatchRecorder struct {
	client    CloudWatchClient
	namespace string
	logger    types.Logger
}

// NewCloudWatchRecorder creates a recorder publishing to namespace, falling
// back to types.MetricNamespace when namespace is empty.
func NewCloudWatchRecorder(client CloudWatchClient, namespace string, logger types.Logger) *CloudWatchRecorder {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	return &CloudWatchRecorder{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordEmailOutcome counts one reported email request.
func (r *CloudWatchRecorder) RecordEmailOutcome(ctx context.Context, result Result) {
	r.putCount(ctx, types.MetricEmailRequestOutcome, result)
}

// RecordDownloadWrite counts one secure download record write attempt.
func (r *CloudWatchRecorder) RecordDownloadWrite(ctx context.Context, result Result) {
	r.putCount(ctx, types.MetricDownloadRecordWrites, result)
}

func (r *CloudWatchRecorder) putCount(ctx context.Context, name string, result Result) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(r.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{
						Name:  aws.String(types.DimResult),
						Value: aws.String(string(result)),
					},
				},
			},
		},
	}

	if _, err := r.client.PutMetricData(ctx, input); err != nil && r.logger != nil {
		r.logger.Error("failed to record metric",
			"error", err.Error(),
			"metric", name,
			"result", string(result),
		)
	}
}

// NoopRecorder discards all metrics. Used when ENABLE_METRICS is false and in local mode.
type NoopRecorder struct{}

func (NoopRecorder) RecordEmailOutcome(context.Context, Result)  {}
func (NoopRecorder) RecordDownloadWrite(context.Context, Result) {}

// ResultOf maps an error to the Result dimension.
func ResultOf(err error) Result {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
