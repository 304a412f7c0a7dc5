// Package main is the entrypoint for the Generate Download Lambda function.
//
// The function consumes download requests emitted once a query's results are
// in S3. For each record it creates a secure download record in DynamoDB and
// queues a send-email request carrying the download link.
//
// Cold Start (main):
//  1. Initialize structured logger.
//  2. Load configuration (env, .env, SSM pointers).
//  3. Load AWS SDK configuration.
//  4. Initialize DynamoDB record writer, SQS publisher and CloudWatch recorder.
//  5. Register handler and call lambda.Start.
//
// Records are processed independently and failures are returned as partial
// batch failures so SQS redelivers only those messages.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"queryresults/internal/config"
	"queryresults/internal/download"
	"queryresults/internal/logging"
	"queryresults/internal/metrics"
	"queryresults/internal/queue"
	"queryresults/internal/types"
)

// DownloadGenerator handles one download request body.
type DownloadGenerator interface {
	Generate(ctx context.Context, body string) (types.NotificationRequest, error)
}

// Handler holds the dependencies for the generate-download Lambda handler.
type Handler struct {
	generator DownloadGenerator
	logger    types.Logger
}

// Handle processes every record in the batch. Lambda SQS integration uses
// partial batch responses: failed records are returned in batchItemFailures.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{}

	for _, record := range sqsEvent.Records {
		logger := h.logger.With("message_id", record.MessageId)
		recordCtx := types.WithLogger(types.WithRequestID(ctx, record.MessageId), logger)

		req, err := h.generator.Generate(recordCtx, record.Body)
		if err != nil {
			logger.Error("failed to generate secure download", "error", err.Error())
			response.BatchItemFailures = append(response.BatchItemFailures,
				events.SQSBatchItemFailure{ItemIdentifier: record.MessageId},
			)
			continue
		}
		logger.Info("send email request queued", "zendesk_id", req.ZendeskID)
	}

	return response, nil
}

func main() {
	// Initialize structured logger at startup (Cold Start).
	logger := logging.NewJSONLogger(os.Stdout, os.Getenv("LOG_LEVEL"))
	logger.Info("Generate Download Lambda initializing (cold start)")
	typedLogger := logging.Wrap(logger)

	provider := config.NewSecretProvider(os.Getenv("APP_ENV"), os.Getenv("AWS_REGION"))
	cfg, err := config.LoadDownloadConfig(provider)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error("Failed to load AWS SDK config", "error", err)
		os.Exit(1)
	}
	if cfg.AWS.EndpointURL != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
	}

	var recorder download.WriteRecorder = metrics.NoopRecorder{}
	if cfg.Observability.EnableMetrics && !cfg.IsLocal() {
		recorder = metrics.NewCloudWatchRecorder(cloudwatch.NewFromConfig(awsCfg), cfg.Observability.MetricNamespace, typedLogger)
	}

	writer := download.NewRecordWriter(
		dynamodb.NewFromConfig(awsCfg),
		download.WriterConfig{
			TableName:  cfg.SecureDownloadTableName,
			BucketName: cfg.QueryResultsBucketName,
			TTL:        cfg.RecordTTL(),
		},
		typedLogger,
		download.WithWriteRecorder(recorder),
	)

	generator := download.NewGenerator(
		writer,
		queue.NewPublisher(sqs.NewFromConfig(awsCfg), typedLogger),
		download.GeneratorConfig{
			SendToEmailQueueURL: cfg.SendToEmailQueueURL,
			LinkBaseURL:         cfg.SecureDownloadLinkBaseURL,
		},
		typedLogger,
	)

	handler := &Handler{generator: generator, logger: typedLogger}

	logger.Info("Generate Download Lambda initialized",
		"environment", cfg.Environment,
		"table", cfg.SecureDownloadTableName,
		"ttl_hours", cfg.DatabaseTTLHours,
		"version", cfg.Build.Version,
	)

	// Local mode: read JSON SQS event from stdin instead of starting Lambda runtime.
	// Usage: echo '{"Records":[{"messageId":"1","body":"{...}"}]}' | go run ./cmd/generate-download
	if cfg.IsLocal() {
		logger.Info("APP_ENV=local: reading SQS event from stdin")
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("Failed to read stdin", "error", err)
			os.Exit(1)
		}
		if len(payload) == 0 {
			logger.Error("No input received on stdin")
			os.Exit(1)
		}
		var sqsEvent events.SQSEvent
		if err := json.Unmarshal(payload, &sqsEvent); err != nil {
			logger.Error("Failed to parse stdin as SQS event", "error", err)
			os.Exit(1)
		}
		response, err := handler.Handle(ctx, sqsEvent)
		if err != nil {
			logger.Error("Handler execution failed", "error", err)
			os.Exit(1)
		}
		if len(response.BatchItemFailures) > 0 {
			logger.Warn("Handler reported partial failures",
				"failed_count", len(response.BatchItemFailures),
			)
			respJSON, _ := json.MarshalIndent(response, "", "  ")
			fmt.Fprintln(os.Stderr, string(respJSON))
		}
		logger.Info("Handler execution completed",
			"records_processed", len(sqsEvent.Records),
			"failures", len(response.BatchItemFailures),
		)
		return
	}

	lambda.Start(handler.Handle)
}
