// Package main is the entrypoint for the Send Email Request Lambda function.
//
// The function consumes the send-email queue. Each invocation validates the
// request, asks GOV.UK Notify to email the secure download link and posts the
// outcome to the close-ticket queue so the Zendesk ticket is closed with a
// comment.
//
// Cold Start (main):
//  1. Initialize structured logger.
//  2. Load configuration (env, .env, SSM pointers).
//  3. Load AWS SDK configuration.
//  4. Resolve Notify credentials from Secrets Manager and build the Notify client.
//  5. Initialize SQS publisher and CloudWatch recorder.
//  6. Register handler and call lambda.Start.
//
// The queue is expected to deliver one record per invocation. An empty batch
// or a request without a ticket id fails the invocation so the queue's
// redrive policy applies; every other failure is reported to the ticket.
package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"queryresults/internal/config"
	"queryresults/internal/emailrequest"
	"queryresults/internal/external"
	"queryresults/internal/logging"
	"queryresults/internal/metrics"
	"queryresults/internal/queue"
	"queryresults/internal/types"
)

// EventProcessor runs the send-email pipeline for one event.
type EventProcessor interface {
	Process(ctx context.Context, event events.SQSEvent) error
}

// Handler holds the dependencies for the send-email-request Lambda handler.
type Handler struct {
	processor EventProcessor
	logger    types.Logger
}

// Handle tags the context with the SQS message id and runs the pipeline.
func (h *Handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) error {
	var messageID string
	if len(sqsEvent.Records) > 0 {
		messageID = sqsEvent.Records[0].MessageId
	}

	logger := h.logger.With("message_id", messageID)
	ctx = types.WithRequestID(ctx, messageID)
	ctx = types.WithLogger(ctx, logger)

	if err := h.processor.Process(ctx, sqsEvent); err != nil {
		logger.Error("send email request failed", "error", err.Error())
		return err
	}
	return nil
}

// newNotifyProvider picks the Notify implementation for cfg and returns it with
// the template id to send. Local runs without credentials get the stub.
func newNotifyProvider(
	ctx context.Context,
	cfg *config.EmailRequestConfig,
	secrets config.SecretsManagerClient,
	logger types.Logger,
) (external.NotifyProvider, string, error) {
	n := cfg.Notify
	hasInlineCreds := n.APIKey.Unmask() != "" && n.TemplateID != ""
	if cfg.IsLocal() && !hasInlineCreds && n.SecretsARN == "" {
		logger.Warn("no Notify credentials configured, using stub Notify client")
		return external.NewStubNotifyClient(logger), "local-template", nil
	}

	creds, err := config.ResolveNotifySecrets(ctx, secrets, n)
	if err != nil {
		return nil, "", err
	}

	clientCfg := external.NotifyClientConfig{
		APIKey: creds.APIKey,
		Logger: logger,
	}
	if n.UseMockServer {
		logger.Info("using Notify mock server", "base_url", n.MockServerBaseURL)
		clientCfg.BaseURL = n.MockServerBaseURL
	}

	client, err := external.NewNotifyClient(&http.Client{Timeout: n.Timeout}, clientCfg)
	if err != nil {
		return nil, "", err
	}
	return client, creds.TemplateID, nil
}

func main() {
	// Initialize structured logger at startup (Cold Start).
	logger := logging.NewJSONLogger(os.Stdout, os.Getenv("LOG_LEVEL"))
	logger.Info("Send Email Request Lambda initializing (cold start)")
	typedLogger := logging.Wrap(logger)

	provider := config.NewSecretProvider(os.Getenv("APP_ENV"), os.Getenv("AWS_REGION"))
	cfg, err := config.LoadEmailRequestConfig(provider)
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

	notify, templateID, err := newNotifyProvider(ctx, cfg, secretsmanager.NewFromConfig(awsCfg), typedLogger)
	if err != nil {
		logger.Error("Failed to initialize Notify client", "error", err)
		os.Exit(1)
	}

	var recorder emailrequest.OutcomeRecorder = metrics.NoopRecorder{}
	if cfg.Observability.EnableMetrics && !cfg.IsLocal() {
		recorder = metrics.NewCloudWatchRecorder(cloudwatch.NewFromConfig(awsCfg), cfg.Observability.MetricNamespace, typedLogger)
	}

	publisher := queue.NewPublisher(sqs.NewFromConfig(awsCfg), typedLogger)
	dispatcher := emailrequest.NewDispatcher(notify, templateID, typedLogger)

	handler := &Handler{
		processor: emailrequest.NewProcessor(dispatcher, publisher, recorder, cfg.CloseTicketQueueURL, typedLogger),
		logger:    typedLogger,
	}

	logger.Info("Send Email Request Lambda initialized",
		"environment", cfg.Environment,
		"close_ticket_queue", cfg.CloseTicketQueueURL,
		"notify_mock_server", cfg.Notify.UseMockServer,
		"version", cfg.Build.Version,
	)

	// Local mode: read JSON SQS event from stdin instead of starting Lambda runtime.
	// Usage: echo '{"Records":[{"messageId":"1","body":"{...}"}]}' | go run ./cmd/send-email-request
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
		if err := handler.Handle(ctx, sqsEvent); err != nil {
			logger.Error("Handler execution failed", "error", err)
			os.Exit(1)
		}
		logger.Info("Handler execution completed successfully")
		return
	}

	lambda.Start(handler.Handle)
}
