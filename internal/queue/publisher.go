// Package queue publishes JSON messages to SQS queues: outcome messages to the
// close-ticket queue and email requests to the send-email queue.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"queryresults/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher serializes values to JSON and sends them to a queue URL given per
// call, so one Publisher serves every queue a Lambda writes to.
type Publisher struct {
	client SQSSender
	logger types.Logger
}

// NewPublisher creates a Publisher on the given SQS client.
func NewPublisher(client SQSSender, logger types.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Publish marshals v and sends it as the message body to queueURL. The SQS
// message id is returned for logging.
func (p *Publisher) Publish(ctx context.Context, queueURL string, v any) (string, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("queue publisher: failed to marshal message: %w", err)
	}

	out, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return "", fmt.Errorf("queue publisher: failed to send message to %s: %w", queueURL, err)
	}

	messageID := aws.ToString(out.MessageId)
	if p.logger != nil {
		p.logger.Info("message published",
			"queue_url", queueURL,
			"message_id", messageID,
			"request_id", types.GetRequestID(ctx),
		)
	}

	return messageID, nil
}
