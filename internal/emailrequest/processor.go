package emailrequest

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"queryresults/internal/metrics"
	"queryresults/internal/types"
)

// notifyFailurePrefix starts every reportable failure log line.
const notifyFailurePrefix = "Could not send a request to Notify: "

// NotificationDispatcher sends a validated request to the email provider.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, req types.NotificationRequest) error
}

// OutcomePublisher enqueues a JSON message on a queue.
type OutcomePublisher interface {
	Publish(ctx context.Context, queueURL string, v any) (string, error)
}

// OutcomeRecorder counts reported outcomes.
type OutcomeRecorder interface {
	RecordEmailOutcome(ctx context.Context, result metrics.Result)
}

// Processor runs one send-email invocation: extract, validate, dispatch and
// report. Exactly one OutcomeMessage is published per invocation unless the
// batch is empty or the ticket id is missing, in which case the error is
// returned and nothing is published.
type Processor struct {
	dispatcher          NotificationDispatcher
	publisher           OutcomePublisher
	recorder            OutcomeRecorder
	closeTicketQueueURL string
	logger              types.Logger
}

// NewProcessor wires a Processor. recorder may be nil.
func NewProcessor(
	dispatcher NotificationDispatcher,
	publisher OutcomePublisher,
	recorder OutcomeRecorder,
	closeTicketQueueURL string,
	logger types.Logger,
) *Processor {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Processor{
		dispatcher:          dispatcher,
		publisher:           publisher,
		recorder:            recorder,
		closeTicketQueueURL: closeTicketQueueURL,
		logger:              logger,
	}
}

// Process handles a send-email event. A non-nil error means the invocation
// must fail: the batch was empty, the ticket id was missing, or the outcome
// could not be enqueued.
func (p *Processor) Process(ctx context.Context, event events.SQSEvent) error {
	logger := types.LoggerFromContext(ctx, p.logger)

	body, err := ExtractBody(event)
	if errors.Is(err, ErrEmptyBatch) {
		return err
	}
	if err != nil {
		logger.Warn("no ticket id available, failure outcome will be unaddressed")
		return p.reportFailure(ctx, logger, "", err)
	}

	req, err := ValidateRequest(body)
	if err != nil {
		var incomplete *IncompleteRequestError
		switch {
		case errors.Is(err, ErrMissingTicketID):
			return err
		case errors.As(err, &incomplete):
			logger.Warn("email request is incomplete",
				"zendesk_id", incomplete.ZendeskID,
				"missing_fields", incomplete.MissingFields(),
			)
			return p.reportFailure(ctx, logger, incomplete.ZendeskID, err)
		default:
			logger.Warn("no ticket id available, failure outcome will be unaddressed")
			return p.reportFailure(ctx, logger, "", err)
		}
	}

	if err := p.dispatcher.Dispatch(ctx, req); err != nil {
		return p.reportFailure(ctx, logger, req.ZendeskID, err)
	}

	return p.report(ctx, logger, types.NewSuccessOutcome(req.ZendeskID), metrics.ResultSuccess)
}

func (p *Processor) reportFailure(ctx context.Context, logger types.Logger, zendeskID string, cause error) error {
	logger.Error(notifyFailurePrefix+cause.Error(), "zendesk_id", zendeskID)
	return p.report(ctx, logger, types.NewFailureOutcome(zendeskID), metrics.ResultFailure)
}

func (p *Processor) report(ctx context.Context, logger types.Logger, outcome types.OutcomeMessage, result metrics.Result) error {
	p.recorder.RecordEmailOutcome(ctx, result)

	if _, err := p.publisher.Publish(ctx, p.closeTicketQueueURL, outcome); err != nil {
		logger.Error("failed to enqueue close-ticket outcome",
			"zendesk_id", outcome.ZendeskID,
			"result", string(result),
			"error", err.Error(),
		)
		return fmt.Errorf("report outcome for ticket %q: %w", outcome.ZendeskID, err)
	}
	return nil
}
