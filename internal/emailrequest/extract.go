package emailrequest

import "github.com/aws/aws-lambda-go/events"

// ExtractBody returns the body of the first record in event. Only the first
// record is processed; the send-email queue is configured with batch size 1.
func ExtractBody(event events.SQSEvent) (string, error) {
	if len(event.Records) == 0 {
		return "", ErrEmptyBatch
	}
	body := event.Records[0].Body
	if body == "" {
		return "", ErrMissingBody
	}
	return body, nil
}
