// Package emailrequest turns a send-email SQS event into a GOV.UK Notify email
// and reports the outcome to the close-ticket queue.
package emailrequest

import (
	"errors"
	"strings"
)

// Error strings are surfaced in ticket-facing logs and kept stable.
var (
	// ErrEmptyBatch means the event carried no records. It propagates to the
	// event source.
	ErrEmptyBatch = errors.New("No records found in event")

	// ErrMissingBody means the record body was absent, empty or not a JSON
	// object. It is reported without a ticket id.
	ErrMissingBody = errors.New("Could not find event body. An email has not been sent")

	// ErrMissingTicketID means there is no ticket to report against, so it
	// propagates.
	ErrMissingTicketID = errors.New("Zendesk ticket ID missing from event body")

	// ErrIncompleteRequest means a recipient field was missing or empty. It is
	// reported against the known ticket id.
	ErrIncompleteRequest = errors.New("Required details were not all present in event body")
)

// IncompleteRequestError is returned by ValidateRequest when the ticket id is
// present but one or more recipient fields are not. It matches
// ErrIncompleteRequest under errors.Is.
type IncompleteRequestError struct {
	ZendeskID string
	Missing   []string
}

func (e *IncompleteRequestError) Error() string {
	return ErrIncompleteRequest.Error()
}

func (e *IncompleteRequestError) Is(target error) bool {
	return target == ErrIncompleteRequest
}

// MissingFields returns the JSON names of the missing fields, comma separated.
func (e *IncompleteRequestError) MissingFields() string {
	return strings.Join(e.Missing, ",")
}
