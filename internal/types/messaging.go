package types

// Comment copy sent to the ticketing system when closing a request ticket.
const (
	CommentEmailSent   = "A link to your results has been sent to you."
	CommentEmailFailed = "Your results could not be emailed."
)

// NotificationRequest is the validated body of a send-email request. JSON tags
// use camelCase to match the producers of the send-email queue.
// Values are only built by the request validator and are passed by value.
type NotificationRequest struct {
	Email             string `json:"email" validate:"required"`
	FirstName         string `json:"firstName" validate:"required"`
	ZendeskID         string `json:"zendeskId" validate:"required"`
	SecureDownloadURL string `json:"secureDownloadUrl" validate:"required"`
}

// OutcomeMessage is the payload placed on the close-ticket queue. Exactly one
// is sent per reported email request.
type OutcomeMessage struct {
	ZendeskID       string `json:"zendeskId"`
	CommentCopyText string `json:"commentCopyText"`
}

// NewSuccessOutcome builds the outcome that tells the requester the link was sent.
func NewSuccessOutcome(zendeskID string) OutcomeMessage {
	return OutcomeMessage{ZendeskID: zendeskID, CommentCopyText: CommentEmailSent}
}

// NewFailureOutcome builds the outcome that tells the requester the email failed.
func NewFailureOutcome(zendeskID string) OutcomeMessage {
	return OutcomeMessage{ZendeskID: zendeskID, CommentCopyText: CommentEmailFailed}
}

// DownloadRequest is the body of a message consumed by the download generation
// stage once query results are ready.
type DownloadRequest struct {
	AthenaQueryID  string `json:"athenaQueryId" validate:"required"`
	ZendeskID      string `json:"zendeskId" validate:"required"`
	RecipientEmail string `json:"recipientEmail" validate:"required"`
	RecipientName  string `json:"recipientName" validate:"required"`
}
