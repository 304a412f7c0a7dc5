package external

import "context"

// NotifyProvider abstracts the GOV.UK Notify email API.
type NotifyProvider interface {
	// SendEmail asks Notify to send templateID to emailAddress. The returned
	// error is opaque to callers; retry policy is the implementation's concern.
	SendEmail(ctx context.Context, templateID, emailAddress string, opts EmailOptions) (*EmailResponse, error)
}

// EmailOptions carries template personalisation and the caller's reference,
// which Notify stores against the notification for later lookup.
type EmailOptions struct {
	Personalisation map[string]string
	Reference       string
}

// EmailResponse is the subset of Notify's 201 response we keep.
type EmailResponse struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	URI       string `json:"uri"`
}
