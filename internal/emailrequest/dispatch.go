package emailrequest

import (
	"context"

	"queryresults/internal/external"
	"queryresults/internal/types"
)

// Personalisation keys expected by the Notify template.
const (
	personalisationFirstName   = "firstName"
	personalisationDownloadURL = "secureDownloadUrl"
)

// Dispatcher sends a validated request to Notify. It makes exactly one
// provider call; retries belong to the provider client.
type Dispatcher struct {
	provider   external.NotifyProvider
	templateID string
	logger     types.Logger
}

// NewDispatcher creates a Dispatcher for the given Notify template.
func NewDispatcher(provider external.NotifyProvider, templateID string, logger types.Logger) *Dispatcher {
	return &Dispatcher{provider: provider, templateID: templateID, logger: logger}
}

// Dispatch sends req to Notify, referenced by the ticket id. Provider errors
// are returned unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, req types.NotificationRequest) error {
	resp, err := d.provider.SendEmail(ctx, d.templateID, req.Email, external.EmailOptions{
		Personalisation: map[string]string{
			personalisationFirstName:   req.FirstName,
			personalisationDownloadURL: req.SecureDownloadURL,
		},
		Reference: req.ZendeskID,
	})
	if err != nil {
		return err
	}

	if d.logger != nil && resp != nil {
		d.logger.Info("email request sent to Notify",
			"zendesk_id", req.ZendeskID,
			"notification_id", resp.ID,
		)
	}
	return nil
}
