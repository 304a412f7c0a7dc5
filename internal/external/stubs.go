package external

import (
	"context"
	"fmt"
	"sync/atomic"

	"queryresults/internal/types"
)

// StubNotifyClient implements NotifyProvider by logging the call and returning
// a fake notification id. Used with APP_ENV=local when no Notify credentials
// are configured, so the Lambda can be exercised end to end from stdin.
type StubNotifyClient struct {
	logger types.Logger
	sent   atomic.Int64
}

// NewStubNotifyClient creates a new StubNotifyClient.
func NewStubNotifyClient(logger types.Logger) *StubNotifyClient {
	return &StubNotifyClient{logger: logger}
}

func (s *StubNotifyClient) SendEmail(ctx context.Context, templateID, emailAddress string, opts EmailOptions) (*EmailResponse, error) {
	n := s.sent.Add(1)
	if s.logger != nil {
		s.logger.Info("stub: SendEmail called",
			"template_id", templateID,
			"reference", opts.Reference,
			"personalisation_keys", len(opts.Personalisation),
		)
	}
	return &EmailResponse{
		ID:        fmt.Sprintf("stub-notification-%d", n),
		Reference: opts.Reference,
	}, nil
}

// Sent returns how many emails the stub has accepted.
func (s *StubNotifyClient) Sent() int64 {
	return s.sent.Load()
}

var _ NotifyProvider = (*StubNotifyClient)(nil)
