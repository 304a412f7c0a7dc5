package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"queryresults/internal/types"
)

// notifyAPIBase is the production GOV.UK Notify API.
const notifyAPIBase = "https://api.notifications.service.gov.uk"

// Notify API keys are "<key name>-<service id>-<secret>" where both the
// service id and the secret are 36-character UUIDs.
const (
	notifyUUIDLen   = 36
	notifyMinKeyLen = 2*notifyUUIDLen + 1
)

// ErrInvalidNotifyKey is returned when an API key does not have the Notify shape.
var ErrInvalidNotifyKey = errors.New("notify: API key is malformed")

// NotifyClientConfig holds the configuration for creating a NotifyClient.
type NotifyClientConfig struct {
	APIKey  types.SecretString
	BaseURL string // mock server or test override; defaults to notifyAPIBase
	Logger  types.Logger
	Now     func() time.Time
}

// NotifyClient implements NotifyProvider with direct HTTP calls to the Notify
// v2 API through BaseClient. Every request carries a freshly signed HS256
// token whose issuer is the service id.
type NotifyClient struct {
	base      *BaseClient
	serviceID string
	secret    []byte
	baseURL   string
	logger    types.Logger
	now       func() time.Time
}

// NewNotifyClient creates a NotifyClient with its own BaseClient. The retry
// policy is deliberately short: a Lambda invocation waits on this call.
func NewNotifyClient(httpClient *http.Client, cfg NotifyClientConfig) (*NotifyClient, error) {
	base := NewBaseClient(
		httpClient,
		"notify",
		RetryPolicy{
			MaxRetries: 2,
			MinWait:    500 * time.Millisecond,
			MaxWait:    5 * time.Second,
		},
		"queryresults-notify/1.0",
	)
	return NewNotifyClientWithBase(base, cfg)
}

// NewNotifyClientWithBase creates a NotifyClient on a pre-configured BaseClient.
func NewNotifyClientWithBase(base *BaseClient, cfg NotifyClientConfig) (*NotifyClient, error) {
	serviceID, secret, err := splitNotifyKey(cfg.APIKey.Unmask())
	if err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = notifyAPIBase
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &NotifyClient{
		base:      base,
		serviceID: serviceID,
		secret:    []byte(secret),
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		logger:    cfg.Logger,
		now:       now,
	}, nil
}

func splitNotifyKey(key string) (serviceID, secret string, err error) {
	if len(key) < notifyMinKeyLen {
		return "", "", ErrInvalidNotifyKey
	}
	secret = key[len(key)-notifyUUIDLen:]
	serviceID = key[len(key)-2*notifyUUIDLen-1 : len(key)-notifyUUIDLen-1]
	return serviceID, secret, nil
}

// notifyEmailPayload is the body of POST /v2/notifications/email.
type notifyEmailPayload struct {
	EmailAddress    string            `json:"email_address"`
	TemplateID      string            `json:"template_id"`
	Personalisation map[string]string `json:"personalisation,omitempty"`
	Reference       string            `json:"reference,omitempty"`
}

// SendEmail posts an email notification. Notify answers 201 Created on success.
//
// Error mapping:
//   - 400 -> types.ErrCodeUpstreamNotify (bad template, team-only key, ...)
//   - 403 -> types.ErrCodeUpstreamNotifyAuth
//   - 429, 5xx -> retried by BaseClient, then its AppError
func (c *NotifyClient) SendEmail(ctx context.Context, templateID, emailAddress string, opts EmailOptions) (*EmailResponse, error) {
	body, err := json.Marshal(notifyEmailPayload{
		EmailAddress:    emailAddress,
		TemplateID:      templateID,
		Personalisation: opts.Personalisation,
		Reference:       opts.Reference,
	})
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to marshal Notify email payload", err)
	}

	token, err := c.signToken()
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to sign Notify token", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/notifications/email", bytes.NewReader(body))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create Notify request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, wrapNotifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, handleNotifyErrorResponse(resp)
	}

	var out EmailResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamNotify, "Notify returned an unreadable success body", err)
	}

	if c.logger != nil {
		c.logger.Info("notify email accepted", "notification_id", out.ID, "reference", out.Reference)
	}
	return &out, nil
}

func (c *NotifyClient) signToken() (string, error) {
	claims := jwt.MapClaims{
		"iss": c.serviceID,
		"iat": c.now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// notifyErrorResponse is the JSON error body returned by Notify.
type notifyErrorResponse struct {
	StatusCode int                 `json:"status_code"`
	Errors     []notifyErrorDetail `json:"errors"`
}

type notifyErrorDetail struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func handleNotifyErrorResponse(resp *http.Response) error {
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return types.NewAppError(
			types.ErrCodeUpstreamNotify,
			fmt.Sprintf("Notify returned status %d and the body was unreadable", resp.StatusCode),
			readErr,
		)
	}

	kind, message := "", string(body)
	var parsed notifyErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		kind = parsed.Errors[0].Error
		message = parsed.Errors[0].Message
	}

	code := types.ErrCodeUpstreamNotify
	if resp.StatusCode == http.StatusForbidden {
		code = types.ErrCodeUpstreamNotifyAuth
	}

	return types.NewAppError(
		code,
		fmt.Sprintf("Notify error (%d): %s", resp.StatusCode, message),
		nil,
	).WithDetails(map[string]any{
		"status_code": resp.StatusCode,
		"error":       kind,
	})
}

// wrapNotifyError keeps BaseClient AppErrors as they are and wraps anything else.
func wrapNotifyError(err error) error {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return types.NewAppError(types.ErrCodeUpstreamNotify, "Notify request failed", err)
}

// Compile-time assertion that NotifyClient satisfies NotifyProvider.
var _ NotifyProvider = (*NotifyClient)(nil)
