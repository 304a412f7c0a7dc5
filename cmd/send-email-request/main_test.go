package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"queryresults/internal/config"
	"queryresults/internal/external"
	"queryresults/internal/types"
)

// --- Mock implementations ---

type mockProcessor struct {
	gotCtx   context.Context
	gotEvent events.SQSEvent
	err      error
}

func (m *mockProcessor) Process(ctx context.Context, event events.SQSEvent) error {
	m.gotCtx = ctx
	m.gotEvent = event
	return m.err
}

type mockLogger struct {
	errors []string
	warns  []string
}

func (l *mockLogger) Info(string, ...any)        {}
func (l *mockLogger) Error(msg string, _ ...any) { l.errors = append(l.errors, msg) }
func (l *mockLogger) Warn(msg string, _ ...any)  { l.warns = append(l.warns, msg) }
func (l *mockLogger) With(...any) types.Logger   { return l }

type mockSecretsManager struct {
	secret string
	calls  int
}

func (m *mockSecretsManager) GetSecretValue(_ context.Context, _ *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	m.calls++
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(m.secret)}, nil
}

const testAPIKey = "local_key-26785a09-ab16-4eb0-8407-a37497a57506-3d844edf-8d35-48ac-975b-e847b4f122b0"

// --- Tests ---

func TestHandle_TagsContextWithMessageID(t *testing.T) {
	proc := &mockProcessor{}
	h := &Handler{processor: proc, logger: &mockLogger{}}

	event := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "msg-42", Body: "{}"}}}
	if err := h.Handle(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := types.GetRequestID(proc.gotCtx); got != "msg-42" {
		t.Errorf("expected request id msg-42, got %q", got)
	}
	if len(proc.gotEvent.Records) != 1 {
		t.Errorf("expected event to be passed through")
	}
}

func TestHandle_PropagatesProcessorError(t *testing.T) {
	procErr := errors.New("No records found in event")
	logger := &mockLogger{}
	h := &Handler{processor: &mockProcessor{err: procErr}, logger: logger}

	err := h.Handle(context.Background(), events.SQSEvent{})
	if !errors.Is(err, procErr) {
		t.Fatalf("expected processor error, got %v", err)
	}
	if len(logger.errors) != 1 {
		t.Errorf("expected 1 error log, got %d", len(logger.errors))
	}
}

func TestNewNotifyProvider_LocalWithoutCredentialsUsesStub(t *testing.T) {
	cfg := &config.EmailRequestConfig{}
	cfg.Environment = "local"
	cfg.Notify.Timeout = time.Second
	logger := &mockLogger{}

	provider, templateID, err := newNotifyProvider(context.Background(), cfg, nil, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := provider.(*external.StubNotifyClient); !ok {
		t.Errorf("expected stub client, got %T", provider)
	}
	if templateID == "" {
		t.Error("expected a placeholder template id")
	}
	if len(logger.warns) != 1 {
		t.Errorf("expected a warning about the stub, got %d", len(logger.warns))
	}
}

func TestNewNotifyProvider_SecretsManager(t *testing.T) {
	cfg := &config.EmailRequestConfig{}
	cfg.Environment = "production"
	cfg.Notify.SecretsARN = "arn:aws:secretsmanager:eu-west-2:123456789012:secret:notify"
	cfg.Notify.Timeout = time.Second

	sm := &mockSecretsManager{secret: `{"notifyApiKey":"` + testAPIKey + `","notifyTemplateId":"template-from-secret"}`}

	provider, templateID, err := newNotifyProvider(context.Background(), cfg, sm, &mockLogger{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := provider.(*external.NotifyClient); !ok {
		t.Errorf("expected Notify client, got %T", provider)
	}
	if templateID != "template-from-secret" {
		t.Errorf("expected template id from secret, got %q", templateID)
	}
	if sm.calls != 1 {
		t.Errorf("expected 1 Secrets Manager call, got %d", sm.calls)
	}
}

func TestNewNotifyProvider_InvalidKey(t *testing.T) {
	cfg := &config.EmailRequestConfig{}
	cfg.Environment = "dev"
	cfg.Notify.APIKey = "short"
	cfg.Notify.TemplateID = "template-1"
	cfg.Notify.Timeout = time.Second

	_, _, err := newNotifyProvider(context.Background(), cfg, nil, &mockLogger{})
	if !errors.Is(err, external.ErrInvalidNotifyKey) {
		t.Fatalf("expected ErrInvalidNotifyKey, got %v", err)
	}
}
