package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// testSecretProvider is a configurable mock for testing SSM resolution.
type testSecretProvider struct {
	values     map[string]string
	err        error
	calledWith []string
	callCount  int
}

func (p *testSecretProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	p.callCount++
	p.calledWith = append(p.calledWith, keys...)
	if p.err != nil {
		return nil, p.err
	}
	result := make(map[string]string)
	for _, k := range keys {
		if v, ok := p.values[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

// fakeEnv is an in-memory environment for resolveSSMParams tests.
type fakeEnv map[string]string

func (e fakeEnv) deps() loaderDeps {
	return loaderDeps{
		lookupEnv: func(k string) (string, bool) {
			v, ok := e[k]
			return v, ok
		},
		setEnv: func(k, v string) error {
			e[k] = v
			return nil
		},
		environ: func() []string {
			out := make([]string, 0, len(e))
			for k, v := range e {
				out = append(out, k+"="+v)
			}
			return out
		},
	}
}

func setEmailRequestEnv(t *testing.T) {
	t.Helper()

	t.Setenv("APP_ENV", "local")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CLOSE_TICKET_QUEUE_URL", "https://sqs.eu-west-2.amazonaws.com/123/close-ticket")
	t.Setenv("NOTIFY_API_KEY", "local-key")
	t.Setenv("NOTIFY_TEMPLATE_ID", "local-template")
}

func setDownloadEnv(t *testing.T) {
	t.Helper()

	t.Setenv("APP_ENV", "local")
	t.Setenv("SECURE_DOWNLOAD_TABLE_NAME", "secure-download")
	t.Setenv("QUERY_RESULTS_BUCKET_NAME", "myS3ObjectBucket")
	t.Setenv("DATABASE_TTL_HOURS", "8")
	t.Setenv("SECURE_DOWNLOAD_LINK_BASE_URL", "https://download.example.gov.uk/secure")
	t.Setenv("SEND_TO_EMAIL_QUEUE_URL", "https://sqs.eu-west-2.amazonaws.com/123/send-to-email")
}

func TestLoadEmailRequestConfigLocalSuccess(t *testing.T) {
	setEmailRequestEnv(t)

	cfg, err := LoadEmailRequestConfig(nil)
	if err != nil {
		t.Fatalf("LoadEmailRequestConfig returned error: %v", err)
	}

	if cfg.Environment != "local" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "local")
	}
	if !cfg.IsLocal() {
		t.Error("IsLocal() should be true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.CloseTicketQueueURL != "https://sqs.eu-west-2.amazonaws.com/123/close-ticket" {
		t.Errorf("CloseTicketQueueURL = %q", cfg.CloseTicketQueueURL)
	}
	if cfg.Notify.APIKey.Unmask() != "local-key" {
		t.Errorf("Notify.APIKey.Unmask() = %q", cfg.Notify.APIKey.Unmask())
	}
	if cfg.Notify.APIKey.String() != "***REDACTED***" {
		t.Errorf("Notify.APIKey.String() should be redacted, got %q", cfg.Notify.APIKey.String())
	}

	// Defaults
	if cfg.AWS.Region != "eu-west-2" {
		t.Errorf("AWS.Region = %q, want default eu-west-2", cfg.AWS.Region)
	}
	if cfg.Notify.Timeout != 10*time.Second {
		t.Errorf("Notify.Timeout = %v, want 10s", cfg.Notify.Timeout)
	}
	if cfg.Notify.UseMockServer {
		t.Error("Notify.UseMockServer should default to false")
	}
	if cfg.Observability.MetricNamespace != "QueryResults" {
		t.Errorf("MetricNamespace = %q, want default", cfg.Observability.MetricNamespace)
	}
	if cfg.Build.Version != "dev" {
		t.Errorf("Build.Version = %q, want %q", cfg.Build.Version, "dev")
	}
}

func TestLoadEmailRequestConfigMissingQueue(t *testing.T) {
	setEmailRequestEnv(t)
	t.Setenv("CLOSE_TICKET_QUEUE_URL", "")

	_, err := LoadEmailRequestConfig(nil)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Type != ErrValidation {
		t.Errorf("expected ErrValidation, got %q", cfgErr.Type)
	}
}

func TestLoadEmailRequestConfigMockServerRequiresURL(t *testing.T) {
	setEmailRequestEnv(t)
	t.Setenv("USE_NOTIFY_MOCK_SERVER", "true")
	t.Setenv("MOCK_SERVER_BASE_URL", "")

	_, err := LoadEmailRequestConfig(nil)
	if err == nil {
		t.Fatal("expected error when mock server is enabled without a URL")
	}
	if !strings.Contains(err.Error(), "MOCK_SERVER_BASE_URL") {
		t.Errorf("error should mention MOCK_SERVER_BASE_URL, got: %v", err)
	}
}

func TestLoadEmailRequestConfigDeployedNeedsSecretsARN(t *testing.T) {
	setEmailRequestEnv(t)
	t.Setenv("APP_ENV", "build")
	t.Setenv("NOTIFY_API_KEY", "")

	_, err := LoadEmailRequestConfig(nil)
	if err == nil {
		t.Fatal("expected error when no Notify credentials are configured")
	}
	if !strings.Contains(err.Error(), "NOTIFY_API_SECRETS_ARN") {
		t.Errorf("error should mention NOTIFY_API_SECRETS_ARN, got: %v", err)
	}
}

func TestLoadEmailRequestConfigInvalidEnvironment(t *testing.T) {
	setEmailRequestEnv(t)
	t.Setenv("APP_ENV", "invalid-env")

	_, err := LoadEmailRequestConfig(nil)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Type != ErrValidation {
		t.Errorf("expected ErrValidation, got %q", cfgErr.Type)
	}
}

func TestLoadConfigSetsUTC(t *testing.T) {
	setEmailRequestEnv(t)

	originalLocal := time.Local
	t.Cleanup(func() {
		time.Local = originalLocal
	})
	london, _ := time.LoadLocation("Europe/London")
	time.Local = london

	if _, err := LoadEmailRequestConfig(nil); err != nil {
		t.Fatalf("LoadEmailRequestConfig returned error: %v", err)
	}

	if time.Local != time.UTC {
		t.Errorf("time.Local = %v, want UTC", time.Local)
	}
}

func TestLoadDownloadConfigLocalSuccess(t *testing.T) {
	setDownloadEnv(t)

	cfg, err := LoadDownloadConfig(nil)
	if err != nil {
		t.Fatalf("LoadDownloadConfig returned error: %v", err)
	}

	if cfg.SecureDownloadTableName != "secure-download" {
		t.Errorf("SecureDownloadTableName = %q", cfg.SecureDownloadTableName)
	}
	if cfg.QueryResultsBucketName != "myS3ObjectBucket" {
		t.Errorf("QueryResultsBucketName = %q", cfg.QueryResultsBucketName)
	}
	if cfg.DatabaseTTLHours != 8 {
		t.Errorf("DatabaseTTLHours = %d, want 8", cfg.DatabaseTTLHours)
	}
	if cfg.RecordTTL() != 8*time.Hour {
		t.Errorf("RecordTTL() = %v, want 8h", cfg.RecordTTL())
	}
}

func TestLoadDownloadConfigRejectsBadTTL(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		wantType ConfigErrorType
	}{
		{"not a number", "eight", ErrParsing},
		{"zero", "0", ErrValidation},
		{"negative", "-3", ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setDownloadEnv(t)
			t.Setenv("DATABASE_TTL_HOURS", tt.value)

			_, err := LoadDownloadConfig(nil)

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T: %v", err, err)
			}
			if cfgErr.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", cfgErr.Type, tt.wantType)
			}
		})
	}
}

func TestResolveSSMParamsInjectsValues(t *testing.T) {
	env := fakeEnv{
		"APP_ENV":                  "build",
		"NOTIFY_API_KEY_SSM_PARAM": "/build/notify/api-key",
	}
	provider := &testSecretProvider{values: map[string]string{
		"/build/notify/api-key": "resolved-key",
	}}

	if err := resolveSSMParams(provider, env.deps()); err != nil {
		t.Fatalf("resolveSSMParams returned error: %v", err)
	}

	if env["NOTIFY_API_KEY"] != "resolved-key" {
		t.Errorf("NOTIFY_API_KEY = %q, want %q", env["NOTIFY_API_KEY"], "resolved-key")
	}
	if provider.callCount != 1 {
		t.Errorf("provider called %d times, want 1", provider.callCount)
	}
}

func TestResolveSSMParamsEnvTakesPriority(t *testing.T) {
	env := fakeEnv{
		"NOTIFY_API_KEY":           "from-env",
		"NOTIFY_API_KEY_SSM_PARAM": "/build/notify/api-key",
	}
	provider := &testSecretProvider{}

	if err := resolveSSMParams(provider, env.deps()); err != nil {
		t.Fatalf("resolveSSMParams returned error: %v", err)
	}

	if provider.callCount != 0 {
		t.Errorf("provider should not be called when target is already set")
	}
	if env["NOTIFY_API_KEY"] != "from-env" {
		t.Errorf("NOTIFY_API_KEY overwritten: %q", env["NOTIFY_API_KEY"])
	}
}

func TestResolveSSMParamsNilProvider(t *testing.T) {
	env := fakeEnv{"NOTIFY_API_KEY_SSM_PARAM": "/build/notify/api-key"}

	err := resolveSSMParams(nil, env.deps())

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Type != ErrSSMResolution {
		t.Errorf("Type = %q, want %q", cfgErr.Type, ErrSSMResolution)
	}
	if !strings.Contains(cfgErr.Message, "NOTIFY_API_KEY") {
		t.Errorf("message should name the unresolved variable: %s", cfgErr.Message)
	}
}

func TestResolveSSMParamsMissingParameter(t *testing.T) {
	env := fakeEnv{"NOTIFY_TEMPLATE_ID_SSM_PARAM": "/build/notify/template"}
	provider := &testSecretProvider{values: map[string]string{}}

	err := resolveSSMParams(provider, env.deps())
	if err == nil || !strings.Contains(err.Error(), "NOTIFY_TEMPLATE_ID") {
		t.Fatalf("expected missing-parameter error naming NOTIFY_TEMPLATE_ID, got %v", err)
	}
}

func TestResolveSSMParamsProviderError(t *testing.T) {
	boom := errors.New("ssm unavailable")
	env := fakeEnv{"NOTIFY_API_KEY_SSM_PARAM": "/build/notify/api-key"}

	err := resolveSSMParams(&testSecretProvider{err: boom}, env.deps())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}

func TestConfigErrorFormat(t *testing.T) {
	withCause := &ConfigError{Type: ErrParsing, Message: "bad value", Err: errors.New("strconv")}
	if got := withCause.Error(); got != "[PARSING_FAILED] bad value: strconv" {
		t.Errorf("Error() = %q", got)
	}

	bare := &ConfigError{Type: ErrValidation, Message: "missing"}
	if got := bare.Error(); got != "[VALIDATION_FAILED] missing" {
		t.Errorf("Error() = %q", got)
	}
}
