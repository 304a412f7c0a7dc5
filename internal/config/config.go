// Package config defines the configuration of the query results delivery
// Lambdas. Configuration is loaded once at cold start and is immutable
// thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// Each Lambda loads only the subset it needs (EmailRequestConfig or
// DownloadConfig), so a missing variable only fails the function that uses it.
package config

import (
	"time"

	"queryresults/internal/types"
)

// SecretString is an alias for types.SecretString so configuration secrets are
// redacted in logs and JSON dumps.
type SecretString = types.SecretString

// BaseConfig holds settings shared by every Lambda.
type BaseConfig struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev build staging integration production"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	AWS           AWSConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo `ignored:"true"`
}

// IsLocal reports whether the process runs outside AWS (stdin events, stub providers).
func (c BaseConfig) IsLocal() bool {
	return c.Environment == localEnv
}

// AWSConfig holds regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"eu-west-2"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"QueryResults"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}

// EmailRequestConfig is the configuration of the send-email-request Lambda.
type EmailRequestConfig struct {
	BaseConfig

	CloseTicketQueueURL string `envconfig:"CLOSE_TICKET_QUEUE_URL" validate:"required,url"`

	Notify NotifyConfig
}

// NotifyConfig holds GOV.UK Notify settings. In deployed environments the API
// key and template ID come from the Secrets Manager secret named by SecretsARN;
// APIKey and TemplateID override it for local runs.
type NotifyConfig struct {
	SecretsARN string       `envconfig:"NOTIFY_API_SECRETS_ARN"`
	APIKey     SecretString `envconfig:"NOTIFY_API_KEY"`
	TemplateID string       `envconfig:"NOTIFY_TEMPLATE_ID"`

	UseMockServer     bool          `envconfig:"USE_NOTIFY_MOCK_SERVER" default:"false"`
	MockServerBaseURL string        `envconfig:"MOCK_SERVER_BASE_URL" validate:"omitempty,url"`
	Timeout           time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`
}

// DownloadConfig is the configuration of the generate-download Lambda.
type DownloadConfig struct {
	BaseConfig

	SecureDownloadTableName   string `envconfig:"SECURE_DOWNLOAD_TABLE_NAME" validate:"required"`
	QueryResultsBucketName    string `envconfig:"QUERY_RESULTS_BUCKET_NAME" validate:"required"`
	DatabaseTTLHours          int    `envconfig:"DATABASE_TTL_HOURS" validate:"required,gt=0"`
	SecureDownloadLinkBaseURL string `envconfig:"SECURE_DOWNLOAD_LINK_BASE_URL" validate:"required,url"`
	SendToEmailQueueURL       string `envconfig:"SEND_TO_EMAIL_QUEUE_URL" validate:"required,url"`
}

// RecordTTL returns the configured lifetime of a secure download record.
func (c DownloadConfig) RecordTTL() time.Duration {
	return time.Duration(c.DatabaseTTLHours) * time.Hour
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrSSMResolution indicates a failure when fetching values from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrSecretsManager indicates a failure when fetching the Notify secret.
	ErrSecretsManager ConfigErrorType = "SECRETS_MANAGER_FAILURE"
	// ErrValidation indicates the configuration failed validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
