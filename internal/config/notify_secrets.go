package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/go-playground/validator/v10"
)

// SecretsManagerClient is the subset of the Secrets Manager SDK client used to
// read the Notify secret.
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// NotifySecrets holds the Notify credentials stored as a JSON secret.
type NotifySecrets struct {
	APIKey     SecretString `json:"notifyApiKey" validate:"required"`
	TemplateID string       `json:"notifyTemplateId" validate:"required"`
}

// ResolveNotifySecrets returns the Notify credentials for cfg. Explicit
// NOTIFY_API_KEY/NOTIFY_TEMPLATE_ID values win; otherwise the secret named by
// NOTIFY_API_SECRETS_ARN is fetched. client may be nil when no fetch is needed.
func ResolveNotifySecrets(ctx context.Context, client SecretsManagerClient, cfg NotifyConfig) (NotifySecrets, error) {
	if cfg.APIKey.Unmask() != "" && cfg.TemplateID != "" {
		return NotifySecrets{APIKey: cfg.APIKey, TemplateID: cfg.TemplateID}, nil
	}
	if cfg.SecretsARN == "" {
		return NotifySecrets{}, &ConfigError{
			Type:    ErrSecretsManager,
			Message: "no Notify credentials configured",
		}
	}
	if client == nil {
		return NotifySecrets{}, &ConfigError{
			Type:    ErrSecretsManager,
			Message: "Secrets Manager client is required to resolve NOTIFY_API_SECRETS_ARN",
		}
	}
	return LoadNotifySecrets(ctx, client, cfg.SecretsARN)
}

// LoadNotifySecrets fetches and validates the Notify secret stored at secretID.
func LoadNotifySecrets(ctx context.Context, client SecretsManagerClient, secretID string) (NotifySecrets, error) {
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return NotifySecrets{}, &ConfigError{
			Type:    ErrSecretsManager,
			Message: fmt.Sprintf("failed to read secret %s", secretID),
			Err:     err,
		}
	}
	if out.SecretString == nil {
		return NotifySecrets{}, &ConfigError{
			Type:    ErrSecretsManager,
			Message: fmt.Sprintf("secret %s has no string value", secretID),
		}
	}

	var secrets NotifySecrets
	if err := json.Unmarshal([]byte(*out.SecretString), &secrets); err != nil {
		return NotifySecrets{}, &ConfigError{
			Type:    ErrSecretsManager,
			Message: fmt.Sprintf("secret %s is not valid JSON", secretID),
			Err:     err,
		}
	}

	if err := validator.New().Struct(secrets); err != nil {
		return NotifySecrets{}, &ConfigError{
			Type:    ErrValidation,
			Message: fmt.Sprintf("secret %s is missing Notify values", secretID),
			Err:     err,
		}
	}

	return secrets, nil
}
