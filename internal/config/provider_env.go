package config

import (
	"context"
	"os"
)

// EnvVarProvider implements SecretProvider by treating each key as the name
// of an environment variable. Used for local runs where pointer variables name
// other variables instead of SSM paths.
type EnvVarProvider struct{}

// NewEnvVarProvider creates a new EnvVarProvider.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{}
}

// GetParametersBatch returns the value of each key found in the environment.
// Missing keys are omitted.
func (p *EnvVarProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			result[key] = val
		}
	}
	return result, nil
}

// NewSecretProvider picks the SecretProvider for the given APP_ENV: the
// environment for local runs, SSM Parameter Store everywhere else.
func NewSecretProvider(appEnv, region string) SecretProvider {
	if appEnv == localEnv {
		return NewEnvVarProvider()
	}
	return NewSSMProvider(region)
}
