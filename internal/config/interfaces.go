package config

import "context"

// SecretProvider abstracts the retrieval of parameter values to support both
// AWS SSM Parameter Store (deployed) and environment variables (local).
type SecretProvider interface {
	// GetParametersBatch resolves the given parameter paths and returns a map
	// of path -> plaintext value for every parameter that was found.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
