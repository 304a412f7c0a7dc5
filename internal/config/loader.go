// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone so epoch arithmetic never depends on the host.
//  2. Load .env file via godotenv (non-fatal if absent).
//  3. If APP_ENV != "local", resolve _SSM_PARAM pointer variables via the
//     SecretProvider and inject the resolved values back into the environment.
//  4. Use envconfig to process struct tags and populate the target struct.
//  5. Validate the struct using go-playground/validator.
//  6. Populate BuildInfo from linker-injected variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is a diagnostic error type returned by the loaders.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ssmParamSuffix marks pointer variables: NOTIFY_API_KEY_SSM_PARAM=/path
// resolves NOTIFY_API_KEY from SSM.
const ssmParamSuffix = "_SSM_PARAM"

// localEnv is the APP_ENV value that bypasses SSM resolution.
const localEnv = "local"

type envLookup func(key string) (string, bool)

type envSet func(key, value string) error

type environ func() []string

// loaderDeps holds the injectable dependencies for the loader so tests do not
// mutate process state.
type loaderDeps struct {
	lookupEnv envLookup
	setEnv    envSet
	environ   environ
}

func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv: os.LookupEnv,
		setEnv:    os.Setenv,
		environ:   os.Environ,
	}
}

// LoadEmailRequestConfig loads and validates the configuration of the
// send-email-request Lambda. provider may be nil when APP_ENV is "local".
func LoadEmailRequestConfig(provider SecretProvider) (*EmailRequestConfig, error) {
	var cfg EmailRequestConfig
	if err := load(provider, defaultDeps(), &cfg); err != nil {
		return nil, err
	}
	cfg.Build = NewBuildInfo()

	if err := validateNotify(cfg.Environment, cfg.Notify); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDownloadConfig loads and validates the configuration of the
// generate-download Lambda. provider may be nil when APP_ENV is "local".
func LoadDownloadConfig(provider SecretProvider) (*DownloadConfig, error) {
	var cfg DownloadConfig
	if err := load(provider, defaultDeps(), &cfg); err != nil {
		return nil, err
	}
	cfg.Build = NewBuildInfo()
	return &cfg, nil
}

// load runs the shared lifecycle against target, which must be a pointer to
// an envconfig-tagged struct.
func load(provider SecretProvider, deps loaderDeps, target any) error {
	time.Local = time.UTC

	// godotenv.Load does not override variables already present.
	_ = godotenv.Load()

	appEnv, _ := deps.lookupEnv("APP_ENV")
	if appEnv != localEnv {
		if err := resolveSSMParams(provider, deps); err != nil {
			return err
		}
	}

	if err := envconfig.Process("", target); err != nil {
		return &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	if err := validator.New().Struct(target); err != nil {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return nil
}

// validateNotify applies the cross-field rules struct tags cannot express.
func validateNotify(environment string, n NotifyConfig) error {
	var problems []string

	if n.UseMockServer && n.MockServerBaseURL == "" {
		problems = append(problems, "MOCK_SERVER_BASE_URL is required when USE_NOTIFY_MOCK_SERVER is true")
	}
	if n.SecretsARN == "" && environment != localEnv {
		if n.APIKey.Unmask() == "" || n.TemplateID == "" {
			problems = append(problems, "NOTIFY_API_SECRETS_ARN is required unless NOTIFY_API_KEY and NOTIFY_TEMPLATE_ID are set")
		}
	}
	if n.Timeout <= 0 {
		problems = append(problems, "NOTIFY_TIMEOUT must be positive")
	}

	if len(problems) > 0 {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "notify configuration validation failed",
			Err:     errors.New(strings.Join(problems, "; ")),
		}
	}
	return nil
}

// resolveSSMParams scans the environment for variables ending in _SSM_PARAM,
// fetches the referenced values via the SecretProvider, and injects them under
// the variable name with the suffix stripped.
//
// A target variable that is already set is left alone (Env > SSM).
func resolveSSMParams(provider SecretProvider, deps loaderDeps) error {
	type ssmBinding struct {
		targetEnvVar string
		ssmPath      string
	}

	var bindings []ssmBinding
	ssmPathToTarget := make(map[string]string)

	for _, envEntry := range deps.environ() {
		eqIdx := strings.IndexByte(envEntry, '=')
		if eqIdx < 0 {
			continue
		}
		key := envEntry[:eqIdx]
		if !strings.HasSuffix(key, ssmParamSuffix) {
			continue
		}

		targetEnvVar := strings.TrimSuffix(key, ssmParamSuffix)
		if _, exists := deps.lookupEnv(targetEnvVar); exists {
			continue
		}

		ssmPath := envEntry[eqIdx+1:]
		if ssmPath == "" {
			continue
		}

		bindings = append(bindings, ssmBinding{targetEnvVar: targetEnvVar, ssmPath: ssmPath})
		ssmPathToTarget[ssmPath] = targetEnvVar
	}

	if len(bindings) == 0 {
		return nil
	}

	if provider == nil {
		targetVars := make([]string, 0, len(bindings))
		for _, b := range bindings {
			targetVars = append(targetVars, b.targetEnvVar)
		}
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SecretProvider is required for non-local environments (need to resolve: %s)", strings.Join(targetVars, ", ")),
		}
	}

	ssmPaths := make([]string, 0, len(bindings))
	for _, b := range bindings {
		ssmPaths = append(ssmPaths, b.ssmPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resolved, err := provider.GetParametersBatch(ctx, ssmPaths)
	if err != nil {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("failed to resolve %d SSM parameters", len(ssmPaths)),
			Err:     err,
		}
	}

	for ssmPath, value := range resolved {
		targetEnvVar, ok := ssmPathToTarget[ssmPath]
		if !ok {
			continue
		}
		if err := deps.setEnv(targetEnvVar, value); err != nil {
			return &ConfigError{
				Type:    ErrSSMResolution,
				Message: fmt.Sprintf("failed to set resolved value for %s", targetEnvVar),
				Err:     err,
			}
		}
	}

	var missing []string
	for _, b := range bindings {
		if _, ok := resolved[b.ssmPath]; !ok {
			missing = append(missing, b.targetEnvVar)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SSM parameters not found for: %s", strings.Join(missing, ", ")),
		}
	}

	return nil
}
