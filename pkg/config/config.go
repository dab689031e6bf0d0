// Package config provides configuration loading for the workflow engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/hsetrack/hseflow/pkg/models"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = 5 * time.Second
	DefaultBatchSize     = 10
	DefaultSweepInterval = 60 * time.Second
)

var (
	// ErrUnsupportedProvider is returned when a capability names an unknown provider.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	supportedProviders = map[string][]string{
		"email":     {models.EmailProviderSMTP, models.EmailProviderSendGrid, models.EmailProviderSES},
		"calendar":  {models.CalendarProviderGoogle, models.CalendarProviderOutlook},
		"tasks":     {models.TaskProviderJira, models.TaskProviderAsana, models.TaskProviderTrello, models.TaskProviderClickUp},
		"documents": {models.DocumentProviderSharePoint, models.DocumentProviderGoogleDrive, models.DocumentProviderDropbox},
	}
)

// Default returns the configuration used when nothing else is specified.
func Default() models.WorkflowEngineConfig {
	return models.WorkflowEngineConfig{
		MaxRetries:          DefaultMaxRetries,
		RetryDelay:          DefaultRetryDelay,
		BatchSize:           DefaultBatchSize,
		EnableLogging:       true,
		EnableNotifications: true,
		SweepInterval:       DefaultSweepInterval,
		ExternalAPIs: models.ExternalAPIs{
			Email:     models.ProviderConfig{Provider: models.EmailProviderSMTP},
			Calendar:  models.ProviderConfig{Provider: models.CalendarProviderGoogle},
			Tasks:     models.ProviderConfig{Provider: models.TaskProviderJira},
			Documents: models.ProviderConfig{Provider: models.DocumentProviderSharePoint},
		},
	}
}

// WithDefaults fills every zero field of cfg from Default. MaxRetries and the
// boolean switches are kept as given since zero is meaningful for them.
//
// A zero duration is indistinguishable from an unset one, so RetryDelay,
// SweepInterval and BatchSize of zero become their defaults; use a small
// positive RetryDelay for near-immediate retries. EnableLogging and
// EnableNotifications stay false on a struct literal, which silences the engine
// logger and drops meeting reminders and document reviewer notices. Start from
// Default to keep them on.
func WithDefaults(cfg models.WorkflowEngineConfig) (models.WorkflowEngineConfig, error) {
	maxRetries := cfg.MaxRetries

	defaults := Default()
	defaults.EnableLogging = cfg.EnableLogging
	defaults.EnableNotifications = cfg.EnableNotifications

	err := mergo.Merge(&cfg, defaults)
	if err != nil {
		return cfg, fmt.Errorf("failed to merge config defaults: %w", err)
	}

	cfg.MaxRetries = maxRetries

	return cfg, nil
}

// Validate checks field ranges and provider names.
func Validate(cfg models.WorkflowEngineConfig) error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	err := validate.Struct(cfg)
	if err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}

	checks := map[string]string{
		"email":     cfg.ExternalAPIs.Email.Provider,
		"calendar":  cfg.ExternalAPIs.Calendar.Provider,
		"tasks":     cfg.ExternalAPIs.Tasks.Provider,
		"documents": cfg.ExternalAPIs.Documents.Provider,
	}

	for capability, provider := range checks {
		if !slices.Contains(supportedProviders[capability], provider) {
			return fmt.Errorf("%w: %s provider %q (supported: %v)", ErrUnsupportedProvider, capability, provider, supportedProviders[capability])
		}
	}

	return nil
}

// SupportedProviders returns the provider names accepted for a capability.
func SupportedProviders(capability string) []string {
	return slices.Clone(supportedProviders[capability])
}

type fileConfig struct {
	Engine models.WorkflowEngineConfig `yaml:"engine"`
}

// Load reads an engine configuration from a YAML file and applies defaults.
func Load(path string) (models.WorkflowEngineConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return models.WorkflowEngineConfig{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	file := fileConfig{Engine: Default()}

	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return models.WorkflowEngineConfig{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	cfg, err := WithDefaults(file.Engine)
	if err != nil {
		return models.WorkflowEngineConfig{}, err
	}

	return cfg, Validate(cfg)
}

// LoadOrDefault loads the file at path, falling back to Default when path is empty.
func LoadOrDefault(path string) (models.WorkflowEngineConfig, error) {
	if path == "" {
		return Default(), nil
	}

	return Load(path)
}
