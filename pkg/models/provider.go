package models

import "time"

// Provider names per capability.
const (
	EmailProviderSMTP     = "smtp"
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "aws-ses"

	CalendarProviderGoogle  = "google"
	CalendarProviderOutlook = "outlook"

	TaskProviderJira    = "jira"
	TaskProviderAsana   = "asana"
	TaskProviderTrello  = "trello"
	TaskProviderClickUp = "clickup"

	DocumentProviderSharePoint  = "sharepoint"
	DocumentProviderGoogleDrive = "google-drive"
	DocumentProviderDropbox     = "dropbox"
)

// ProviderConfig names a provider back end and carries its provider-specific settings.
type ProviderConfig struct {
	Provider string         `json:"provider"         yaml:"provider"`
	Config   map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// ExternalAPIs selects the back end of every provider capability.
type ExternalAPIs struct {
	Email     ProviderConfig `json:"email"     yaml:"email"`
	Calendar  ProviderConfig `json:"calendar"  yaml:"calendar"`
	Tasks     ProviderConfig `json:"tasks"     yaml:"tasks"`
	Documents ProviderConfig `json:"documents" yaml:"documents"`
}

// WorkflowEngineConfig configures one engine instance.
type WorkflowEngineConfig struct {
	MaxRetries          int           `json:"maxRetries"          yaml:"max_retries"          validate:"min=0,max=100"`
	RetryDelay          time.Duration `json:"retryDelay"          yaml:"retry_delay"          validate:"min=0"`
	BatchSize           int           `json:"batchSize"           yaml:"batch_size"           validate:"min=1"`
	EnableLogging       bool          `json:"enableLogging"       yaml:"enable_logging"`
	EnableNotifications bool          `json:"enableNotifications" yaml:"enable_notifications"`
	SweepInterval       time.Duration `json:"sweepInterval"       yaml:"sweep_interval"       validate:"min=0"`
	// MaxConcurrent caps concurrently running executions; zero means unlimited.
	MaxConcurrent int `json:"maxConcurrent" yaml:"max_concurrent" validate:"min=0"`
	// ExecutionTimeout bounds one provider call; zero means no deadline.
	ExecutionTimeout time.Duration `json:"executionTimeout" yaml:"execution_timeout" validate:"min=0"`
	ExternalAPIs     ExternalAPIs  `json:"externalApis"     yaml:"external_apis"`
}
