// Package config manages application configuration from a YAML file,
// MAKERLETTER_-prefixed environment variables, and default values.
package config

import (
	"time"
)

// Config defines the application configuration for all pipeline stages.
// Values can be set in config.yaml or via environment variables, e.g.
// MAKERLETTER_LISTMONK_PASSWORD overrides listmonk.password.
type Config struct {
	Logger     LoggerConfig     `mapstructure:"logger"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Export     ExportConfig     `mapstructure:"export"`
	Gather     GatherConfig     `mapstructure:"gather"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Newsletter NewsletterConfig `mapstructure:"newsletter"`
	Listmonk   ListmonkConfig   `mapstructure:"listmonk"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig holds the SQLite database location. The database stores the
// persistent link preview cache and the record of sent campaigns.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ExportConfig configures the external Discord export tool invocation.
// The token is a credential and must come from the config file or the
// environment, never from a flag or a literal.
type ExportConfig struct {
	Binary    string `mapstructure:"binary"     validate:"required"`
	Token     string `mapstructure:"token"`
	GuildID   string `mapstructure:"guild_id"`
	After     string `mapstructure:"after"`
	Before    string `mapstructure:"before"`
	OutputDir string `mapstructure:"output_dir" validate:"required"`
}

// GatherConfig configures link extraction from exported JSON.
type GatherConfig struct {
	ContextWindow int           `mapstructure:"context_window" validate:"min=0,max=100"`
	IncludeEmbeds bool          `mapstructure:"include_embeds"`
	FetchPreviews bool          `mapstructure:"fetch_previews"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"  validate:"min=1s,max=5m"`
	UserAgent     string        `mapstructure:"user_agent"     validate:"required"`
	ContextsFile  string        `mapstructure:"contexts_file"  validate:"required"`
	LinksFile     string        `mapstructure:"links_file"     validate:"required"`
}

// GeminiConfig configures the Gemini client used for page summaries and
// newsletter curation. An empty API key disables both.
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"               validate:"required"`
	Temperature       float32 `mapstructure:"temperature"         validate:"min=0,max=2"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=1,max=300"`
	CommunityName     string  `mapstructure:"community_name"      validate:"required"`
}

// NewsletterConfig configures the HTML rendering stage.
type NewsletterConfig struct {
	TemplatePath string `mapstructure:"template_path" validate:"required"`
	OutputFile   string `mapstructure:"output_file"   validate:"required"`
	CuratedFile  string `mapstructure:"curated_file"  validate:"required"`
	Intro        string `mapstructure:"intro"`
	InlineCSS    bool   `mapstructure:"inline_css"`
}

// ListmonkConfig configures the campaign service client.
type ListmonkConfig struct {
	URL         string        `mapstructure:"url"         validate:"omitempty,url"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	ListID      int           `mapstructure:"list_id"`
	TemplateID  int           `mapstructure:"template_id" validate:"min=0"`
	FromEmail   string        `mapstructure:"from_email"  validate:"omitempty,email"`
	ContentType string        `mapstructure:"content_type" validate:"oneof=richtext html plain"`
	Tags        []string      `mapstructure:"tags"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" validate:"min=1s,max=10m"`
}

// TaskConfig enables and schedules a single background task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their schedules for the scheduler daemon.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}
