package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at path (optional when missing)
// 3. MAKERLETTER_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("MAKERLETTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper already knows about, so credentials
	// without defaults need explicit binds for their env overrides to land.
	for _, key := range []string{
		"export.token",
		"export.guild_id",
		"export.after",
		"export.before",
		"gemini.api_key",
		"listmonk.username",
		"listmonk.password",
		"listmonk.list_id",
		"listmonk.from_email",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %q: %w", key, err)
		}
	}

	// A missing config file is fine, everything has a default or an env
	// override. Any other read error is fatal.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !strings.Contains(err.Error(), "no such file") {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("database.path", "makerletter.db")

	v.SetDefault("export.binary", "discordchatexporter")
	v.SetDefault("export.output_dir", "out")

	v.SetDefault("gather.context_window", 10)
	v.SetDefault("gather.include_embeds", false)
	v.SetDefault("gather.fetch_previews", true)
	v.SetDefault("gather.fetch_timeout", 8*time.Second)
	v.SetDefault("gather.user_agent", "makerletter/0.1 (+https://github.com/edgard/makerletter)")
	v.SetDefault("gather.contexts_file", "messages_with_links.json")
	v.SetDefault("gather.links_file", "links.txt")

	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.temperature", 0.4)
	v.SetDefault("gemini.max_retries", 3)
	v.SetDefault("gemini.retry_delay_seconds", 5)
	v.SetDefault("gemini.community_name", "The Makery")

	v.SetDefault("newsletter.template_path", "templates/newsletter.html")
	v.SetDefault("newsletter.output_file", "newsletter.html")
	v.SetDefault("newsletter.curated_file", "curated_links.json")
	v.SetDefault("newsletter.intro", "Here's what we've been talking about on Discord lately:")
	v.SetDefault("newsletter.inline_css", true)

	v.SetDefault("listmonk.url", "http://localhost:9000")
	v.SetDefault("listmonk.template_id", 1)
	v.SetDefault("listmonk.content_type", "richtext")
	v.SetDefault("listmonk.tags", []string{"makerletter"})
	v.SetDefault("listmonk.timeout", time.Minute)
	v.SetDefault("listmonk.max_retries", 3)
	v.SetDefault("listmonk.retry_delay", time.Minute)
}
