package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	ReportChannelID string `yaml:"report_channel_id"`

	WatchDir      string `yaml:"watch_dir"`
	WatchSchedule string `yaml:"watch_schedule"`

	MaxRows           int    `yaml:"max_rows"`
	SessionGapMinutes int    `yaml:"session_gap_minutes"`
	AliasPath         string `yaml:"alias_path"`
	Timezone          string `yaml:"timezone"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.ReportChannelID, "REPORT_CHANNEL_ID")
	envOverride(&cfg.WatchDir, "WATCH_DIR")
	envOverride(&cfg.WatchSchedule, "WATCH_SCHEDULE")
	envOverrideInt(&cfg.MaxRows, "MAX_ROWS")
	envOverrideInt(&cfg.SessionGapMinutes, "SESSION_GAP_MINUTES")
	envOverride(&cfg.AliasPath, "ALIAS_PATH")
	envOverride(&cfg.Timezone, "TIMEZONE")

	// Defaults
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "anthropic"
	}
	if cfg.MaxRows == 0 {
		cfg.MaxRows = 250000
	}
	if cfg.SessionGapMinutes == 0 {
		cfg.SessionGapMinutes = 30
	}
	if cfg.WatchDir == "" {
		cfg.WatchDir = "./exports"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	if cfg.MaxRows < 1 {
		log.Fatalf("invalid max_rows '%d': must be >= 1", cfg.MaxRows)
	}
	if cfg.SessionGapMinutes < 1 {
		log.Fatalf("invalid session_gap_minutes '%d': must be >= 1", cfg.SessionGapMinutes)
	}
	if cfg.AliasPath != "" {
		if _, err := LoadAliases(cfg.AliasPath); err != nil {
			log.Fatalf("invalid alias_path '%s': %v", cfg.AliasPath, err)
		}
	}

	if cfg.Timezone != "Local" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		time.Local = loc
	}

	return cfg
}

func (c Config) SessionGap() time.Duration {
	return time.Duration(c.SessionGapMinutes) * time.Minute
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.ReportChannelID != ""
}

// Aliases returns the configured alias set, falling back to the defaults.
func (c Config) Aliases() AliasSet {
	if c.AliasPath == "" {
		return DefaultAliases()
	}
	aliases, err := LoadAliases(c.AliasPath)
	if err != nil {
		log.Printf("alias load failed path=%s err=%v — using defaults", c.AliasPath, err)
		return DefaultAliases()
	}
	return aliases
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
