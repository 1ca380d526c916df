package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Discord struct {
		WebhookURL       string `yaml:"webhook_url"`
		BotToken         string `yaml:"bot_token"`
		CommandChannelID string `yaml:"command_channel_id"`
	} `yaml:"discord"`
	Oracle struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
	} `yaml:"oracle"`
	Scanner struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"scanner"`
	Broker struct {
		BaseURL       string `yaml:"base_url"`
		Username      string `yaml:"username"`
		Password      string `yaml:"password"`
		AccountNumber string `yaml:"account_number"`
	} `yaml:"broker"`
	Schedule struct {
		Timezone         string `yaml:"timezone"`
		CycleCron        string `yaml:"cycle_cron"`
		PlanCron         string `yaml:"plan_cron"`
		UpdateWindowCron string `yaml:"update_window_cron"`
		PreMarketCron    string `yaml:"pre_market_cron"`
		PostMarketCron   string `yaml:"post_market_cron"`
		EveningCron      string `yaml:"evening_cron"`
	} `yaml:"schedule"`
	Trading struct {
		CycleIntervalMinutes int        `yaml:"cycle_interval_minutes"`
		Categories           []Category `yaml:"categories"`
	} `yaml:"trading"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

// Category is one entry of the sequential funding priority list. The list
// and its target multipliers are configuration, not a fixed contract.
type Category struct {
	Name       string   `yaml:"name"`
	Kind       string   `yaml:"kind"` // equity | crypto | combined | basket
	Symbols    []string `yaml:"symbols"`
	Multiplier int64    `yaml:"multiplier"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Discord.WebhookURL = v
	}
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" {
		cfg.Discord.BotToken = v
	}
	if v := os.Getenv("DISCORD_COMMAND_CHANNEL_ID"); v != "" {
		cfg.Discord.CommandChannelID = v
	}
	if v := os.Getenv("ORACLE_BASE_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
	if v := os.Getenv("ORACLE_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("SCANNER_BASE_URL"); v != "" {
		cfg.Scanner.BaseURL = v
	}
	if v := os.Getenv("BROKER_BASE_URL"); v != "" {
		cfg.Broker.BaseURL = v
	}
	if v := os.Getenv("BROKER_USERNAME"); v != "" {
		cfg.Broker.Username = v
	}
	if v := os.Getenv("BROKER_PASSWORD"); v != "" {
		cfg.Broker.Password = v
	}
	if v := os.Getenv("BROKER_ACCOUNT_NUMBER"); v != "" {
		cfg.Broker.AccountNumber = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if cfg.Scanner.BaseURL == "" {
		cfg.Scanner.BaseURL = "http://localhost:8081"
	}
	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = "gpt-4o"
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "America/Chicago"
	}
	if cfg.Schedule.CycleCron == "" {
		cfg.Schedule.CycleCron = "0 25 8 * * 1-5"
	}
	if cfg.Schedule.PlanCron == "" {
		cfg.Schedule.PlanCron = "0 35 8 * * 1-5"
	}
	if cfg.Schedule.UpdateWindowCron == "" {
		cfg.Schedule.UpdateWindowCron = "0 0 2 * * *"
	}
	if cfg.Schedule.PreMarketCron == "" {
		cfg.Schedule.PreMarketCron = "0 0 8 * * 1-5"
	}
	if cfg.Schedule.PostMarketCron == "" {
		cfg.Schedule.PostMarketCron = "0 30 15 * * 1-5"
	}
	if cfg.Schedule.EveningCron == "" {
		cfg.Schedule.EveningCron = "0 0 17 * * 1-5"
	}
	if cfg.Trading.CycleIntervalMinutes == 0 {
		cfg.Trading.CycleIntervalMinutes = 5
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/thufir.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Discord.WebhookURL == "" {
		return fmt.Errorf("discord.webhook_url is required")
	}
	if c.Oracle.BaseURL == "" {
		return fmt.Errorf("oracle.base_url is required")
	}
	if c.Broker.BaseURL == "" {
		return fmt.Errorf("broker.base_url is required")
	}
	if c.Broker.Username == "" || c.Broker.Password == "" {
		return fmt.Errorf("broker credentials are required")
	}
	if c.Broker.AccountNumber == "" {
		return fmt.Errorf("broker.account_number is required")
	}
	for _, cat := range c.Trading.Categories {
		if cat.Name == "" || len(cat.Symbols) == 0 {
			return fmt.Errorf("trading.categories entries need a name and symbols")
		}
	}
	return nil
}
