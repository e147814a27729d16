package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tinytelemetry/fxlive/internal/logging"
	"github.com/tinytelemetry/fxlive/internal/model"
	"github.com/tinytelemetry/fxlive/internal/poll"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// appConfig holds the converter's runtime configuration.
type appConfig struct {
	BaseURL        string        `mapstructure:"base-url"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	Markup         float64       `mapstructure:"markup"`
	PollRate       float64       `mapstructure:"poll-rate"`
	FireThreshold  float64       `mapstructure:"fire-threshold"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
	FrameInterval  time.Duration `mapstructure:"frame-interval"`
	SellCountry    string        `mapstructure:"sell-country"`
	BuyCountry     string        `mapstructure:"buy-country"`
	SeedRate       float64       `mapstructure:"seed-rate"`
	CountriesFile  string        `mapstructure:"countries-file"`
	HistorySize    int           `mapstructure:"history-size"`
	LogFile        string        `mapstructure:"log-file"`
	LogLevel       string        `mapstructure:"log-level"`
	ConfigPath     string        `mapstructure:"-"` // not from config file
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	// A missing .env is fine; a malformed one is not.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	defaultLogFile, err := logging.DefaultPath("fxlive")
	if err != nil {
		return cfg, err
	}

	v := viper.New()
	v.SetEnvPrefix("FXLIVE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("base-url", model.DefaultBaseURL)
	v.SetDefault("request-timeout", model.DefaultRequestTimeout)
	v.SetDefault("markup", model.DefaultMarkup)
	v.SetDefault("poll-rate", model.DefaultPollRate)
	v.SetDefault("fire-threshold", model.DefaultFireThreshold)
	v.SetDefault("cooldown", model.DefaultCooldown)
	v.SetDefault("frame-interval", model.DefaultFrameInterval)
	v.SetDefault("sell-country", model.DefaultSellCountry)
	v.SetDefault("buy-country", model.DefaultBuyCountry)
	v.SetDefault("seed-rate", model.DefaultSeedRate)
	v.SetDefault("countries-file", "")
	v.SetDefault("history-size", model.DefaultHistorySize)
	v.SetDefault("log-file", defaultLogFile)
	v.SetDefault("log-level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "fxlive", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	// Expand ~ in file paths
	cfg.CountriesFile = expandHome(home, cfg.CountriesFile)
	cfg.LogFile = expandHome(home, cfg.LogFile)

	return cfg, cfg.validate()
}

func (c appConfig) validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("base-url must not be empty")
	case c.RequestTimeout <= 0:
		return fmt.Errorf("invalid request-timeout: %s", c.RequestTimeout)
	case c.Markup < 0 || c.Markup >= 1:
		return fmt.Errorf("markup must be in [0,1), got %v", c.Markup)
	case c.Cooldown < 0:
		return fmt.Errorf("cooldown must not be negative, got %s", c.Cooldown)
	case c.FrameInterval <= 0:
		return fmt.Errorf("invalid frame-interval: %s", c.FrameInterval)
	case c.HistorySize < 0:
		return fmt.Errorf("invalid history-size: %d", c.HistorySize)
	}
	return c.pollConfig().Validate()
}

func (c appConfig) pollConfig() poll.Config {
	return poll.Config{Rate: c.PollRate, Threshold: c.FireThreshold}
}

func expandHome(home, path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
