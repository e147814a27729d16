package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tinytelemetry/fxlive/internal/model"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// stubConfig holds the stub service configuration.
type stubConfig struct {
	ListenAddr string  `mapstructure:"listen-addr"`
	RatesFile  string  `mapstructure:"rates-file"`
	Jitter     float64 `mapstructure:"jitter"`
	FailEvery  int     `mapstructure:"fail-every"`
	LogFile    string  `mapstructure:"log-file"`
	LogLevel   string  `mapstructure:"log-level"`
}

func loadConfig(configPath string) (stubConfig, error) {
	var cfg stubConfig

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("FXSTUB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("listen-addr", model.DefaultStubAddr)
	v.SetDefault("rates-file", "")
	v.SetDefault("jitter", 0.002)
	v.SetDefault("fail-every", 0)
	v.SetDefault("log-file", "-")
	v.SetDefault("log-level", "info")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "fxlive", "stub.yml"))
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

	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		return cfg, fmt.Errorf("jitter must be in [0,1), got %v", cfg.Jitter)
	}
	if cfg.FailEvery < 0 {
		return cfg, fmt.Errorf("invalid fail-every: %d", cfg.FailEvery)
	}
	if strings.HasPrefix(cfg.RatesFile, "~/") {
		cfg.RatesFile = filepath.Join(home, cfg.RatesFile[2:])
	}

	return cfg, nil
}
