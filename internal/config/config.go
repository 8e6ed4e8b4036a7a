// Package config provides configuration management for the backtester.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Backtest BacktestConfig `mapstructure:"backtest"`
	Data     DataConfig     `mapstructure:"data"`
	UI       UIConfig       `mapstructure:"ui"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// BacktestConfig holds run defaults and strategy parameters.
type BacktestConfig struct {
	InitialCapital      float64 `mapstructure:"initial_capital"`
	RiskFreeRate        float64 `mapstructure:"risk_free_rate"`
	Volatility          float64 `mapstructure:"volatility"`
	DaysToExpiration    int     `mapstructure:"days_to_expiration"`
	MaxShares           int     `mapstructure:"max_shares"`
	MaxContracts        int     `mapstructure:"max_contracts"`
	ProfitThreshold     float64 `mapstructure:"profit_threshold"`
	StrikeOffsetPercent float64 `mapstructure:"strike_offset_percent"`
}

// DataConfig holds data-acquisition configuration.
type DataConfig struct {
	Provider           string  `mapstructure:"provider"` // "csv", "alphavantage"
	Dir                string  `mapstructure:"dir"`
	SpreadPercent      float64 `mapstructure:"spread_percent"`
	AlphaVantageAPIKey string  `mapstructure:"alpha_vantage_api_key"`
	CacheEnabled       bool    `mapstructure:"cache_enabled"`
}

// UIConfig holds output configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-backtester"
	}
	return filepath.Join(home, ".config", "options-backtester")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// Missing config is fine; run on defaults and write a template
		// for the next edit.
		if err := writeTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("writing template config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backtest.initial_capital", 50000.0)
	v.SetDefault("backtest.risk_free_rate", 0.05)
	v.SetDefault("backtest.volatility", 0.20)
	v.SetDefault("backtest.days_to_expiration", 30)
	v.SetDefault("backtest.max_shares", 500)
	v.SetDefault("backtest.max_contracts", 500)
	v.SetDefault("backtest.profit_threshold", 50.0)
	v.SetDefault("backtest.strike_offset_percent", 0.05)

	v.SetDefault("data.provider", "csv")
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.spread_percent", 0.0005)
	v.SetDefault("data.cache_enabled", true)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "2006-01-02")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.Data.AlphaVantageAPIKey = v
	}
	if v := os.Getenv("BACKTEST_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("BACKTEST_DATA_PROVIDER"); v != "" {
		cfg.Data.Provider = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive")
	}
	if c.Backtest.Volatility < 0 {
		return fmt.Errorf("volatility must be non-negative")
	}
	if c.Backtest.DaysToExpiration <= 0 {
		return fmt.Errorf("days_to_expiration must be positive")
	}
	if c.Backtest.MaxShares <= 0 || c.Backtest.MaxContracts <= 0 {
		return fmt.Errorf("max_shares and max_contracts must be positive")
	}
	if c.Backtest.StrikeOffsetPercent < 0 || c.Backtest.StrikeOffsetPercent > 1 {
		return fmt.Errorf("strike_offset_percent must be between 0 and 1")
	}
	if c.Data.Provider != "csv" && c.Data.Provider != "alphavantage" {
		return fmt.Errorf("invalid data provider: %s (must be 'csv' or 'alphavantage')", c.Data.Provider)
	}
	if c.Data.SpreadPercent < 0 || c.Data.SpreadPercent >= 1 {
		return fmt.Errorf("spread_percent must be in [0, 1)")
	}
	return nil
}

// CachePath returns the path of the observation cache database.
func CachePath() string {
	return filepath.Join(DefaultConfigDir(), "observations.db")
}
