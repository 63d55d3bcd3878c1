package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
	Attack   AttackConfig   `mapstructure:"attack"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ProtectionMode string `mapstructure:"protection_mode"`
}

// DatabaseConfig holds persistence settings. Driver is "sqlite" or
// "postgres"; DSN is driver-specific.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AnalyzerConfig holds settings for the external reasoning service.
// An empty APIKey leaves the analyzer in fallback mode.
type AnalyzerConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	FallbackScore int           `mapstructure:"fallback_score"`
}

// AttackConfig holds synthetic event generation settings. The risk band
// is deliberately skewed high so the demo feed always shows meaningful
// threat levels.
type AttackConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	RiskScoreMin int           `mapstructure:"risk_score_min"`
	RiskScoreMax int           `mapstructure:"risk_score_max"`
}

// LoadConfig loads configuration from an optional YAML file and the
// environment (MEVSHIELD_ prefix), applying defaults for every field.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/mevshield")

	v.SetEnvPrefix("MEVSHIELD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults plus env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.protection_mode", "Protection mode: ACTIVE. Submitted trades are routed through the private relay.")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "mevshield.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("analyzer.base_url", "https://api.openai.com/v1")
	v.SetDefault("analyzer.api_key", "")
	v.SetDefault("analyzer.model", "gpt-4o-mini")
	v.SetDefault("analyzer.timeout", 30*time.Second)
	v.SetDefault("analyzer.fallback_score", 50)

	v.SetDefault("attack.interval", 15*time.Second)
	v.SetDefault("attack.risk_score_min", 50)
	v.SetDefault("attack.risk_score_max", 99)
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database DSN must not be empty")
	}
	if cfg.Attack.RiskScoreMin < 0 || cfg.Attack.RiskScoreMax > 100 ||
		cfg.Attack.RiskScoreMin > cfg.Attack.RiskScoreMax {
		return fmt.Errorf("invalid attack risk score band: [%d, %d]",
			cfg.Attack.RiskScoreMin, cfg.Attack.RiskScoreMax)
	}
	if cfg.Analyzer.FallbackScore < 0 || cfg.Analyzer.FallbackScore > 100 {
		return fmt.Errorf("invalid analyzer fallback score: %d", cfg.Analyzer.FallbackScore)
	}
	return nil
}
