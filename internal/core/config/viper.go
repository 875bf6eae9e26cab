package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/solatis/surveylogic/internal/logic"
	"github.com/solatis/surveylogic/internal/types"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults matching DefaultConfig
	defaults := DefaultConfig()
	v.SetDefault("log.level", defaults.LogLevel)
	v.SetDefault("log.format", defaults.LogFormat)
	v.SetDefault("database.url", "")
	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.request_timeout", defaults.Server.RequestTimeout.String())
	v.SetDefault("server.max_recv_msg_size", defaults.Server.MaxRecvMsgSize)

	// Bind environment variables with SL_ prefix
	v.SetEnvPrefix("SL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Database credentials must come from SL_DATABASE_URL, never the file
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:    v.GetString("log.level"),
		LogFormat:   v.GetString("log.format"),
		DatabaseURL: v.GetString("database.url"),
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			MaxRecvMsgSize: v.GetInt("server.max_recv_msg_size"),
		},
		Logic: LogicConfig{
			RuleTypes: defaults.Logic.RuleTypes,
			Classes:   v.GetStringMapString("logic.classes"),
		},
	}

	if v.IsSet("logic.rule_types") {
		var ruleTypes []types.RuleTypeDescriptor
		if err := v.UnmarshalKey("logic.rule_types", &ruleTypes); err != nil {
			return nil, fmt.Errorf("invalid logic.rule_types: %w", err)
		}
		cfg.Logic.RuleTypes = ruleTypes
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks log settings, port range, positive limits and the rule-type table.
func validateConfig(cfg *Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error, got %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log format must be json or text, got %q", cfg.LogFormat)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.MaxRecvMsgSize <= 0 {
		return fmt.Errorf("max_recv_msg_size must be positive, got %d", cfg.Server.MaxRecvMsgSize)
	}
	if len(cfg.Logic.RuleTypes) == 0 {
		return fmt.Errorf("logic.rule_types must not be empty")
	}
	if err := logic.ValidateDescriptors(cfg.Logic.RuleTypes); err != nil {
		return fmt.Errorf("invalid logic.rule_types: %w", err)
	}
	for class, parent := range cfg.Logic.Classes {
		if class == parent {
			return fmt.Errorf("class %q cannot be its own parent", class)
		}
	}
	return nil
}

// validateNoSecretsInConfig rejects a database URL with a password in the config file.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if !v.InConfig("database.url") {
		return nil
	}
	// Environment wins over the file, so the file value is never used
	if _, ok := os.LookupEnv("SL_DATABASE_URL"); ok {
		return nil
	}
	u, err := url.Parse(v.GetString("database.url"))
	if err != nil {
		return nil
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		return fmt.Errorf("database passwords not allowed in config files (use SL_DATABASE_URL environment variable)")
	}
	return nil
}
