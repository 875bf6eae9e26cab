// Package config provides configuration management for surveylogic services.
package config

import (
	"time"

	"github.com/solatis/surveylogic/internal/logic"
	"github.com/solatis/surveylogic/internal/types"
)

// Config holds configuration shared by all commands.
type Config struct {
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	Server      ServerConfig
	Logic       LogicConfig
}

// ServerConfig holds configuration for the gRPC host bridge.
type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	MaxRecvMsgSize int
}

// LogicConfig holds the rule-type table and extra element classes.
type LogicConfig struct {
	// RuleTypes replaces the reference table when non-empty.
	RuleTypes []types.RuleTypeDescriptor
	// Classes maps custom element classes to their parent class.
	Classes map[string]string
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           50061,
			RequestTimeout: 10 * time.Second,
			MaxRecvMsgSize: 4 * 1024 * 1024,
		},
		Logic: LogicConfig{
			RuleTypes: logic.DefaultDescriptors(),
			Classes:   map[string]string{},
		},
	}
}

// EngineOptions converts the logic section into engine options.
// Predicates stay the reference ones; configured names without one are always visible.
func (c *Config) EngineOptions() logic.Options {
	return logic.Options{
		Descriptors: c.Logic.RuleTypes,
		Checks:      logic.DefaultChecks(),
	}
}
