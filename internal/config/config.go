package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

const (
	OrchestratorSkyPilot = "skypilot"
	OrchestratorREST     = "rest"
)

type Config struct {
	LogLevel         string
	LogFormat        string
	TelemetryEnabled bool

	Orchestrator    string
	SkyBinary       string
	OrchestratorURL string
	RequestTimeout  time.Duration

	ServingSetup       string
	ServingRunTemplate string

	SSHHost           string
	SSHPort           int
	SSHUser           string
	SSHKey            string
	SSHKnownHostsPath string
}

// Load reads the configuration from defaults, an optional config file and
// SKYVLLM_* environment variables, in increasing order of precedence. An
// empty path falls back to SKYVLLM_CONFIG.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("telemetry_enabled", false)
	v.SetDefault("orchestrator", OrchestratorSkyPilot)
	v.SetDefault("sky_binary", "sky")
	v.SetDefault("orchestrator_url", "")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("serving_setup", "pip install vllm")
	v.SetDefault("serving_run_template", "")
	v.SetDefault("ssh_host", "")
	v.SetDefault("ssh_port", 22)
	v.SetDefault("ssh_user", "")
	v.SetDefault("ssh_key", "")
	v.SetDefault("ssh_known_hosts", "")

	v.SetEnvPrefix("skyvllm")
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		TelemetryEnabled:   v.GetBool("telemetry_enabled"),
		Orchestrator:       v.GetString("orchestrator"),
		SkyBinary:          v.GetString("sky_binary"),
		OrchestratorURL:    v.GetString("orchestrator_url"),
		RequestTimeout:     v.GetDuration("request_timeout"),
		ServingSetup:       v.GetString("serving_setup"),
		ServingRunTemplate: v.GetString("serving_run_template"),
		SSHHost:            v.GetString("ssh_host"),
		SSHPort:            v.GetInt("ssh_port"),
		SSHUser:            v.GetString("ssh_user"),
		SSHKey:             v.GetString("ssh_key"),
		SSHKnownHostsPath:  v.GetString("ssh_known_hosts"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.LogFormat)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}

	switch c.Orchestrator {
	case OrchestratorSkyPilot:
		if c.SkyBinary == "" {
			return fmt.Errorf("sky binary must be set for the %s orchestrator", OrchestratorSkyPilot)
		}
	case OrchestratorREST:
		if c.OrchestratorURL == "" {
			return fmt.Errorf("orchestrator url must be set for the %s orchestrator", OrchestratorREST)
		}
	default:
		return fmt.Errorf("invalid orchestrator: %s (valid: %s, %s)", c.Orchestrator, OrchestratorSkyPilot, OrchestratorREST)
	}

	if c.ServingRunTemplate != "" {
		if err := validateFileExists(c.ServingRunTemplate); err != nil {
			return fmt.Errorf("serving run template: %w", err)
		}
	}

	if c.SSHHost != "" {
		if c.SSHUser == "" {
			return fmt.Errorf("ssh user must be set when ssh host is %s", c.SSHHost)
		}
		if err := validateFileExists(c.SSHKey); err != nil {
			return fmt.Errorf("ssh key: %w", err)
		}
	}

	return nil
}

func validateFileExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	} else if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	return nil
}
