// Package config provides configuration loading utilities.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SupportedVersions lists all schema versions supported by this loader.
var SupportedVersions = []int{1}

// versionHeader is used to extract just the version from YAML.
type versionHeader struct {
	Version *int `yaml:"version"`
}

// Config is the resolved service configuration.
type Config struct {
	Version int

	ListenAddr   string
	DatabasePath string
	SeedDir      string

	BusinessProfile string
	MatcherEnabled  bool

	CORSOrigins []string

	Slack SlackConfig

	Sweeper SweeperConfig
}

// SlackConfig configures supervisor notifications. A missing token disables
// Slack delivery.
type SlackConfig struct {
	Token   string
	Channel string
}

// SweeperConfig controls the stale-request sweep.
type SweeperConfig struct {
	TimeoutDays   int
	IntervalHours int
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Version:        1,
		ListenAddr:     ":8000",
		DatabasePath:   "frontdesk.db",
		MatcherEnabled: true,
		CORSOrigins:    []string{"*"},
		Sweeper:        SweeperConfig{TimeoutDays: 2, IntervalHours: 6},
	}
}

// Load loads a Config from YAML data with schema version validation.
func Load(data []byte) (*Config, error) {
	// 1. Parse version field first
	var header versionHeader
	if err := yaml.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// 2. Validate version is present
	if header.Version == nil {
		return nil, errors.New("version field is required")
	}

	// 3. Route to version-specific loader
	switch *header.Version {
	case 1:
		return loadV1(data)
	default:
		return nil, fmt.Errorf("unsupported schema version: %d (supported: %v)", *header.Version, SupportedVersions)
	}
}

// LoadFile loads a Config from a YAML file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Load(data)
}

// configV1 is the internal representation for schema version 1.
type configV1 struct {
	Version int       `yaml:"version"`
	Listen  string    `yaml:"listen,omitempty"`
	Server  *serverV1 `yaml:"server,omitempty"`

	Database databaseV1 `yaml:"database"`
	Seed     *seedV1    `yaml:"seed,omitempty"`

	Agent *agentV1 `yaml:"agent,omitempty"`

	Slack   *slackV1   `yaml:"slack,omitempty"`
	Sweeper *sweeperV1 `yaml:"sweeper,omitempty"`
}

type serverV1 struct {
	Listen      string   `yaml:"listen,omitempty"`
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

type databaseV1 struct {
	Path string `yaml:"path"`
}

type seedV1 struct {
	Dir string `yaml:"dir,omitempty"`
}

type agentV1 struct {
	BusinessProfile string `yaml:"business_profile,omitempty"`
	MatcherEnabled  *bool  `yaml:"matcher_enabled,omitempty"`
}

type slackV1 struct {
	Token   string `yaml:"token,omitempty"`
	Channel string `yaml:"channel,omitempty"`
}

type sweeperV1 struct {
	TimeoutDays   int `yaml:"timeout_days,omitempty"`
	IntervalHours int `yaml:"interval_hours,omitempty"`
}

// loadV1 loads a version 1 config from YAML data.
func loadV1(data []byte) (*Config, error) {
	var cv1 configV1
	if err := yaml.Unmarshal(data, &cv1); err != nil {
		return nil, fmt.Errorf("failed to parse config v1: %w", err)
	}

	cfg := Default()
	cfg.Version = cv1.Version

	if cv1.Listen != "" {
		cfg.ListenAddr = cv1.Listen
	}
	if cv1.Server != nil {
		if cv1.Server.Listen != "" {
			cfg.ListenAddr = cv1.Server.Listen
		}
		if len(cv1.Server.CORSOrigins) > 0 {
			cfg.CORSOrigins = cv1.Server.CORSOrigins
		}
	}

	if cv1.Database.Path == "" {
		return nil, errors.New("database.path is required")
	}
	cfg.DatabasePath = cv1.Database.Path

	if cv1.Seed != nil {
		cfg.SeedDir = cv1.Seed.Dir
	}

	if cv1.Agent != nil {
		cfg.BusinessProfile = cv1.Agent.BusinessProfile
		if cv1.Agent.MatcherEnabled != nil {
			cfg.MatcherEnabled = *cv1.Agent.MatcherEnabled
		}
	}

	if cv1.Slack != nil {
		if cv1.Slack.Token != "" && cv1.Slack.Channel == "" {
			return nil, errors.New("slack.channel is required when slack.token is set")
		}
		cfg.Slack = SlackConfig{Token: cv1.Slack.Token, Channel: cv1.Slack.Channel}
	}

	if cv1.Sweeper != nil {
		if cv1.Sweeper.TimeoutDays < 0 || cv1.Sweeper.IntervalHours < 0 {
			return nil, errors.New("sweeper values must be non-negative")
		}
		if cv1.Sweeper.TimeoutDays > 0 {
			cfg.Sweeper.TimeoutDays = cv1.Sweeper.TimeoutDays
		}
		if cv1.Sweeper.IntervalHours > 0 {
			cfg.Sweeper.IntervalHours = cv1.Sweeper.IntervalHours
		}
	}

	return cfg, nil
}
