// Package config provides configuration loading for venued.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/venued/internal/logging"
)

// Config is the root configuration for the daemon.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Logging      logging.Config     `koanf:"logging"`
	Oracle       OracleConfig       `koanf:"oracle"`
	Search       SearchConfig       `koanf:"search"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// OracleConfig holds settings for the reasoning-model client.
type OracleConfig struct {
	// APIKey authenticates against the model provider. Required.
	APIKey string `koanf:"api_key"`
	// Model names the chat model to use.
	Model string `koanf:"model"`
	// BaseURL overrides the provider endpoint. Empty uses the provider
	// default; set it to point at an OpenAI-compatible gateway.
	BaseURL string `koanf:"base_url"`
	// Timeout bounds a single completion call.
	Timeout time.Duration `koanf:"timeout"`
	// RequestsPerSecond caps the outbound call rate.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	// MaxRetries bounds retry attempts on retryable failures.
	MaxRetries int `koanf:"max_retries"`
}

// SearchConfig holds settings for the web-search client.
type SearchConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	MaxRetries        int           `koanf:"max_retries"`
	// MaxResults caps how many organic results a query returns.
	MaxResults int `koanf:"max_results"`
}

// OrchestratorConfig holds per-turn orchestration settings.
type OrchestratorConfig struct {
	// AutoChain enables same-turn risk assessment when one message asks
	// for both venues and risks.
	AutoChain bool `koanf:"auto_chain"`
	// DiscoveryTimeout bounds one venue-discovery run.
	DiscoveryTimeout time.Duration `koanf:"discovery_timeout"`
	// AssessmentTimeout bounds one batched risk-assessment run.
	AssessmentTimeout time.Duration `koanf:"assessment_timeout"`
	// ClassifyTimeout bounds one intent-classification call.
	ClassifyTimeout time.Duration `koanf:"classify_timeout"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = "gpt-4o-mini"
	}
	if cfg.Oracle.Timeout == 0 {
		cfg.Oracle.Timeout = 60 * time.Second
	}
	if cfg.Oracle.RequestsPerSecond == 0 {
		cfg.Oracle.RequestsPerSecond = 2
	}
	if cfg.Oracle.MaxRetries == 0 {
		cfg.Oracle.MaxRetries = 3
	}

	if cfg.Search.BaseURL == "" {
		cfg.Search.BaseURL = "https://google.serper.dev"
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 15 * time.Second
	}
	if cfg.Search.RequestsPerSecond == 0 {
		cfg.Search.RequestsPerSecond = 5
	}
	if cfg.Search.MaxRetries == 0 {
		cfg.Search.MaxRetries = 3
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 5
	}

	if cfg.Orchestrator.DiscoveryTimeout == 0 {
		cfg.Orchestrator.DiscoveryTimeout = 90 * time.Second
	}
	if cfg.Orchestrator.AssessmentTimeout == 0 {
		cfg.Orchestrator.AssessmentTimeout = 120 * time.Second
	}
	if cfg.Orchestrator.ClassifyTimeout == 0 {
		cfg.Orchestrator.ClassifyTimeout = 30 * time.Second
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Oracle.APIKey == "" {
		return fmt.Errorf("oracle.api_key is required (ORACLE_API_KEY)")
	}
	if c.Oracle.Timeout <= 0 {
		return fmt.Errorf("oracle.timeout must be positive")
	}
	if c.Oracle.RequestsPerSecond <= 0 {
		return fmt.Errorf("oracle.requests_per_second must be positive")
	}
	if c.Search.APIKey == "" {
		return fmt.Errorf("search.api_key is required (SEARCH_API_KEY)")
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive")
	}
	if c.Orchestrator.DiscoveryTimeout <= 0 ||
		c.Orchestrator.AssessmentTimeout <= 0 ||
		c.Orchestrator.ClassifyTimeout <= 0 {
		return fmt.Errorf("orchestrator timeouts must be positive")
	}
	return nil
}
