// Package config loads governance configuration from YAML with environment
// variable overrides. The core components are constructible without any
// config file; this package is a convenience layer for embedding
// applications.
package config

import (
	"fmt"
	"time"

	"filippo.io/age"

	"github.com/ogulcanaydogan/govcore/pkg/crypto"
	"github.com/ogulcanaydogan/govcore/pkg/guardrail"
	"github.com/ogulcanaydogan/govcore/pkg/ratelimit"
	"github.com/ogulcanaydogan/govcore/pkg/sink"
)

// Config is the root configuration.
type Config struct {
	Guardrails GuardrailsConfig `yaml:"guardrails"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Sink       SinkConfig       `yaml:"sink"`
	Export     ExportConfig     `yaml:"export"`
}

// GuardrailsConfig configures the guardrail checks.
type GuardrailsConfig struct {
	ConfidenceThreshold   float64  `yaml:"confidence_threshold"`
	EnableContentSafety   *bool    `yaml:"enable_content_safety"`
	EnableBiasDetection   *bool    `yaml:"enable_bias_detection"`
	EnableConfidenceCheck *bool    `yaml:"enable_confidence_check"`
	ExtraBannedPhrases    []string `yaml:"extra_banned_phrases"`
	ExtraProtectedTerms   []string `yaml:"extra_protected_terms"`
}

// RateLimitConfig configures the per-user rate limiter.
type RateLimitConfig struct {
	RequestsPerPeriod int           `yaml:"requests_per_period"`
	Period            time.Duration `yaml:"period"`
	BurstCapacity     int           `yaml:"burst_capacity"`
}

// SinkConfig configures the optional external audit sink.
type SinkConfig struct {
	Mode  string      `yaml:"mode"` // off, kafka
	Kafka KafkaConfig `yaml:"kafka"`
}

// KafkaConfig configures the Kafka audit sink.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	ClientID     string        `yaml:"client_id"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// ExportConfig configures evidence bundle export.
type ExportConfig struct {
	ExportedBy   string `yaml:"exported_by"`
	AgeRecipient string `yaml:"age_recipient"` // X25519 public key for encrypted bundles
}

// ApplyDefaults fills unset fields with defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Guardrails.ConfidenceThreshold == 0 {
		cfg.Guardrails.ConfidenceThreshold = guardrail.DefaultConfidenceThreshold
	}
	enabled := true
	if cfg.Guardrails.EnableContentSafety == nil {
		cfg.Guardrails.EnableContentSafety = &enabled
	}
	if cfg.Guardrails.EnableBiasDetection == nil {
		cfg.Guardrails.EnableBiasDetection = &enabled
	}
	if cfg.Guardrails.EnableConfidenceCheck == nil {
		cfg.Guardrails.EnableConfidenceCheck = &enabled
	}

	def := ratelimit.DefaultConfig()
	if cfg.RateLimit.RequestsPerPeriod == 0 {
		cfg.RateLimit.RequestsPerPeriod = def.RequestsPerPeriod
	}
	if cfg.RateLimit.Period == 0 {
		cfg.RateLimit.Period = def.Period
	}

	if cfg.Sink.Mode == "" {
		cfg.Sink.Mode = "off"
	}
	if cfg.Sink.Kafka.BatchTimeout == 0 {
		cfg.Sink.Kafka.BatchTimeout = 10 * time.Millisecond
	}
}

// Validate checks the configuration for inconsistencies.
func Validate(cfg *Config) error {
	if cfg.Guardrails.ConfidenceThreshold < 0 || cfg.Guardrails.ConfidenceThreshold > 1 {
		return fmt.Errorf("guardrails.confidence_threshold must be in [0, 1], got %v", cfg.Guardrails.ConfidenceThreshold)
	}
	if cfg.RateLimit.RequestsPerPeriod < 0 {
		return fmt.Errorf("rate_limit.requests_per_period must be non-negative")
	}
	switch cfg.Sink.Mode {
	case "off", "kafka":
	default:
		return fmt.Errorf("sink.mode must be one of off, kafka; got %q", cfg.Sink.Mode)
	}
	if cfg.Sink.Mode == "kafka" {
		if len(cfg.Sink.Kafka.Brokers) == 0 {
			return fmt.Errorf("sink.kafka.brokers is required when sink.mode is kafka")
		}
		if cfg.Sink.Kafka.Topic == "" {
			return fmt.Errorf("sink.kafka.topic is required when sink.mode is kafka")
		}
	}
	if _, err := cfg.AgeRecipient(); err != nil {
		return fmt.Errorf("export.age_recipient: %w", err)
	}
	return nil
}

// AgeRecipient parses the configured bundle export recipient. It returns
// nil when no recipient is configured, meaning bundles export in plaintext.
func (c *Config) AgeRecipient() (age.Recipient, error) {
	if c.Export.AgeRecipient == "" {
		return nil, nil
	}
	return crypto.ParseX25519Recipient(c.Export.AgeRecipient)
}

// GuardrailConfig converts the YAML shape into a guardrail.Config.
func (c *Config) GuardrailConfig() guardrail.Config {
	return guardrail.Config{
		ConfidenceThreshold:   c.Guardrails.ConfidenceThreshold,
		EnableContentSafety:   *c.Guardrails.EnableContentSafety,
		EnableBiasDetection:   *c.Guardrails.EnableBiasDetection,
		EnableConfidenceCheck: *c.Guardrails.EnableConfidenceCheck,
		ExtraBannedPhrases:    c.Guardrails.ExtraBannedPhrases,
		ExtraProtectedTerms:   c.Guardrails.ExtraProtectedTerms,
	}
}

// RateLimitConfigValue converts the YAML shape into a ratelimit.Config.
func (c *Config) RateLimitConfigValue() ratelimit.Config {
	return ratelimit.Config{
		RequestsPerPeriod: c.RateLimit.RequestsPerPeriod,
		Period:            c.RateLimit.Period,
		BurstCapacity:     c.RateLimit.BurstCapacity,
	}
}

// KafkaSinkConfig converts the YAML shape into a sink.KafkaConfig.
func (c *Config) KafkaSinkConfig() sink.KafkaConfig {
	return sink.KafkaConfig{
		Brokers:      c.Sink.Kafka.Brokers,
		Topic:        c.Sink.Kafka.Topic,
		ClientID:     c.Sink.Kafka.ClientID,
		BatchTimeout: c.Sink.Kafka.BatchTimeout,
	}
}
