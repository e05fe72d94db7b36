package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides of the form GOVCORE_SECTION_FIELD
// (e.g. GOVCORE_GUARDRAILS_CONFIDENCE_THRESHOLD). Environment variables take
// precedence over file values.
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("GOVCORE_GUARDRAILS_CONFIDENCE_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Guardrails.ConfidenceThreshold = f
		}
	}
	if val := os.Getenv("GOVCORE_GUARDRAILS_ENABLE_CONTENT_SAFETY"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Guardrails.EnableContentSafety = &b
		}
	}
	if val := os.Getenv("GOVCORE_GUARDRAILS_ENABLE_BIAS_DETECTION"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Guardrails.EnableBiasDetection = &b
		}
	}
	if val := os.Getenv("GOVCORE_GUARDRAILS_ENABLE_CONFIDENCE_CHECK"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Guardrails.EnableConfidenceCheck = &b
		}
	}

	if val := os.Getenv("GOVCORE_RATE_LIMIT_REQUESTS_PER_PERIOD"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.RateLimit.RequestsPerPeriod = n
		}
	}
	if val := os.Getenv("GOVCORE_RATE_LIMIT_PERIOD"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.RateLimit.Period = d
		}
	}
	if val := os.Getenv("GOVCORE_RATE_LIMIT_BURST_CAPACITY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.RateLimit.BurstCapacity = n
		}
	}

	if val := os.Getenv("GOVCORE_SINK_MODE"); val != "" {
		cfg.Sink.Mode = val
	}
	if val := os.Getenv("GOVCORE_SINK_KAFKA_BROKERS"); val != "" {
		cfg.Sink.Kafka.Brokers = splitAndTrim(val)
	}
	if val := os.Getenv("GOVCORE_SINK_KAFKA_TOPIC"); val != "" {
		cfg.Sink.Kafka.Topic = val
	}

	if val := os.Getenv("GOVCORE_EXPORT_EXPORTED_BY"); val != "" {
		cfg.Export.ExportedBy = val
	}
	if val := os.Getenv("GOVCORE_EXPORT_AGE_RECIPIENT"); val != "" {
		cfg.Export.AgeRecipient = val
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
