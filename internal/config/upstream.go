package config

import (
	"strings"
	"time"
)

const (
	SourceAPI     = "api"
	SourceMongoDB = "mongodb"
)

type UpstreamConfig struct {
	// Source selects where reservations are read from: api or mongodb.
	Source    string        `yaml:"source"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

func loadUpstreamConfig() *UpstreamConfig {
	return &UpstreamConfig{
		Source:    strings.ToLower(getEnv("RESERVATION_SOURCE", SourceAPI)),
		BaseURL:   strings.TrimRight(getEnv("UPSTREAM_BASE_URL", "http://localhost:3000/api"), "/"),
		Timeout:   getEnvAsDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		UserAgent: getEnv("UPSTREAM_USER_AGENT", "carpool-bff"),
	}
}
