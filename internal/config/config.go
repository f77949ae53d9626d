package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIBaseURL is where the EconoRise backend listens in development.
const DefaultAPIBaseURL = "http://localhost:5000/api"

type Config struct {
	// HTTP Server
	Port string

	// EconoRise backend
	APIBaseURL     string
	APITimeout     time.Duration
	DefaultCountry string

	// Health monitor
	HealthCheckInterval time.Duration

	// Logging
	LogLevel string

	// Rate limiting of form submissions
	RateLimitPerMinute int

	// Proxies allowed to set X-Forwarded-For, as CIDRs
	TrustedProxies []string

	// AMQP (optional, empty URL disables assessment events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// SMTP for lender notifications (optional)
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	NotifyFrom   string
	NotifyTo     []string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "3000"),

		APIBaseURL:     strings.TrimRight(getEnv("ECONORISE_API_BASE_URL", DefaultAPIBaseURL), "/"),
		APITimeout:     getEnvDuration("API_TIMEOUT", 30*time.Second),
		DefaultCountry: strings.ToUpper(getEnv("DEFAULT_COUNTRY", "IND")),

		HealthCheckInterval: getEnvDuration("HEALTH_CHECK_INTERVAL", 30*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "econorise"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "assessment_events"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		NotifyFrom:   getEnv("NOTIFY_FROM", ""),
		NotifyTo:     getEnvList("NOTIFY_TO"),
	}

	return cfg
}

// EventsEnabled reports whether assessment events should be published
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

// EmailEnabled reports whether lender notifications go out by e-mail
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate backend base URL
	if c.APIBaseURL == "" {
		errors = append(errors, "API base URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	} else if parsedURL.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': missing host", c.APIBaseURL))
	}

	if c.APITimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at least 1 second", c.APITimeout))
	} else if c.APITimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at most 5 minutes", c.APITimeout))
	}

	if len(c.DefaultCountry) != 3 {
		errors = append(errors, fmt.Sprintf("invalid default country '%s': must be an ISO-3166 alpha-3 code", c.DefaultCountry))
	}

	if c.HealthCheckInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid health check interval %v: must be at least 1 second", c.HealthCheckInterval))
	} else if c.HealthCheckInterval > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid health check interval %v: must be at most 1 hour", c.HealthCheckInterval))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate SMTP settings if e-mail is enabled
	if c.SMTPHost != "" {
		if port, err := strconv.Atoi(c.SMTPPort); err != nil || port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid SMTP port '%s'", c.SMTPPort))
		}
		if c.NotifyFrom == "" {
			errors = append(errors, "NOTIFY_FROM is required when SMTP_HOST is set")
		}
		if len(c.NotifyTo) == 0 {
			errors = append(errors, "NOTIFY_TO is required when SMTP_HOST is set")
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blanks
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
