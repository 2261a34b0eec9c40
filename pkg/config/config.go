// Package config loads Aura configuration from YAML files and the
// AURA_-prefixed environment, with programmatic defaults.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log        LogConfig        `koanf:"log"`
	Server     ServerConfig     `koanf:"server"`
	Dispatcher DispatcherConfig `koanf:"dispatcher"`
	Ledger     LedgerConfig     `koanf:"ledger"`
	Calendar   CalendarConfig   `koanf:"calendar"`
	Social     SocialConfig     `koanf:"social"`
	Email      EmailConfig      `koanf:"email"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DispatcherConfig struct {
	// Command and Args spawn the dispatcher process. An empty command
	// re-executes the current binary with the "dispatcher" subcommand.
	Command string   `koanf:"command"`
	Args    []string `koanf:"args"`

	ProtocolVersion   string        `koanf:"protocol_version"`
	ConnectTimeout    time.Duration `koanf:"connect_timeout"`
	CallTimeout       time.Duration `koanf:"call_timeout"`
	DisconnectTimeout time.Duration `koanf:"disconnect_timeout"`
	ConnectRetries    int           `koanf:"connect_retries"`
}

type LedgerConfig struct {
	// ArchivePath enables the SQLite archive of terminal tasks when set.
	ArchivePath string `koanf:"archive_path"`
}

type CalendarConfig struct {
	WebhookURL string        `koanf:"webhook_url"`
	Timeout    time.Duration `koanf:"timeout"`
}

type SocialConfig struct {
	APIBaseURL  string        `koanf:"api_base_url"`
	BearerToken string        `koanf:"bearer_token"`
	Timeout     time.Duration `koanf:"timeout"`
}

type EmailConfig struct {
	SMTPAddr string `koanf:"smtp_addr"`
	From     string `koanf:"from"`
	Password string `koanf:"password"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp, none
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

// Global k instance
var k = koanf.New(".")

func Load(path string) (*Config, error) {
	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("server.addr", ":8765")
	k.Set("server.shutdown_timeout", "10s")

	k.Set("dispatcher.protocol_version", "2025-03-26")
	k.Set("dispatcher.connect_timeout", "10s")
	k.Set("dispatcher.call_timeout", "30s")
	k.Set("dispatcher.disconnect_timeout", "2s")
	k.Set("dispatcher.connect_retries", 3)

	k.Set("calendar.timeout", "10s")
	k.Set("social.api_base_url", "https://api.twitter.com")
	k.Set("social.timeout", "10s")

	k.Set("telemetry.exporter", "none")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (AURA_CALENDAR_WEBHOOK_URL -> calendar.webhook_url)
	if err := k.Load(env.Provider("AURA_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "AURA_"))
		for _, section := range []string{"log", "server", "dispatcher", "ledger", "calendar", "social", "email", "telemetry"} {
			if strings.HasPrefix(key, section+"_") {
				return section + "." + strings.TrimPrefix(key, section+"_")
			}
		}
		return strings.Replace(key, "_", ".", 1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
