package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent jobpilot configuration stored as config.toml
// in the .jobpilot/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Client      ClientConfig      `toml:"client"`
	Jobs        JobsConfig        `toml:"jobs"`
	Eventstream EventstreamConfig `toml:"eventstream"`
	Replay      ReplayConfig      `toml:"replay"`
}

// ClientConfig holds settings for commands that talk to the assistant API.
type ClientConfig struct {
	// APITarget is the base URL (scheme + host + port) of the assistant API.
	APITarget string `toml:"api_target,omitempty"`
	ChatPath  string `toml:"chat_path,omitempty"`
	JobsPath  string `toml:"jobs_path,omitempty"`

	// Timeout bounds a whole request, streamed body included, as a Go
	// duration string.
	Timeout string `toml:"timeout,omitempty"`
}

// JobsConfig holds settings for long-running job polling.
type JobsConfig struct {
	PollInterval string `toml:"poll_interval,omitempty"`
}

// EventstreamConfig holds session event publishing settings.
type EventstreamConfig struct {
	// Provider is "none" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma-separated list of broker addresses.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// ReplayConfig holds settings for the local replay server.
type ReplayConfig struct {
	Listen  string `toml:"listen,omitempty"`
	DelayMs uint   `toml:"delay_ms,omitempty"`
}

// BrokerList splits Brokers into addresses, dropping empty entries.
func (e EventstreamConfig) BrokerList() []string {
	var out []string
	for b := range strings.SplitSeq(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"client.chat_path": {
		get: func(c *Config) string { return c.Client.ChatPath },
		set: func(c *Config, v string) error { c.Client.ChatPath = v; return nil },
	},
	"client.jobs_path": {
		get: func(c *Config) string { return c.Client.JobsPath },
		set: func(c *Config, v string) error { c.Client.JobsPath = v; return nil },
	},
	"client.timeout": {
		get: func(c *Config) string { return c.Client.Timeout },
		set: durationSetter("client.timeout", func(c *Config, v string) { c.Client.Timeout = v }),
	},
	"jobs.poll_interval": {
		get: func(c *Config) string { return c.Jobs.PollInterval },
		set: durationSetter("jobs.poll_interval", func(c *Config, v string) { c.Jobs.PollInterval = v }),
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.Eventstream.Provider },
		set: func(c *Config, v string) error {
			switch v {
			case EventstreamNone, EventstreamKafka:
				c.Eventstream.Provider = v
				return nil
			default:
				return fmt.Errorf("invalid value for eventstream.provider: %q (expected %s or %s)", v, EventstreamNone, EventstreamKafka)
			}
		},
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return c.Eventstream.Brokers },
		set: func(c *Config, v string) error { c.Eventstream.Brokers = v; return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.Eventstream.Topic },
		set: func(c *Config, v string) error { c.Eventstream.Topic = v; return nil },
	},
	"replay.listen": {
		get: func(c *Config) string { return c.Replay.Listen },
		set: func(c *Config, v string) error { c.Replay.Listen = v; return nil },
	},
	"replay.delay_ms": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Replay.DelayMs), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for replay.delay_ms: %w", err)
			}
			c.Replay.DelayMs = uint(n)
			return nil
		},
	},
}

func durationSetter(key string, assign func(c *Config, v string)) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		assign(c, v)
		return nil
	}
}
