package config

// Eventstream providers.
const (
	EventstreamNone  = "none"
	EventstreamKafka = "kafka"
)

const (
	defaultAPITarget = "http://localhost:8090"
	defaultChatPath  = "/api/assistant/chat"
	defaultJobsPath  = "/api/jobs"
	defaultTimeout   = "5m"

	defaultPollInterval = "2s"

	defaultEventstreamTopic = "jobpilot.sessions"

	defaultReplayListen  = ":8090"
	defaultReplayDelayMs = 25
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			APITarget: defaultAPITarget,
			ChatPath:  defaultChatPath,
			JobsPath:  defaultJobsPath,
			Timeout:   defaultTimeout,
		},
		Jobs: JobsConfig{
			PollInterval: defaultPollInterval,
		},
		Eventstream: EventstreamConfig{
			Provider: EventstreamNone,
			Topic:    defaultEventstreamTopic,
		},
		Replay: ReplayConfig{
			Listen:  defaultReplayListen,
			DelayMs: defaultReplayDelayMs,
		},
	}
}
