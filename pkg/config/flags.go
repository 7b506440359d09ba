package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// (e.g. --api-target on both "jobpilot chat" and "jobpilot jobs run")
// cannot drift between commands.
type Flag struct {
	// Name is the long flag name (e.g. "api-target").
	Name string

	// Shorthand is the one-letter short flag (e.g. "a"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "client.api_target").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagAPITarget           = "api-target"
	FlagChatPath            = "chat-path"
	FlagJobsPath            = "jobs-path"
	FlagTimeout             = "timeout"
	FlagPollInterval        = "poll-interval"
	FlagEventstreamProvider = "eventstream-provider"
	FlagEventstreamBrokers  = "eventstream-brokers"
	FlagEventstreamTopic    = "eventstream-topic"
	FlagReplayListen        = "listen"
	FlagReplayDelay         = "delay-ms"
)

// Flags is the registry shared by every jobpilot command.
var Flags = FlagSet{
	FlagAPITarget:           {Name: "api-target", Shorthand: "a", ViperKey: "client.api_target", Description: "Assistant API base URL"},
	FlagChatPath:            {Name: "chat-path", ViperKey: "client.chat_path", Description: "Path of the streaming chat endpoint"},
	FlagJobsPath:            {Name: "jobs-path", ViperKey: "client.jobs_path", Description: "Path of the jobs endpoint"},
	FlagTimeout:             {Name: "timeout", ViperKey: "client.timeout", Description: "Overall request timeout, streamed body included"},
	FlagPollInterval:        {Name: "poll-interval", ViperKey: "jobs.poll_interval", Description: "Interval between job status polls"},
	FlagEventstreamProvider: {Name: "eventstream-provider", ViperKey: "eventstream.provider", Description: "Session event publisher (none, kafka)"},
	FlagEventstreamBrokers:  {Name: "eventstream-brokers", ViperKey: "eventstream.brokers", Description: "Comma-separated Kafka broker addresses"},
	FlagEventstreamTopic:    {Name: "eventstream-topic", ViperKey: "eventstream.topic", Description: "Kafka topic for session events"},
	FlagReplayListen:        {Name: "listen", Shorthand: "l", ViperKey: "replay.listen", Description: "Address for the replay server to listen on"},
	FlagReplayDelay:         {Name: "delay-ms", ViperKey: "replay.delay_ms", Description: "Delay between replayed chunks in milliseconds"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
