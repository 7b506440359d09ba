package credentials

// Credentials represents the stored credentials in credentials.toml.
type Credentials struct {
	Version   int                 `toml:"version"`
	Assistant AssistantCredential `toml:"assistant"`
}

// AssistantCredential holds the bearer token for the assistant API.
type AssistantCredential struct {
	Token string `toml:"token"`
}
