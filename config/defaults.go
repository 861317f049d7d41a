package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/loom",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Backend: BackendConfig{
			URL:          "http://localhost:8800",
			DefaultModel: "standard",
		},
		Security: SecurityConfig{
			Method: string(SecurityPlainText),
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# Loom System Configuration
# Location: ~/.config/loom/settings.toml
# This file uses TOML format: https://toml.io

# Directory where sessions and user config are stored
data_directory = "~/.local/share/loom"
`
}

func GenerateUserConfigTemplate() string {
	return `# Loom User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

[backend]
# Reasoning service base URL
url = "http://localhost:8800"

# Default model key for new sessions
default_model = "standard"

[security]
# How the backend auth token is stored: "plaintext" or "ssh_key"
# With "ssh_key", the token file is encrypted with a key derived from
# your SSH private key (set ssh_key_path, e.g. "~/.ssh/id_ed25519").
method = "plaintext"
`
}
