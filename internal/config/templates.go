package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# London Stock API Configuration

[server]
# HTTP listen port
port = "8080"

[jwt]
# Symmetric signing key for bearer tokens. REQUIRED, minimum 32 bytes.
# The service refuses to start without it.
key = ""
# Issuer and audience claims stamped into every token
issuer = "londonstock"
audience = "londonstock-api"
# Token lifetime in minutes
expiry_minutes = 60

[database]
# Trade store driver: "sqlite" or "memory"
driver = "sqlite"
# SQLite database path (ignored for the memory driver)
path = ""

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true

# Demo broker credentials. Plain-text passwords, demo tier only.
[[users]]
username = "broker1"
password = "Password123!"

[[users]]
username = "broker2"
password = "SecurePassword!"
`

// createTemplateConfig writes the default config template to the config
// directory and reports where it was written.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return fmt.Errorf("no config found; template written to %s, fill in jwt.key and restart", path)
}
