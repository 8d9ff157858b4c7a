package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		BaseURL string `koanf:"base_url"`
		Token   string `koanf:"token"`
	} `koanf:"server"`

	Poll struct {
		Tick        time.Duration `koanf:"tick"`
		MinInterval time.Duration `koanf:"min_interval"`
	} `koanf:"poll"`

	HTTP struct {
		Timeout time.Duration `koanf:"timeout"`
		Rate    float64       `koanf:"rate"`
		Burst   int           `koanf:"burst"`
	} `koanf:"http"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

// LoadConfig loads the configuration from defaults, an optional TOML file
// and BUYERDESK_-prefixed environment variables, in that order.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"poll.tick":         "1s",
		"poll.min_interval": "10s",
		"http.timeout":      "15s",
		"http.rate":         10.0,
		"http.burst":        20,
		"log.level":         "info",
	}, "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./buyerdesk.toml", "$HOME/.buyerdesk.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Environment variables override the file, e.g. BUYERDESK_SERVER_TOKEN.
	k.Load(env.Provider("BUYERDESK_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "BUYERDESK_")), "_", ".", 1)
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# Buyerdesk configuration

[server]
base_url = "https://portal.example.com/api/support"
token = "your-portal-bearer-token"

[poll]
tick = "1s"
min_interval = "10s"

[http]
timeout = "15s"
rate = 10.0
burst = 20

[log]
level = "info"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if strings.TrimSpace(config.Server.BaseURL) == "" {
		return fmt.Errorf("server base_url is required")
	}
	if strings.TrimSpace(config.Server.Token) == "" {
		return fmt.Errorf("server token is required")
	}
	if config.Poll.Tick <= 0 {
		return fmt.Errorf("poll tick must be positive")
	}
	if config.Poll.MinInterval < config.Poll.Tick {
		return fmt.Errorf("poll min_interval must not be shorter than the tick")
	}
	return nil
}
