package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

type Config struct {
	App       AppConfig                 `json:"app"`
	Providers map[string]ProviderConfig `json:"providers"`
	Memory    MemoryConfig              `json:"memory"`
	Agent     AgentConfig               `json:"agent"`
	Prompts   PromptsConfig             `json:"prompts"`
	Logs      LogsConfig                `json:"logs"`
}

type AppConfig struct {
	Name      string `json:"name"`
	StudentID string `json:"student_id"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
	Enabled bool   `json:"enabled"`
}

type MemoryConfig struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

type AgentConfig struct {
	MaxToolSteps   int `json:"max_tool_steps"`
	MaxRetries     int `json:"max_retries"`
	RetryBackoffMS int `json:"retry_backoff_ms"`
}

type PromptsConfig struct {
	Directory string `json:"directory"`
}

type LogsConfig struct {
	Directory string `json:"directory"`
}

// Default returns the built-in configuration: an in-process sqlite history,
// the openai provider keyed from the environment, and conservative agent
// bounds.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:      "sensei",
			StudentID: "1",
		},
		Providers: map[string]ProviderConfig{
			"openai": {
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				Model:   "gpt-4o",
				Enabled: true,
			},
		},
		Memory: MemoryConfig{
			Type: "sqlite",
			Path: ":memory:",
		},
		Agent: AgentConfig{
			MaxToolSteps:   10,
			MaxRetries:     3,
			RetryBackoffMS: 500,
		},
		Prompts: PromptsConfig{Directory: "./prompts"},
		Logs:    LogsConfig{Directory: "./logs"},
	}
}

// Load reads the config file at path over the defaults. A missing file is
// not an error; the defaults apply. A providers object in the file replaces
// the default provider set wholesale — merging the maps would leave the
// built-in openai entry enabled alongside the user's. Provider API keys left
// empty in the file fall back to OPENAI_API_KEY.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("open config file: %w", err)
	}

	var probe struct {
		Providers json.RawMessage `json:"providers"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}
	if len(probe.Providers) > 0 && string(probe.Providers) != "null" {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	for name, p := range cfg.Providers {
		if p.APIKey == "" {
			p.APIKey = os.Getenv("OPENAI_API_KEY")
			cfg.Providers[name] = p
		}
	}

	return cfg, nil
}

// GetDefaultProvider returns the first enabled provider in name order, so
// the choice does not depend on map iteration.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}
