package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	exeDirCache string
)

// getExecutableDir returns the directory where the executable is located
func getExecutableDir() string {
	if exeDirCache != "" {
		return exeDirCache
	}
	execPath, err := os.Executable()
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	exeDirCache = filepath.Dir(execPath)
	return exeDirCache
}

type Config struct {
	API        APIConfig        `yaml:"api"`
	Onboarding OnboardingConfig `yaml:"onboarding,omitempty"`
	Web        WebConfig        `yaml:"web,omitempty"`
	Transcript TranscriptConfig `yaml:"transcript,omitempty"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token,omitempty"`
}

type OnboardingConfig struct {
	// PollIntervalMS is the session refresh cadence. Zero or negative
	// falls back to the 2000ms default.
	PollIntervalMS int `yaml:"poll_interval_ms,omitempty"`
}

type WebConfig struct {
	Port int `yaml:"port,omitempty"`
}

type TranscriptConfig struct {
	Path string `yaml:"path,omitempty"`
	// RetentionDays controls how long transcript rows are kept before
	// the janitor prunes them.
	RetentionDays int    `yaml:"retention_days,omitempty"`
	PruneSchedule string `yaml:"prune_schedule,omitempty"`
	Disabled      bool   `yaml:"disabled,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8000",
		},
		Onboarding: OnboardingConfig{
			PollIntervalMS: 2000,
		},
		Web: WebConfig{
			Port: 18090,
		},
		Transcript: TranscriptConfig{
			Path:          filepath.Join(DataDir(), "transcript.db"),
			RetentionDays: 30,
			PruneSchedule: "0 0 3 * * *",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

func DataDir() string {
	exeDir := getExecutableDir()
	return filepath.Join(exeDir, ".boardctl")
}

func ConfigPath() string {
	exeDir := getExecutableDir()
	return filepath.Join(exeDir, ".boardctl.yaml")
}

func Load() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Save() error {
	if err := os.MkdirAll(DataDir(), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(ConfigPath(), data, 0600)
}
