// Package config loads runtime configuration for the agent from an
// optional YAML file layered over environment variables. A .env file
// in the working directory is loaded first so local runs need no
// exported environment.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP and operator WebSocket settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	WSPort    int    `yaml:"ws_port"`
	StaticDir string `yaml:"static_dir"`
}

// LLMConfig holds provider settings. Provider and credentials may also
// come from the environment; see llm.NewFromEnv.
type LLMConfig struct {
	Provider       string `yaml:"provider"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// KnowledgeConfig points at the grounding document for product answers.
type KnowledgeConfig struct {
	Path string `yaml:"path"`
}

// LeadsConfig holds the captured-lead store settings.
type LeadsConfig struct {
	CSVPath string `yaml:"csv_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Leads     LeadsConfig     `yaml:"leads"`
	Log       LogConfig       `yaml:"log"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      getEnvInt("PORT", 8080),
			WSPort:    getEnvInt("WS_PORT", 8085),
			StaticDir: getEnv("STATIC_DIR", "static"),
		},
		LLM: LLMConfig{
			Provider:       getEnv("LLM_PROVIDER", "openai"),
			Model:          getEnv("LLM_MODEL", ""),
			BaseURL:        getEnv("LLM_BASE_URL", ""),
			TimeoutSeconds: getEnvInt("LLM_TIMEOUT", 60),
		},
		Knowledge: KnowledgeConfig{
			Path: getEnv("KNOWLEDGE_PATH", "data/knowledge_base.md"),
		},
		Leads: LeadsConfig{
			CSVPath: getEnv("LEADS_CSV_PATH", "leads.csv"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

// Load reads configuration. A .env file is loaded if present, defaults
// are applied, and then the YAML file at path (if non-empty) overrides
// them. ${VAR} references in the YAML are expanded from the environment
// before parsing.
func Load(path string) (*Config, error) {
	// Missing .env is fine; exported environment still applies.
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} references with environment values.
// Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
