package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields resolves ${ENV} references in provider credentials
// and headers so secrets stay out of the file.
func expandSensitiveFields(cfg *Config) {
	for name, p := range cfg.Providers {
		p.APIKey = expandEnvVars(p.APIKey)
		for k, v := range p.Headers {
			p.Headers[k] = expandEnvVars(v)
		}
		cfg.Providers[name] = p
	}
	if cfg.Usage.Redis != nil {
		cfg.Usage.Redis.Password = expandEnvVars(cfg.Usage.Redis.Password)
	}
}

// Load reads the config file, applies environment overrides and returns the
// merged Config. A missing file yields defaults. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := decode(path, data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	raw := map[string]any{}
	if err := decode(path, data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return raw, nil
}

func decode(path string, data []byte, v any) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}

// applyDefaults fills zero-value fields left empty by the file.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Provider == "" {
		cfg.Provider = d.Provider
	}
	if cfg.Region == "" {
		cfg.Region = d.Region
	}
	if cfg.Usage.Estimator == "" {
		cfg.Usage.Estimator = d.Usage.Estimator
	}
	if cfg.Conversation.MaxToolRounds == 0 {
		cfg.Conversation.MaxToolRounds = d.Conversation.MaxToolRounds
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = d.Retry.MaxAttempts
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = d.Logging.ConsoleStyle
	}
}

// applyEnvOverrides reads LLMBRIDGE_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LLMBRIDGE_PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("LLMBRIDGE_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("LLMBRIDGE_REGION"); v != "" {
		cfg.Region = v
	}
	if v := os.Getenv("LLMBRIDGE_TRACK_USAGE"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			cfg.Usage.Enabled = &on
		}
	}
	if v := os.Getenv("LLMBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
