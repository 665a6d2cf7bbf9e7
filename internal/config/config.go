// Package config loads and saves slopchop.yaml, the single declarative
// configuration file governing rule thresholds, locality tuning, stage
// preferences, and check commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"slopchop/internal/check"
	"slopchop/internal/locality"
)

// Config holds slopchop's full configuration.
type Config struct {
	Rules       RulesConfig       `yaml:"rules"`
	Preferences PreferencesConfig `yaml:"preferences"`
	Commands    CommandsConfig    `yaml:"commands"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// RulesConfig holds the structural-analysis thresholds.
type RulesConfig struct {
	MaxFileTokens          int            `yaml:"max_file_tokens"`
	MaxCognitiveComplexity int            `yaml:"max_cognitive_complexity"`
	MaxNestingDepth        int            `yaml:"max_nesting_depth"`
	MaxFunctionArgs        int            `yaml:"max_function_args"`
	MaxFunctionWords       int            `yaml:"max_function_words"`
	IgnoreNamingOn         []string       `yaml:"ignore_naming_on"`
	IgnoreTokensOn         []string       `yaml:"ignore_tokens_on"`
	Locality               LocalityConfig `yaml:"locality"`
	Safety                 SafetyConfig   `yaml:"safety"`
}

// LocalityConfig tunes the module-graph locality validator.
type LocalityConfig struct {
	Mode        string   `yaml:"mode"`
	MaxDistance int      `yaml:"max_distance"`
	L1Threshold float64  `yaml:"l1_threshold"`
	Hubs        []string `yaml:"hubs"`
}

// SafetyConfig tunes the banned-construct / unsafe-code checks.
type SafetyConfig struct {
	RequireSafetyComment bool `yaml:"require_safety_comment"`
	BanUnsafe            bool `yaml:"ban_unsafe"`
}

// PreferencesConfig holds stage and apply-workflow preferences.
type PreferencesConfig struct {
	BackupRetention int  `yaml:"backup_retention"`
	RequirePlan     bool `yaml:"require_plan"`
	AutoPromote     bool `yaml:"auto_promote"`
}

// CommandsConfig maps a command group name (currently only "check") to an
// ordered list of shell command lines.
type CommandsConfig struct {
	Check []string `yaml:"check"`
}

// LoggingConfig holds the logging section of slopchop.yaml. The CLI does
// not read it: zap's level follows --verbose and the audit log is written
// under .slopchop/logs.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the built-in defaults applied when no
// slopchop.yaml is present.
func DefaultConfig() *Config {
	return &Config{
		Rules: RulesConfig{
			MaxFileTokens:          4000,
			MaxCognitiveComplexity: 15,
			MaxNestingDepth:        4,
			MaxFunctionArgs:        5,
			MaxFunctionWords:       6,
			Locality: LocalityConfig{
				Mode:        "warn",
				MaxDistance: 2,
				L1Threshold: 0.15,
			},
			Safety: SafetyConfig{
				RequireSafetyComment: true,
				BanUnsafe:            false,
			},
		},
		Preferences: PreferencesConfig{
			BackupRetention: 5,
			RequirePlan:     true,
			AutoPromote:     false,
		},
		Commands: CommandsConfig{},
		Logging: LoggingConfig{
			Level: "info",
			File:  "slopchop.log",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults
// when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("SLOPCHOP_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if mode := os.Getenv("SLOPCHOP_LOCALITY_MODE"); mode != "" {
		c.Rules.Locality.Mode = mode
	}
	if retention := os.Getenv("SLOPCHOP_BACKUP_RETENTION"); retention != "" {
		if n, err := parseIntEnv(retention); err == nil {
			c.Preferences.BackupRetention = n
		}
	}
}

func parseIntEnv(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

// CheckRules projects RulesConfig into the check package's Rules shape.
func (c *Config) CheckRules() check.Rules {
	return check.Rules{
		MaxFileTokens:          c.Rules.MaxFileTokens,
		MaxCognitiveComplexity: c.Rules.MaxCognitiveComplexity,
		MaxNestingDepth:        c.Rules.MaxNestingDepth,
		MaxFunctionArgs:        c.Rules.MaxFunctionArgs,
		MaxFunctionWords:       c.Rules.MaxFunctionWords,
		IgnoreNamingOn:         c.Rules.IgnoreNamingOn,
		IgnoreTokensOn:         c.Rules.IgnoreTokensOn,
		RequireSafetyComment:   c.Rules.Safety.RequireSafetyComment,
		BanUnsafe:              c.Rules.Safety.BanUnsafe,
	}
}

// LocalityValidatorConfig projects the YAML locality section into the locality
// package's Config shape.
func (c *Config) LocalityValidatorConfig() locality.Config {
	mode := locality.Warn
	switch c.Rules.Locality.Mode {
	case "off":
		mode = locality.Off
	case "error":
		mode = locality.Error
	}
	hubs := map[string]bool{}
	for _, h := range c.Rules.Locality.Hubs {
		hubs[h] = true
	}
	return locality.Config{
		Mode:        mode,
		MaxDistance: c.Rules.Locality.MaxDistance,
		L1Threshold: int(c.Rules.Locality.L1Threshold * 100),
		Hubs:        hubs,
	}
}

// GetLogLevel parses the configured logging level, defaulting to info.
func (c *Config) GetLogLevel() string {
	if c.Logging.Level == "" {
		return "info"
	}
	return c.Logging.Level
}
