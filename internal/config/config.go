package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Bennylavaa/RealmPortal/internal/domain"
)

// Config represents the application configuration
type Config struct {
	LogPath       string   `yaml:"log_path" toml:"log_path"`
	LogLevel      string   `yaml:"log_level" toml:"log_level"`
	LogFormat     string   `yaml:"log_format" toml:"log_format"`
	LogMaxSizeMB  int      `yaml:"log_max_size_mb" toml:"log_max_size_mb"`
	LogMaxBackups int      `yaml:"log_max_backups" toml:"log_max_backups"`
	JournalPath   string   `yaml:"journal_path" toml:"journal_path"`
	Journal       bool     `yaml:"journal" toml:"journal"`
	Extensions    []string `yaml:"extensions" toml:"extensions"`
	Exclude       []string `yaml:"exclude" toml:"exclude"`
	Output        string   `yaml:"output" toml:"output"`
}

// Defaults returns the configuration used when nothing else is set
func Defaults() *Config {
	return &Config{
		LogPath:       "wow_ui_migration.log",
		LogLevel:      "info",
		LogFormat:     "text",
		LogMaxSizeMB:  10,
		LogMaxBackups: 3,
		Journal:       true,
		Extensions:    append([]string(nil), domain.DefaultExtensions...),
		Output:        "table",
	}
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. ~/.config/realmportal/config.yaml (YAML) or config.toml (TOML),
//    or the file named by REALMPORTAL_CONFIG
func Load() (*Config, error) {
	cfg := Defaults()

	// Load .env.local if it exists (walking up parent directories)
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	if err := loadConfigFile(cfg); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.JournalPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.JournalPath = filepath.Join(homeDir, ".local", "share", "realmportal", "journal.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configured values
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In("panic", "fatal", "error", "warn", "warning", "info", "debug", "trace")),
		validation.Field(&c.LogFormat, validation.In("text", "json")),
		validation.Field(&c.LogMaxSizeMB, validation.Min(0)),
		validation.Field(&c.LogMaxBackups, validation.Min(0)),
		validation.Field(&c.Extensions, validation.Each(validation.By(func(value interface{}) error {
			ext, _ := value.(string)
			if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
				return fmt.Errorf("extension %q must start with a dot", ext)
			}
			return nil
		}))),
		validation.Field(&c.Output, validation.In("table", "json", "yaml", "tsv")),
	)
}

// loadConfigFile loads configuration from the user's config file. A missing
// file is not an error.
func loadConfigFile(cfg *Config) error {
	candidates := []string{os.Getenv("REALMPORTAL_CONFIG")}
	if candidates[0] == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		dir := filepath.Join(homeDir, ".config", "realmportal")
		candidates = []string{filepath.Join(dir, "config.yaml"), filepath.Join(dir, "config.toml")}
	}

	for _, configPath := range candidates {
		data, err := os.ReadFile(configPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read config %s: %w", configPath, err)
		}

		if strings.EqualFold(filepath.Ext(configPath), ".toml") {
			err = toml.Unmarshal(data, cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
		return nil
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if logPath := os.Getenv("REALMPORTAL_LOG_PATH"); logPath != "" {
		cfg.LogPath = logPath
	}
	if logLevel := os.Getenv("REALMPORTAL_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = strings.ToLower(logLevel)
	}
	if logFormat := os.Getenv("REALMPORTAL_LOG_FORMAT"); logFormat != "" {
		cfg.LogFormat = strings.ToLower(logFormat)
	}
	if err := envInt("REALMPORTAL_LOG_MAX_SIZE_MB", &cfg.LogMaxSizeMB); err != nil {
		return err
	}
	if err := envInt("REALMPORTAL_LOG_MAX_BACKUPS", &cfg.LogMaxBackups); err != nil {
		return err
	}
	if journalPath := getEnvOrFile("REALMPORTAL_JOURNAL_PATH", "REALMPORTAL_JOURNAL_PATH_FILE"); journalPath != "" {
		cfg.JournalPath = journalPath
	}
	if v := os.Getenv("REALMPORTAL_JOURNAL"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REALMPORTAL_JOURNAL: %w", err)
		}
		cfg.Journal = enabled
	}
	if exts := os.Getenv("REALMPORTAL_EXTENSIONS"); exts != "" {
		cfg.Extensions = splitList(exts)
	}
	if exclude := os.Getenv("REALMPORTAL_EXCLUDE"); exclude != "" {
		cfg.Exclude = splitList(exclude)
	}
	if output := os.Getenv("REALMPORTAL_OUTPUT"); output != "" {
		cfg.Output = strings.ToLower(output)
	}
	return nil
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to .env.local if found, empty string otherwise.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, just check cwd
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		if dir == homeDir {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}
