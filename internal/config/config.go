// Package config provides configuration loading and structs for the DataWizard engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultAPIKeyEnv is the environment variable holding the generation service key.
const DefaultAPIKeyEnv = "GEMINI_API_KEY"

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Generation GenerationConfig `yaml:"generation"`
	Extract    ExtractConfig    `yaml:"extract"`
	Output     OutputConfig     `yaml:"output"`
	History    HistoryConfig    `yaml:"history"`
	Server     ServerConfig     `yaml:"server"`
	Watch      WatchConfig      `yaml:"watch"`
}

// GenerationConfig holds text-generation service settings.
// APIKey is never read from or written to YAML; see LoadAPIKey.
type GenerationConfig struct {
	Backend   string        `yaml:"backend" validate:"oneof=rest sdk"`
	Endpoint  string        `yaml:"endpoint" validate:"url"`
	Model     string        `yaml:"model" validate:"required"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout" validate:"gte=0"`
	APIKey    string        `yaml:"-"`
}

// ExtractConfig holds snippet extraction settings.
type ExtractConfig struct {
	SampleRows       int       `yaml:"sample_rows" validate:"gte=1"`
	SampleParagraphs int       `yaml:"sample_paragraphs" validate:"gte=1"`
	DocxStrategy     string    `yaml:"docx_strategy" validate:"oneof=all sampled"`
	SnippetParts     int       `yaml:"snippet_parts" validate:"gte=1"`
	MinPDFText       int       `yaml:"min_pdf_text" validate:"gte=1"`
	MaxFileSize      int64     `yaml:"max_file_size" validate:"gt=0"`
	OCR              OCRConfig `yaml:"ocr"`
}

// OCRConfig selects and configures the optical character recognition engine.
type OCRConfig struct {
	Engine    string `yaml:"engine" validate:"oneof=tesseract gosseract none"`
	Command   string `yaml:"command"`
	Languages string `yaml:"languages"`
}

// OutputConfig holds materialization settings.
type OutputConfig struct {
	Footer      string `yaml:"footer"`
	StrictTable bool   `yaml:"strict_table"`
}

// HistoryConfig holds run history persistence settings.
type HistoryConfig struct {
	Enabled      *bool  `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// EnabledOrDefault returns whether history is recorded; defaults to true when unset.
func (h *HistoryConfig) EnabledOrDefault() bool {
	if h.Enabled != nil {
		return *h.Enabled
	}
	return true
}

// ServerConfig holds HTTP server settings. CORSOrigins lists the browser origins allowed
// to call the API; empty means same-origin only.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port" validate:"min=1,max=65535"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// WatchConfig holds inbox watch settings. Every file dropped in Inbox is processed
// with Instruction/Format/Mode and its outputs written to Outbox.
type WatchConfig struct {
	Inbox       string   `yaml:"inbox"`
	Outbox      string   `yaml:"outbox"`
	Instruction string   `yaml:"instruction"`
	Format      string   `yaml:"format"`
	Mode        string   `yaml:"mode"`
	Extensions  []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.History.DatabasePath = expandPath(cfg.History.DatabasePath, configDir)
	if cfg.Watch.Inbox != "" {
		cfg.Watch.Inbox = expandPath(cfg.Watch.Inbox, configDir)
	}
	if cfg.Watch.Outbox != "" {
		cfg.Watch.Outbox = expandPath(cfg.Watch.Outbox, configDir)
	}

	return &cfg, nil
}

// Validate checks value ranges and enumerations after defaults are applied.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// normalize lowercases the enumerated settings, which are matched case-insensitively.
func normalize(cfg *Config) {
	cfg.Generation.Backend = strings.ToLower(strings.TrimSpace(cfg.Generation.Backend))
	cfg.Extract.DocxStrategy = strings.ToLower(strings.TrimSpace(cfg.Extract.DocxStrategy))
	cfg.Extract.OCR.Engine = strings.ToLower(strings.TrimSpace(cfg.Extract.OCR.Engine))
}

// Default returns a config with every default applied, for runs without a config file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// LoadAPIKey copies the generation service key from the environment into cfg.
// It is called once at startup; the key is never logged or persisted.
func LoadAPIKey(cfg *Config) {
	env := cfg.Generation.APIKeyEnv
	if env == "" {
		env = DefaultAPIKeyEnv
	}
	cfg.Generation.APIKey = strings.TrimSpace(os.Getenv(env))
}

// Save writes the config to path. The API key is never written.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
