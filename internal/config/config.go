// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/abdulsamad/polychat/internal/model"
	"github.com/abdulsamad/polychat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete polychat configuration.
type Config struct {
	API     APIConfig     `toml:"api" yaml:"api" json:"api"`
	Storage StorageConfig `toml:"storage" yaml:"storage" json:"storage"`
	Chat    ChatConfig    `toml:"chat" yaml:"chat" json:"chat"`
	UI      UIConfig      `toml:"ui" yaml:"ui" json:"ui"`
	Logging LoggingConfig `toml:"logging" yaml:"logging" json:"logging"`
}

// APIConfig contains the generation backend settings.
type APIConfig struct {
	// BaseURL is the backend root; /chat and /image are appended.
	BaseURL string `toml:"base_url" yaml:"base_url" json:"base_url"`
	// Token is sent as a bearer token when set.
	Token string `toml:"token" yaml:"token" json:"token"`
	// TimeoutSecs bounds non-streaming requests.
	TimeoutSecs int `toml:"timeout" yaml:"timeout" json:"timeout"`
	// MaxRetries is the number of attempts for transient failures.
	MaxRetries int `toml:"max_retries" yaml:"max_retries" json:"max_retries"`
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	// Path is the SQLite database file (empty = ~/.polychat/polychat.db).
	Path string `toml:"path" yaml:"path" json:"path"`
	// DebounceMs is the quiet period before state is written back.
	DebounceMs int `toml:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"`
}

// ChatConfig contains response and new-thread settings.
type ChatConfig struct {
	// ThrottleMs is the minimum spacing between streaming updates.
	ThrottleMs int `toml:"throttle_ms" yaml:"throttle_ms" json:"throttle_ms"`
	// DefaultModel is the model of new threads.
	DefaultModel string `toml:"default_model" yaml:"default_model" json:"default_model"`
	// DefaultVariation is the persona of new threads.
	DefaultVariation string `toml:"default_variation" yaml:"default_variation" json:"default_variation"`
}

// UIConfig contains terminal presentation settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme" yaml:"theme" json:"theme"`
	// Sound rings the terminal bell when a response completes.
	Sound bool `toml:"sound" yaml:"sound" json:"sound"`
	// Haptic flashes the screen when a response completes.
	Haptic bool `toml:"haptic" yaml:"haptic" json:"haptic"`
	// SpeechCommand reads responses aloud, e.g. "espeak" or "say".
	SpeechCommand string `toml:"speech_command" yaml:"speech_command" json:"speech_command"`
	// ListenCommand records one utterance and prints its transcript, e.g.
	// a whisper or vosk wrapper. Empty disables voice input.
	ListenCommand string `toml:"listen_command" yaml:"listen_command" json:"listen_command"`
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level"`
	Format string `toml:"format" yaml:"format" json:"format"`
	// File is the log file (empty = ~/.polychat/polychat.log).
	File string `toml:"file" yaml:"file" json:"file"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultBaseURL is the backend used when none is configured.
	DefaultBaseURL = "http://localhost:3000/api"

	defaultTimeoutSecs = 120
	defaultMaxRetries  = 3
	defaultDebounceMs  = 750
	defaultThrottleMs  = 750
)

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     DefaultBaseURL,
			TimeoutSecs: defaultTimeoutSecs,
			MaxRetries:  defaultMaxRetries,
		},
		Storage: StorageConfig{
			DebounceMs: defaultDebounceMs,
		},
		Chat: ChatConfig{
			ThrottleMs:       defaultThrottleMs,
			DefaultModel:     model.DefaultModel,
			DefaultVariation: model.DefaultVariation,
		},
		UI: UIConfig{
			Theme: "auto",
			Sound: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	d := Default()
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = d.API.TimeoutSecs
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = d.API.MaxRetries
	}
	if c.Storage.DebounceMs == 0 {
		c.Storage.DebounceMs = d.Storage.DebounceMs
	}
	if c.Chat.ThrottleMs == 0 {
		c.Chat.ThrottleMs = d.Chat.ThrottleMs
	}
	if c.Chat.DefaultModel == "" {
		c.Chat.DefaultModel = d.Chat.DefaultModel
	}
	if c.Chat.DefaultVariation == "" {
		c.Chat.DefaultVariation = d.Chat.DefaultVariation
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Timeout returns the API timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// Debounce returns the persistence debounce window.
func (s StorageConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// DBPath returns the database file, defaulting into the config directory.
func (s StorageConfig) DBPath() (string, error) {
	if s.Path != "" {
		return expandHome(s.Path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "polychat.db"), nil
}

// Throttle returns the streaming update window.
func (c ChatConfig) Throttle() time.Duration {
	return time.Duration(c.ThrottleMs) * time.Millisecond
}

// DefaultSettings returns the settings of a new thread: the configured
// model and variation with the variation's sampling parameters.
func (c ChatConfig) DefaultSettings() model.Settings {
	s := model.DefaultThread().Settings
	if _, err := model.Lookup(c.DefaultModel); err == nil {
		s.Model = c.DefaultModel
	}
	if v, err := model.LookupVariation(c.DefaultVariation); err == nil {
		s.Variation = v.Code
		s.ModelConfig = v.ModelConfig()
	}
	return s
}

// LogPath returns the log file, defaulting into the config directory.
func (l LoggingConfig) LogPath() (string, error) {
	if l.File != "" {
		return expandHome(l.File)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "polychat.log"), nil
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the polychat directory, ~/.polychat unless
// POLYCHAT_HOME is set.
func ConfigDir() (string, error) {
	if dir := os.Getenv("POLYCHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".polychat"), nil
}

// ConfigPaths returns the candidate config files in load order.
func ConfigPaths() ([]string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return []string{
		filepath.Join(dir, "config.toml"),
		filepath.Join(dir, "config.yaml"),
		filepath.Join(dir, "config.json"),
	}, nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ensureSecurePermissions tightens a config file to 0600.
// SECURITY: The file may hold the API token.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the first config file that exists, applies environment
// overrides and validates the result. With no config file the defaults are
// used.
func Load() (*Config, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	return cfg, finish(cfg)
}

// LoadFromPath loads one config file, choosing the decoder by extension.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := decodeFile(cfg, path); err != nil {
		return nil, err
	}
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config) error {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func decodeFile(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		// Not fatal: permissions cannot be changed on every filesystem.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		_, err = toml.Decode(string(data), cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to ~/.polychat/config.toml.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	paths, err := ConfigPaths()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, paths[0])
}

// SaveTOML writes cfg as TOML.
// SECURITY: Written with 0600 permissions since it may hold the API token.
// RELIABILITY: Atomic write prevents a torn file on crash.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# polychat configuration file\n")
	buf.WriteString("# Preferences (language, image size) are set with `polychat config set`.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - POLYCHAT_API_BASE_URL: overrides api.base_url
//   - POLYCHAT_API_TOKEN: overrides api.token
//   - POLYCHAT_DB_PATH: overrides storage.path
//   - POLYCHAT_LOG_LEVEL: overrides logging.level
//   - POLYCHAT_DEFAULT_MODEL: overrides chat.default_model
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("POLYCHAT_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("POLYCHAT_API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("POLYCHAT_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("POLYCHAT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("POLYCHAT_DEFAULT_MODEL"); v != "" {
		c.Chat.DefaultModel = v
	}
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders c as TOML with the token masked.
func (c *Config) String() string {
	masked := c.Clone()
	if masked.API.Token != "" {
		masked.API.Token = "********"
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(masked); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
