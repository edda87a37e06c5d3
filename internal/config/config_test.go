// Copyright (c) 2025 The polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulsamad/polychat/internal/model"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("POLYCHAT_HOME", dir)
	for _, key := range []string{
		"POLYCHAT_API_BASE_URL", "POLYCHAT_API_TOKEN", "POLYCHAT_DB_PATH",
		"POLYCHAT_LOG_LEVEL", "POLYCHAT_DEFAULT_MODEL",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 750*time.Millisecond, cfg.Storage.Debounce())
	assert.Equal(t, 750*time.Millisecond, cfg.Chat.Throttle())
	assert.Equal(t, 120*time.Second, cfg.API.Timeout())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)

	db, err := cfg.Storage.DBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "polychat.db"), db)
}

func TestLoad_TOMLWinsOverYAMLAndJSON(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[api]
base_url = "https://toml.example.com/api"

[chat]
default_model = "gpt-4o"
`)
	writeFile(t, filepath.Join(dir, "config.yaml"), "api:\n  base_url: https://yaml.example.com\n")
	writeFile(t, filepath.Join(dir, "config.json"), `{"api":{"base_url":"https://json.example.com"}}`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://toml.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, "gpt-4o", cfg.Chat.DefaultModel)
	// Unset fields keep defaults.
	assert.Equal(t, 3, cfg.API.MaxRetries)
	assert.Equal(t, model.DefaultVariation, cfg.Chat.DefaultVariation)
}

func TestLoad_YAMLFallback(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.yaml"), `
api:
  base_url: https://yaml.example.com
storage:
  debounce_ms: 1000
ui:
  sound: false
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://yaml.example.com", cfg.API.BaseURL)
	assert.Equal(t, 1000, cfg.Storage.DebounceMs)
	assert.False(t, cfg.UI.Sound)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{"logging":{"level":"debug","format":"json"}}`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("POLYCHAT_API_BASE_URL", "https://env.example.com")
	t.Setenv("POLYCHAT_API_TOKEN", "tok")
	t.Setenv("POLYCHAT_DB_PATH", "/tmp/x.db")
	t.Setenv("POLYCHAT_LOG_LEVEL", "warn")
	t.Setenv("POLYCHAT_DEFAULT_MODEL", "mistral-large-latest")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL)
	assert.Equal(t, "tok", cfg.API.Token)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "mistral-large-latest", cfg.Chat.DefaultModel)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[api\nbase_url = ")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_FixesPermissions(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"dark\"\n"), 0644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "ftp://nope"
	cfg.API.MaxRetries = 0
	cfg.Chat.DefaultModel = "gpt-2"
	cfg.UI.Theme = "neon"
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, len(verrs))
	for i, e := range verrs {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{
		"api.base_url", "api.max_retries", "chat.default_model", "ui.theme", "logging.level",
	}, fields)
}

func TestGetSet_DotNotation(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("api.base_url", "https://x.example.com"))
	require.NoError(t, cfg.Set("storage.debounce_ms", "900"))
	require.NoError(t, cfg.Set("ui.sound", "off"))
	require.NoError(t, cfg.Set("chat.default-model", "gpt-4o"))

	v, err := cfg.Get("api.base_url")
	require.NoError(t, err)
	assert.Equal(t, "https://x.example.com", v)
	assert.Equal(t, 900, cfg.Storage.DebounceMs)
	assert.False(t, cfg.UI.Sound)
	assert.Equal(t, "gpt-4o", cfg.Chat.DefaultModel)

	assert.ErrorIs(t, cfg.Set("api.nope", "x"), ErrUnknownKey)
	_, err = cfg.Get("api")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Error(t, cfg.Set("storage.debounce_ms", "soon"))
	assert.Error(t, cfg.Set("ui.sound", "maybe"))
}

func TestAllKeys(t *testing.T) {
	keys := AllKeys()
	assert.Contains(t, keys, "api.base_url")
	assert.Contains(t, keys, "chat.throttle_ms")
	assert.Contains(t, keys, "logging.file")
	for _, k := range keys {
		_, err := Default().Get(k)
		assert.NoError(t, err, k)
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.API.Token = "secret"
	cfg.Chat.DefaultVariation = "developer"

	require.NoError(t, Save(cfg))

	path := filepath.Join(dir, "config.toml")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestString_MasksToken(t *testing.T) {
	cfg := Default()
	cfg.API.Token = "super-secret"
	out := cfg.String()
	assert.NotContains(t, out, "super-secret")
	assert.Contains(t, out, "********")
}

func TestDefaultSettings(t *testing.T) {
	c := ChatConfig{DefaultModel: "gpt-4o", DefaultVariation: "developer"}
	s := c.DefaultSettings()
	assert.Equal(t, "gpt-4o", s.Model)
	assert.Equal(t, "developer", s.Variation)

	v, err := model.LookupVariation("developer")
	require.NoError(t, err)
	assert.Equal(t, v.ModelConfig(), s.ModelConfig)

	fallback := ChatConfig{DefaultModel: "nope", DefaultVariation: "nope"}.DefaultSettings()
	assert.Equal(t, model.DefaultThread().Settings, fallback)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "[ui]\ntheme = \"dark\"\n")

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { changes <- c })
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Invalid edits are ignored.
	writeFile(t, path, "[ui]\ntheme = \"neon\"\n")
	time.Sleep(80 * time.Millisecond)
	writeFile(t, path, "[ui]\ntheme = \"light\"\n")

	select {
	case cfg := <-changes:
		assert.Equal(t, "light", cfg.UI.Theme)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload")
	}
}
