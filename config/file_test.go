package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/gamingnews/history"
)

func TestLoadConfigFile_NoFile(t *testing.T) {
	cfg := Default()

	found, err := LoadConfigFile(filepath.Join(t.TempDir(), "config.yaml"), cfg)
	require.NoError(t, err)
	assert.False(t, found, "Should report false when config file doesn't exist")
	assert.Equal(t, Default(), cfg, "Config should be untouched")
}

func TestLoadConfigFile_ValidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := `site:
  base_url: "https://example.com"
  feed_url: "https://example.com/rss"
crawl:
  news_count: 8
  request_timeout: "30s"
  sleep_min: "200ms"
  sleep_max: "2s"
  seed: 42
history:
  type: "sqlite"
  dsn: "/path/to/history.db"
  limit: 100
selectors:
  title: ["h3.headline a"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o600))

	cfg := Default()
	found, err := LoadConfigFile(configPath, cfg)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "https://example.com", cfg.Site.BaseURL)
	assert.Equal(t, "https://example.com/rss", cfg.Site.FeedURL)
	assert.Equal(t, 8, cfg.Crawl.NewsCount)
	assert.Equal(t, 30*time.Second, cfg.Crawl.RequestTimeout.Std())
	assert.Equal(t, 200*time.Millisecond, cfg.Crawl.SleepMin.Std())
	assert.Equal(t, uint64(42), cfg.Crawl.Seed)
	assert.Equal(t, "sqlite", cfg.History.Type)
	assert.Equal(t, "/path/to/history.db", cfg.History.DSN)
	assert.Equal(t, 100, cfg.History.Limit)
	assert.Equal(t, []string{"h3.headline a"}, cfg.Selectors.Title)
}

func TestLoadConfigFile_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	invalidContent := `crawl:
  news_count: 5
history:
  - this is invalid yaml because history should be an object not a list
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidContent), 0o600))

	_, err := LoadConfigFile(configPath, Default())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadConfigFile_InvalidDuration(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("crawl:\n  request_timeout: soon\n"), 0o600))

	_, err := LoadConfigFile(configPath, Default())
	assert.Error(t, err)
}

func TestLoadConfigFile_PartialConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("output:\n  dir: \"/tmp/out\"\n"), 0o600))

	cfg := Default()
	_, err := LoadConfigFile(configPath, cfg)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.Equal(t, 5, cfg.Crawl.NewsCount, "Unspecified keys keep their defaults")
	assert.Equal(t, history.TypeFile, cfg.History.Type)
	assert.Equal(t, Default().Selectors, cfg.Selectors)
}

// TestWriteConfigFile_RoundTrip verifies a written default config loads back
func TestWriteConfigFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteConfigFile(path, Default(), false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "request_timeout: 15s")

	cfg := Default()
	cfg.Crawl.NewsCount = 99
	_, err = LoadConfigFile(path, cfg)
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Site, cfg.Site)
	assert.Equal(t, want.Crawl, cfg.Crawl)
	assert.Equal(t, want.History, cfg.History)
	assert.Equal(t, want.Caption, cfg.Caption)
	assert.Equal(t, want.Selectors.Title, cfg.Selectors.Title)
}

// TestWriteConfigFile_NoOverwrite verifies force is needed to replace a file
func TestWriteConfigFile_NoOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0o600))

	err := WriteConfigFile(path, Default(), false)
	assert.ErrorIs(t, err, ErrConfigExists)

	require.NoError(t, WriteConfigFile(path, Default(), true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, "keep", string(data))
}

// TestDefaultPath verifies the env override and the home fallback
func TestDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GAMINGNEWS_CONFIG", "")

	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".gamingnews", "config.yaml"), p)

	t.Setenv("GAMINGNEWS_CONFIG", "/etc/gamingnews.yaml")
	p, err = DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/gamingnews.yaml", p)
}
