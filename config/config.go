// Package config holds the run configuration. A Config is built once at
// startup from defaults, the YAML file, environment variables and CLI flags
// (in increasing priority) and then handed to constructors.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pevans/gamingnews/caption"
	"github.com/pevans/gamingnews/discovery"
	"github.com/pevans/gamingnews/history"
	"github.com/pevans/gamingnews/logger"
	"github.com/pevans/gamingnews/scraper"
)

// Layout of the output directory.
const (
	ContentSubdir = "contenido"
	LogSubdir     = "logs/logs"
	DebugSubdir   = "logs/debug"
	historyFile   = "news_history.json"
	historyDB     = "news_history.db"
)

// Duration is a time.Duration written in YAML as "1s", "500ms", ...
type Duration time.Duration

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// SiteConfig locates the news site.
type SiteConfig struct {
	BaseURL  string `yaml:"base_url"`
	NewsPath string `yaml:"news_path"`
	// FeedURL enables the feed fallback when set.
	FeedURL string `yaml:"feed_url"`
}

// CrawlConfig controls how the site is crawled.
type CrawlConfig struct {
	NewsCount      int      `yaml:"news_count"`
	MaxPages       int      `yaml:"max_pages"`
	RequestTimeout Duration `yaml:"request_timeout"`
	SleepMin       Duration `yaml:"sleep_min"`
	SleepMax       Duration `yaml:"sleep_max"`
	MaxRetries     int      `yaml:"max_retries"`
	RetryBackoff   Duration `yaml:"retry_backoff"`
	RespectRobots  bool     `yaml:"respect_robots"`
	// Seed makes runs reproducible; zero draws from real entropy.
	Seed       uint64   `yaml:"seed"`
	UserAgents []string `yaml:"user_agents"`
}

// OutputConfig locates generated files.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Config is the complete run configuration.
type Config struct {
	Site      SiteConfig        `yaml:"site"`
	Crawl     CrawlConfig       `yaml:"crawl"`
	History   history.Config    `yaml:"history"`
	Output    OutputConfig      `yaml:"output"`
	Caption   caption.Config    `yaml:"caption"`
	Selectors scraper.Selectors `yaml:"selectors"`
	Log       logger.Config     `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:  "https://vandal.elespanol.com",
			NewsPath: "/noticias/videojuegos",
		},
		Crawl: CrawlConfig{
			NewsCount:      5,
			MaxPages:       discovery.DefaultMaxPages,
			RequestTimeout: Duration(15 * time.Second),
			SleepMin:       Duration(time.Second),
			SleepMax:       Duration(3 * time.Second),
			MaxRetries:     3,
			RetryBackoff:   Duration(500 * time.Millisecond),
			UserAgents:     append([]string(nil), discovery.DefaultUserAgents...),
		},
		History: history.Config{
			Type:  history.TypeFile,
			Limit: history.DefaultLimit,
		},
		Output: OutputConfig{
			Dir: "gaming_news_output",
		},
		Caption:   caption.DefaultConfig(),
		Selectors: scraper.DefaultSelectors(),
		Log: logger.Config{
			Level: logger.DefaultLevel,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// it exists) and the environment. An empty path uses DefaultPath. The
// result is not validated; callers apply flags first and then Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := LoadConfigFile(path, cfg); err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Site.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("site.base_url %q is not an absolute URL", c.Site.BaseURL))
	}
	if c.Crawl.NewsCount <= 0 {
		errs = append(errs, errors.New("crawl.news_count must be positive"))
	}
	if c.Crawl.MaxPages <= 0 {
		errs = append(errs, errors.New("crawl.max_pages must be positive"))
	}
	if c.Crawl.RequestTimeout <= 0 {
		errs = append(errs, errors.New("crawl.request_timeout must be positive"))
	}
	if c.Crawl.SleepMin < 0 || c.Crawl.SleepMin > c.Crawl.SleepMax {
		errs = append(errs, errors.New("crawl.sleep_min must be between 0 and crawl.sleep_max"))
	}
	if c.Crawl.MaxRetries < 0 {
		errs = append(errs, errors.New("crawl.max_retries must not be negative"))
	}
	if c.History.Limit <= 0 {
		errs = append(errs, errors.New("history.limit must be positive"))
	}
	switch c.History.Type {
	case history.TypeFile, history.TypeSQLite:
	default:
		errs = append(errs, fmt.Errorf("history.type %q must be %q or %q", c.History.Type, history.TypeFile, history.TypeSQLite))
	}
	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir must be set"))
	}

	return errors.Join(errs...)
}

// NewsURL returns the URL of the first listing page.
func (c *Config) NewsURL() string {
	return strings.TrimSuffix(c.Site.BaseURL, "/") + c.Site.NewsPath
}

// ContentDir returns where bundles are written.
func (c *Config) ContentDir() string {
	return filepath.Join(c.Output.Dir, ContentSubdir)
}

// LogDir returns where per-day log files are written.
func (c *Config) LogDir() string {
	return filepath.Join(c.Output.Dir, filepath.FromSlash(LogSubdir))
}

// DebugDir returns where HTML snapshots are written.
func (c *Config) DebugDir() string {
	return filepath.Join(c.Output.Dir, filepath.FromSlash(DebugSubdir))
}

// HistoryConfig returns the history settings with the DSN defaulted into
// the output directory.
func (c *Config) HistoryConfig() history.Config {
	hc := c.History
	if hc.DSN == "" {
		name := historyFile
		if hc.Type == history.TypeSQLite {
			name = historyDB
		}
		hc.DSN = filepath.Join(c.Output.Dir, name)
	}
	return hc
}

// FetcherConfig returns the HTTP settings.
func (c *Config) FetcherConfig() discovery.FetcherConfig {
	return discovery.FetcherConfig{
		UserAgents:    c.Crawl.UserAgents,
		Timeout:       c.Crawl.RequestTimeout.Std(),
		MaxRetries:    c.Crawl.MaxRetries,
		RetryBackoff:  c.Crawl.RetryBackoff.Std(),
		DebugDir:      c.DebugDir(),
		RespectRobots: c.Crawl.RespectRobots,
	}
}
