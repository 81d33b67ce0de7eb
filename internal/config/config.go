// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/vfit-e2e/api/schemas"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Network() NetworkConfig
	Interaction() InteractionConfig
	Suite() SuiteConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserIgnoreTLSErrors(bool)

	// Network Setters
	SetNetworkNavigationTimeout(d time.Duration)
	SetNetworkPostLoadWait(d time.Duration)

	// Suite Setters
	SetSuiteBaseURL(string)
	SetSuiteArtifactsDir(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	BrowserCfg     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	NetworkCfg     NetworkConfig     `mapstructure:"network" yaml:"network"`
	InteractionCfg InteractionConfig `mapstructure:"interaction" yaml:"interaction"`
	SuiteCfg       SuiteConfig       `mapstructure:"suite" yaml:"suite"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig         { return c.BrowserCfg }
func (c *Config) Network() NetworkConfig         { return c.NetworkCfg }
func (c *Config) Interaction() InteractionConfig { return c.InteractionCfg }
func (c *Config) Suite() SuiteConfig             { return c.SuiteCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)        { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserIgnoreTLSErrors(b bool) { c.BrowserCfg.IgnoreTLSErrors = b }

func (c *Config) SetNetworkNavigationTimeout(d time.Duration) {
	c.NetworkCfg.NavigationTimeout = d
}
func (c *Config) SetNetworkPostLoadWait(d time.Duration) { c.NetworkCfg.PostLoadWait = d }

func (c *Config) SetSuiteBaseURL(u string)      { c.SuiteCfg.BaseURL = u }
func (c *Config) SetSuiteArtifactsDir(d string) { c.SuiteCfg.ArtifactsDir = d }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chromium instance driven by the suite.
type BrowserConfig struct {
	Headless        bool           `mapstructure:"headless" yaml:"headless"`
	DisableCache    bool           `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	ExecPath        string         `mapstructure:"exec_path" yaml:"exec_path"`
	Debug           bool           `mapstructure:"debug" yaml:"debug"`
	Args            []string       `mapstructure:"args" yaml:"args"`
	Viewport        map[string]int `mapstructure:"viewport" yaml:"viewport"`
}

// NetworkConfig holds navigation timing.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// PostLoadWait is the quiet period the page must hold with no in-flight
	// requests before a navigation is considered settled.
	PostLoadWait time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// InteractionConfig is the single source of truth for every timeout and retry
// constant used by the interaction helper.
type InteractionConfig struct {
	ClickTimeout       time.Duration       `mapstructure:"click_timeout" yaml:"click_timeout"`
	FillTimeout        time.Duration       `mapstructure:"fill_timeout" yaml:"fill_timeout"`
	UploadTimeout      time.Duration       `mapstructure:"upload_timeout" yaml:"upload_timeout"`
	AssertTimeout      time.Duration       `mapstructure:"assert_timeout" yaml:"assert_timeout"`
	DefaultWaitTimeout time.Duration       `mapstructure:"default_wait_timeout" yaml:"default_wait_timeout"`
	ScriptTimeout      time.Duration       `mapstructure:"script_timeout" yaml:"script_timeout"`
	PollInterval       time.Duration       `mapstructure:"poll_interval" yaml:"poll_interval"`
	ClickRetry         schemas.RetryPolicy `mapstructure:"click_retry" yaml:"click_retry"`
	FillRetry          schemas.RetryPolicy `mapstructure:"fill_retry" yaml:"fill_retry"`
	ForceClickRetry    schemas.RetryPolicy `mapstructure:"force_click_retry" yaml:"force_click_retry"`
}

// Validate checks the interaction timings and retry policies.
func (i *InteractionConfig) Validate() error {
	timeouts := map[string]time.Duration{
		"click_timeout":        i.ClickTimeout,
		"fill_timeout":         i.FillTimeout,
		"upload_timeout":       i.UploadTimeout,
		"assert_timeout":       i.AssertTimeout,
		"default_wait_timeout": i.DefaultWaitTimeout,
		"script_timeout":       i.ScriptTimeout,
		"poll_interval":        i.PollInterval,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive duration", name)
		}
	}
	policies := map[string]schemas.RetryPolicy{
		"click_retry":       i.ClickRetry,
		"fill_retry":        i.FillRetry,
		"force_click_retry": i.ForceClickRetry,
	}
	for name, p := range policies {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// SuiteConfig carries the settings shared by every test context.
type SuiteConfig struct {
	BaseURL             string `mapstructure:"base_url" yaml:"base_url"`
	ArtifactsDir        string `mapstructure:"artifacts_dir" yaml:"artifacts_dir"`
	ScreenshotOnFailure bool   `mapstructure:"screenshot_on_failure" yaml:"screenshot_on_failure"`
	CatalogPath         string `mapstructure:"catalog_path" yaml:"catalog_path"`
	FixturesPath        string `mapstructure:"fixtures_path" yaml:"fixtures_path"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "vfit-e2e")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_cache", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport", map[string]int{"width": 1920, "height": 1080})

	// -- Network --
	v.SetDefault("network.navigation_timeout", "60s")
	v.SetDefault("network.post_load_wait", "500ms")

	// -- Interaction --
	v.SetDefault("interaction.click_timeout", "10s")
	v.SetDefault("interaction.fill_timeout", "10s")
	v.SetDefault("interaction.upload_timeout", "15s")
	v.SetDefault("interaction.assert_timeout", "10s")
	v.SetDefault("interaction.default_wait_timeout", "10s")
	v.SetDefault("interaction.script_timeout", "5s")
	v.SetDefault("interaction.poll_interval", "100ms")
	v.SetDefault("interaction.click_retry.max_attempts", 3)
	v.SetDefault("interaction.click_retry.delay", "500ms")
	v.SetDefault("interaction.fill_retry.max_attempts", 2)
	v.SetDefault("interaction.fill_retry.delay", "300ms")
	v.SetDefault("interaction.force_click_retry.max_attempts", 5)
	v.SetDefault("interaction.force_click_retry.delay", "1s")

	// -- Suite --
	v.SetDefault("suite.base_url", "")
	v.SetDefault("suite.artifacts_dir", "test-results")
	v.SetDefault("suite.screenshot_on_failure", true)
	v.SetDefault("suite.catalog_path", "")
	v.SetDefault("suite.fixtures_path", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.NetworkCfg.NavigationTimeout <= 0 {
		return fmt.Errorf("network.navigation_timeout must be a positive duration")
	}
	if c.NetworkCfg.PostLoadWait < 0 {
		return fmt.Errorf("network.post_load_wait must not be negative")
	}
	if err := c.InteractionCfg.Validate(); err != nil {
		return fmt.Errorf("interaction configuration invalid: %w", err)
	}
	return nil
}
