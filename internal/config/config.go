// Package config loads configuration from defaults, an optional TOML file,
// a .env file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/clicafe/clicafe/pkg/gateway"
)

// Palette lists the accepted terminal colours.
var Palette = []string{"green", "blue", "red", "yellow", "purple"}

// DefaultAPIURL is used when nothing else is configured.
const DefaultAPIURL = "http://localhost:8000/api"

// dotenvPath is the .env file read from the working directory.
var dotenvPath = ".env"

// Config holds all CLIcafe configuration.
type Config struct {
	// API
	APIURL          string
	Offline         bool // no API: local cart, static catalog
	Timeout         time.Duration
	RefreshInterval time.Duration
	LoginAttempts   int

	// Catalog cache
	CacheDir      string
	CacheTTL      time.Duration
	CacheMaxBytes int64

	// Session
	TokenFile string
	Color     string

	// Logging. An empty LogOutput lets each command pick its default.
	LogLevel  string
	LogFormat string
	LogOutput string

	// Metrics listener for the shell (empty = off)
	MetricsAddr string

	// Payment callback server
	CallbackListenAddr string
	CallbackHomeURL    string
	CallbackAPIToken   string

	// ConfigFile is the TOML file that was read, if any.
	ConfigFile string
}

// fileConfig mirrors config.toml.
type fileConfig struct {
	API struct {
		URL             string        `toml:"url"`
		Offline         bool          `toml:"offline"`
		Timeout         time.Duration `toml:"timeout"`
		RefreshInterval time.Duration `toml:"refresh_interval"`
		LoginAttempts   int           `toml:"login_attempts"`
	} `toml:"api"`
	Cache struct {
		Dir      string        `toml:"dir"`
		TTL      time.Duration `toml:"ttl"`
		MaxBytes int64         `toml:"max_bytes"`
	} `toml:"cache"`
	Shell struct {
		TokenFile   string `toml:"token_file"`
		Color       string `toml:"color"`
		MetricsAddr string `toml:"metrics_addr"`
	} `toml:"shell"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
		Output string `toml:"output"`
	} `toml:"log"`
	Callback struct {
		ListenAddr string `toml:"listen_addr"`
		HomeURL    string `toml:"home_url"`
		APIToken   string `toml:"api_token"`
	} `toml:"callback"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return &Config{
		APIURL:             DefaultAPIURL,
		Timeout:            15 * time.Second,
		RefreshInterval:    4 * time.Minute,
		LoginAttempts:      3,
		CacheDir:           filepath.Join(cacheDir, "clicafe"),
		CacheTTL:           5 * time.Minute,
		CacheMaxBytes:      8 << 20,
		TokenFile:          gateway.DefaultTokenPath(),
		Color:              "green",
		LogLevel:           "info",
		LogFormat:          "json",
		CallbackListenAddr: ":3000",
		CallbackHomeURL:    "/",
	}
}

// Load builds the configuration. A .env file in the working directory fills
// variables that are not already set in the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
	}

	cfg := Defaults()

	path, explicit := configFilePath()
	if err := cfg.applyFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else {
		cfg.ConfigFile = path
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFilePath() (string, bool) {
	if p := os.Getenv("CLICAFE_CONFIG"); p != "" {
		return p, true
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, "clicafe", "config.toml"), false
}

func (c *Config) applyFile(path string) error {
	if path == "" {
		return os.ErrNotExist
	}
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}

	setString(&c.APIURL, fc.API.URL)
	c.Offline = c.Offline || fc.API.Offline
	setDuration(&c.Timeout, fc.API.Timeout)
	setDuration(&c.RefreshInterval, fc.API.RefreshInterval)
	if fc.API.LoginAttempts != 0 {
		c.LoginAttempts = fc.API.LoginAttempts
	}
	setString(&c.CacheDir, fc.Cache.Dir)
	setDuration(&c.CacheTTL, fc.Cache.TTL)
	if fc.Cache.MaxBytes != 0 {
		c.CacheMaxBytes = fc.Cache.MaxBytes
	}
	setString(&c.TokenFile, fc.Shell.TokenFile)
	setString(&c.Color, fc.Shell.Color)
	setString(&c.MetricsAddr, fc.Shell.MetricsAddr)
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFormat, fc.Log.Format)
	setString(&c.LogOutput, fc.Log.Output)
	setString(&c.CallbackListenAddr, fc.Callback.ListenAddr)
	setString(&c.CallbackHomeURL, fc.Callback.HomeURL)
	setString(&c.CallbackAPIToken, fc.Callback.APIToken)
	return nil
}

func (c *Config) applyEnv() {
	c.APIURL = envOr("CLICAFE_API_URL", c.APIURL)
	c.Offline = envBool("CLICAFE_OFFLINE", c.Offline)
	c.Timeout = envDuration("CLICAFE_TIMEOUT", c.Timeout)
	c.RefreshInterval = envDuration("CLICAFE_REFRESH_INTERVAL", c.RefreshInterval)
	c.LoginAttempts = envInt("CLICAFE_LOGIN_ATTEMPTS", c.LoginAttempts)
	c.CacheDir = envOr("CLICAFE_CACHE_DIR", c.CacheDir)
	c.CacheTTL = envDuration("CLICAFE_CACHE_TTL", c.CacheTTL)
	c.CacheMaxBytes = envInt64("CLICAFE_CACHE_MAX_BYTES", c.CacheMaxBytes)
	c.TokenFile = envOr("CLICAFE_TOKEN_FILE", c.TokenFile)
	c.Color = envOr("CLICAFE_COLOR", c.Color)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("LOG_FORMAT", c.LogFormat)
	c.LogOutput = envOr("LOG_OUTPUT", c.LogOutput)
	c.MetricsAddr = envOr("METRICS_ADDR", c.MetricsAddr)
	c.CallbackListenAddr = envOr("CALLBACK_LISTEN_ADDR", c.CallbackListenAddr)
	c.CallbackHomeURL = envOr("CALLBACK_HOME_URL", c.CallbackHomeURL)
	c.CallbackAPIToken = envOr("CALLBACK_API_TOKEN", c.CallbackAPIToken)
}

// Validate normalises and checks the configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.APIURL)) {
	case "", "off", "none", "offline":
		c.Offline = true
		c.APIURL = ""
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")

	if !ValidColor(c.Color) {
		return fmt.Errorf("CLICAFE_COLOR must be one of %s, got %q", strings.Join(Palette, ", "), c.Color)
	}
	c.Color = strings.ToLower(c.Color)
	if c.LoginAttempts < 1 {
		return fmt.Errorf("CLICAFE_LOGIN_ATTEMPTS must be at least 1, got %d", c.LoginAttempts)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("CLICAFE_TIMEOUT must be positive")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("CLICAFE_REFRESH_INTERVAL must be positive")
	}
	return nil
}

// ValidColor reports whether name is in the palette.
func ValidColor(name string) bool {
	for _, p := range Palette {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// DefaultShellLog returns $XDG_STATE_HOME/clicafe/clicafe.log.
func DefaultShellLog() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "clicafe.log")
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "clicafe", "clicafe.log")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
