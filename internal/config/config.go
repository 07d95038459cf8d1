package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const appName = "pglens"

// Config holds all application configuration
type Config struct {
	Connection ConnectionConfig `mapstructure:"connection"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	UI         UIConfig         `mapstructure:"ui"`
	Editor     EditorConfig     `mapstructure:"editor"`
	History    HistoryConfig    `mapstructure:"history"`
	Log        LogConfig        `mapstructure:"log"`
}

type ConnectionConfig struct {
	DatabaseURL      string `mapstructure:"database_url"`
	Schema           string `mapstructure:"schema"`
	PageSize         int    `mapstructure:"page_size"`
	ConnectTimeoutMS int    `mapstructure:"connect_timeout_ms"`
	MaxConns         int    `mapstructure:"max_conns"`
	RememberPassword bool   `mapstructure:"remember_password"`
}

type WorkerConfig struct {
	CommandQueueSize int `mapstructure:"command_queue_size"`
	EventQueueSize   int `mapstructure:"event_queue_size"`
}

type UIConfig struct {
	Theme      string `mapstructure:"theme"`
	TickRateMS int    `mapstructure:"tick_rate_ms"`
}

type EditorConfig struct {
	AutoComplete bool `mapstructure:"auto_complete"`
}

type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxEntries int    `mapstructure:"max_entries"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// defaults is the single source for default values, shared by GetDefaults
// and the viper registration in Load
var defaults = map[string]any{
	"connection.database_url":       "",
	"connection.schema":             "public",
	"connection.page_size":          200,
	"connection.connect_timeout_ms": 5000,
	"connection.max_conns":          6,
	"connection.remember_password":  false,
	"worker.command_queue_size":     64,
	"worker.event_queue_size":       256,
	"ui.theme":                      "default",
	"ui.tick_rate_ms":               50,
	"editor.auto_complete":          true,
	"history.enabled":               true,
	"history.path":                  "",
	"history.max_entries":           1000,
	"log.level":                     "info",
	"log.file":                      "",
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		Connection: ConnectionConfig{
			Schema:           "public",
			PageSize:         200,
			ConnectTimeoutMS: 5000,
			MaxConns:         6,
		},
		Worker: WorkerConfig{
			CommandQueueSize: 64,
			EventQueueSize:   256,
		},
		UI: UIConfig{
			Theme:      "default",
			TickRateMS: 50,
		},
		Editor: EditorConfig{
			AutoComplete: true,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Loader reads configuration from files, environment and flags, and can
// watch the config file for changes
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader searching the standard config locations.
// If configFile is set, only that file is read.
func NewLoader(configFile string) *Loader {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 1. User config directory
		if dir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(dir)
		}
		// 2. Current directory
		v.AddConfigPath(".")
		// 3. Default config directory
		v.AddConfigPath("./config")
	}

	// PGLENS_CONNECTION_DATABASE_URL overrides connection.database_url, etc.
	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	return &Loader{v: v}
}

// BindFlags binds command-line flags to config keys. Flags are matched by
// the key mapping in flagKeys; unknown flags are ignored.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	for flagName, key := range flagKeys {
		f := flags.Lookup(flagName)
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flagName, err)
		}
	}
	return nil
}

// Load reads the config file (it's okay if it doesn't exist) and unmarshals it
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}
	return l.unmarshal()
}

// ConfigFileUsed returns the path of the file that was read, if any
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Watch re-reads the config file whenever it changes and passes the new
// config to onChange. Invalid edits are reported through onError and the
// previous config stays in effect.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.unmarshal()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.applyPathDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the worker and render loop cannot run with
func (c *Config) Validate() error {
	if c.Connection.PageSize <= 0 {
		return fmt.Errorf("connection.page_size must be positive, got %d", c.Connection.PageSize)
	}
	if c.Connection.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("connection.connect_timeout_ms must be positive, got %d", c.Connection.ConnectTimeoutMS)
	}
	if c.Connection.MaxConns <= 0 {
		return fmt.Errorf("connection.max_conns must be positive, got %d", c.Connection.MaxConns)
	}
	if c.Worker.CommandQueueSize <= 0 || c.Worker.EventQueueSize <= 0 {
		return fmt.Errorf("worker queue sizes must be positive")
	}
	if c.UI.TickRateMS <= 0 {
		return fmt.Errorf("ui.tick_rate_ms must be positive, got %d", c.UI.TickRateMS)
	}
	return nil
}

func (c *Config) applyPathDefaults() {
	if c.History.Path == "" {
		if dir, err := GetConfigPath(); err == nil {
			c.History.Path = filepath.Join(dir, "history.db")
		}
	}
	if c.Log.File == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			c.Log.File = filepath.Join(dir, appName, appName+".log")
		}
	}
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}
