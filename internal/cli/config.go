package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/tracker/internal/auth"
	"github.com/mesh-intelligence/tracker/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend        = "backend"
	cfgKeyDataDir        = "data_dir"
	cfgKeyListenAddr     = "listen_addr"
	cfgKeyLogLevel       = "log_level"
	cfgKeySessionCookie  = "session_cookie"
	cfgKeySessionTTL     = "session_ttl"
	cfgKeyRateLimitRPS   = "rate_limit_rps"
	cfgKeyRateLimitBurst = "rate_limit_burst"
)

// Settings is the merged configuration: defaults, then config.yaml, then
// TRACKER_* environment variables for the server keys.
type Settings struct {
	Backend        string        `mapstructure:"backend" yaml:"backend"`
	DataDir        string        `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	ListenAddr     string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
	SessionCookie  string        `mapstructure:"session_cookie" yaml:"session_cookie"`
	SessionTTL     time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
}

// DefaultSettings returns the values used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Backend:        types.BackendSQLite,
		ListenAddr:     "127.0.0.1:8080",
		LogLevel:       "info",
		SessionCookie:  auth.DefaultCookieName,
		SessionTTL:     24 * time.Hour,
		RateLimitRPS:   20,
		RateLimitBurst: 40,
	}
}

// envKeys are the settings that TRACKER_* variables override. data_dir is
// resolved by the paths package so that the config file wins over the
// environment.
var envKeys = []string{
	cfgKeyListenAddr,
	cfgKeyLogLevel,
	cfgKeySessionCookie,
	cfgKeySessionTTL,
	cfgKeyRateLimitRPS,
	cfgKeyRateLimitBurst,
}

// loadConfig reads config.yaml from configDir using Viper. A missing
// config.yaml is not an error.
func loadConfig(configDir string) (Settings, error) {
	def := DefaultSettings()

	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyDataDir, def.DataDir)
	v.SetDefault(cfgKeyListenAddr, def.ListenAddr)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeySessionCookie, def.SessionCookie)
	v.SetDefault(cfgKeySessionTTL, def.SessionTTL)
	v.SetDefault(cfgKeyRateLimitRPS, def.RateLimitRPS)
	v.SetDefault(cfgKeyRateLimitBurst, def.RateLimitBurst)

	for _, key := range envKeys {
		if err := v.BindEnv(key, "TRACKER_"+strings.ToUpper(key)); err != nil {
			return Settings{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}
