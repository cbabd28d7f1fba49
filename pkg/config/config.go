// Package config loads service configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Overpass OverpassConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	MonitoringPort int
	ClientRPS      float64
	ClientBurst    int
}

type OverpassConfig struct {
	ServerURL    string
	UserAgent    string
	QueryTimeout int
	RPS          float64
	Burst        int
	TagsFile     string
}

type CacheConfig struct {
	Backend    string
	Dir        string
	TTL        time.Duration
	MaxEntries int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LogConfig struct {
	Level string
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// The .env file is optional; everything can come from the process
	// environment.
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Host:           viper.GetString("SERVER_HOST"),
			Port:           viper.GetInt("SERVER_PORT"),
			MonitoringPort: viper.GetInt("MONITORING_PORT"),
			ClientRPS:      viper.GetFloat64("CLIENT_RPS"),
			ClientBurst:    viper.GetInt("CLIENT_BURST"),
		},
		Overpass: OverpassConfig{
			ServerURL:    viper.GetString("OVERPASS_URL"),
			UserAgent:    viper.GetString("OVERPASS_USER_AGENT"),
			QueryTimeout: viper.GetInt("OVERPASS_QUERY_TIMEOUT"),
			RPS:          viper.GetFloat64("OVERPASS_RPS"),
			Burst:        viper.GetInt("OVERPASS_BURST"),
			TagsFile:     viper.GetString("OVERPASS_TAGS_FILE"),
		},
		Cache: CacheConfig{
			Backend:    viper.GetString("CACHE_BACKEND"),
			Dir:        viper.GetString("CACHE_DIR"),
			TTL:        time.Duration(viper.GetInt("CACHE_DAYS")) * 24 * time.Hour,
			MaxEntries: viper.GetInt("CACHE_MAX_ENTRIES"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MonitoringPort == 0 {
		cfg.Server.MonitoringPort = 9090
	}
	if cfg.Server.ClientRPS == 0 {
		cfg.Server.ClientRPS = 10
	}
	if cfg.Server.ClientBurst == 0 {
		cfg.Server.ClientBurst = 20
	}
	if cfg.Overpass.ServerURL == "" {
		cfg.Overpass.ServerURL = "https://overpass.kumi.systems/api/interpreter/"
	}
	if cfg.Overpass.UserAgent == "" {
		cfg.Overpass.UserAgent = "Overscape/0.1"
	}
	if cfg.Overpass.QueryTimeout == 0 {
		cfg.Overpass.QueryTimeout = 25
	}
	if cfg.Overpass.RPS == 0 {
		cfg.Overpass.RPS = 1
	}
	if cfg.Overpass.Burst == 0 {
		cfg.Overpass.Burst = 1
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "_tile_cache"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 7 * 24 * time.Hour
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 1024
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "memory", "disk", "redis":
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q (must be memory, disk or redis)", c.Cache.Backend)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	return nil
}

// ServerAddr returns the main listen address.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MonitoringAddr returns the metrics/health listen address.
func (c *Config) MonitoringAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.MonitoringPort)
}
