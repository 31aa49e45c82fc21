package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Server holds settings for the HTTP API, read from the environment and an
// optional .env file.
type Server struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	LogFormat   string `mapstructure:"LOG_FORMAT"`
	KFRERegion  string `mapstructure:"KFRE_REGION"`
	ConfigFile  string `mapstructure:"CONFIG_FILE"`
	CacheSize   int    `mapstructure:"CACHE_SIZE"`
}

// LoadServer reads server settings. envFile may be empty to skip the .env
// lookup.
func LoadServer(envFile string) (*Server, error) {
	v := viper.New()
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
	}
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("KFRE_REGION", "")
	v.SetDefault("CACHE_SIZE", 1024)

	for _, key := range []string{"PORT", "DATABASE_URL", "DB_MAX_CONNS", "LOG_FORMAT", "KFRE_REGION", "CONFIG_FILE", "CACHE_SIZE"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if envFile != "" {
		// A missing .env file is fine; the environment alone may be enough.
		_ = v.ReadInConfig()
	}

	cfg := &Server{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// CLI converts the server settings into a Config so the YAML file and
// region validation are shared with the command-line path.
func (s *Server) CLI() (*Config, error) {
	c := &Config{DSN: s.DatabaseURL, LogFormat: s.LogFormat, KFRERegion: s.KFRERegion}
	if s.ConfigFile != "" {
		if err := c.LoadFromFile(s.ConfigFile); err != nil {
			return nil, err
		}
	}
	if _, err := c.KidneyFailureModel(); err != nil {
		return nil, err
	}
	return c, nil
}
