package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/clipgate/clipgate/pkg/errors"
)

// LoadConfig loads the configuration from file and environment variables.
// Environment variables use the CLIPGATE prefix with dots replaced by
// underscores, e.g. CLIPGATE_SERVER_PORT.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	// Write timeout must outlast the acquisition deadline or long fetches
	// get cut off mid-response.
	v.SetDefault("server.write_timeout", 300)
	v.SetDefault("database.path", "clipgate.db")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("provider.binary_path", "yt-dlp")
	v.SetDefault("provider.ffmpeg_path", "ffmpeg")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/clipgate/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.ErrInternal("config file read").WithCause(err)
		}
	}

	v.SetEnvPrefix("CLIPGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.ErrInternal("config unmarshal").WithCause(err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
