// Package config holds the application's configuration structures and loader.
package config

import (
	"fmt"
	"time"

	"github.com/clipgate/clipgate/pkg/constants"
)

// Config holds the application's configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Admission AdmissionConfig `mapstructure:"admission"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	EnablePprof  bool   `mapstructure:"enable_pprof"`
}

func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type AdmissionConfig struct {
	RateWindow   time.Duration `mapstructure:"rate_window"`
	MaxPerWindow int           `mapstructure:"max_per_window"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	QueueDepth   int           `mapstructure:"queue_depth"`
}

type PipelineConfig struct {
	MaxArtifactMB  int           `mapstructure:"max_artifact_mb"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
	PreferHeight   int           `mapstructure:"prefer_height"`
	ScratchRoot    string        `mapstructure:"scratch_root"`
	FinalDir       string        `mapstructure:"final_dir"`
}

type ProviderConfig struct {
	BinaryPath       string        `mapstructure:"binary_path"`
	FFmpegPath       string        `mapstructure:"ffmpeg_path"`
	InstagramCookies string        `mapstructure:"instagram_cookies"`
	MetadataTTL      time.Duration `mapstructure:"metadata_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Admission.MaxPerWindow <= 0 {
		return fmt.Errorf("admission max_per_window must be positive")
	}
	if c.Admission.QueueDepth < 0 {
		return fmt.Errorf("admission queue_depth must not be negative")
	}
	if c.Pipeline.MaxArtifactMB <= 0 {
		return fmt.Errorf("pipeline max_artifact_mb must be positive")
	}
	return nil
}

// applyDefaults mirrors the documented defaults from pkg/constants.
func applyDefaults(c *Config) {
	if c.Admission.RateWindow == 0 {
		c.Admission.RateWindow = constants.DefaultRateWindow
	}
	if c.Admission.MaxPerWindow == 0 {
		c.Admission.MaxPerWindow = constants.DefaultMaxPerWindow
	}
	if c.Admission.Cooldown == 0 {
		c.Admission.Cooldown = constants.DefaultCooldown
	}
	if c.Admission.QueueDepth == 0 {
		c.Admission.QueueDepth = constants.DefaultQueueDepth
	}
	if c.Pipeline.MaxArtifactMB == 0 {
		c.Pipeline.MaxArtifactMB = constants.DefaultMaxArtifactMB
	}
	if c.Pipeline.AcquireTimeout == 0 {
		c.Pipeline.AcquireTimeout = constants.DefaultAcquireTimeout
	}
	if c.Pipeline.PreferHeight == 0 {
		c.Pipeline.PreferHeight = constants.DefaultPreferHeight
	}
	if c.Provider.MetadataTTL == 0 {
		c.Provider.MetadataTTL = constants.DefaultMetadataTTL
	}
}
