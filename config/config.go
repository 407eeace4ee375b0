package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/viper"

	"github.com/ArubikU/blobcraft/pkg/validator"
)

const envPrefix = "BLOBCRAFT"

var (
	once sync.Once
	cfg  *Config
)

// GetConfig returns the process-wide configuration, loading it on first use
// from ./config.yaml (if present) and BLOBCRAFT_* environment variables.
func GetConfig() *Config {
	once.Do(func() {
		c, err := Load("")
		if err != nil {
			log.Panicf("failed to load config: %v", err)
		}
		cfg = c
	})
	return cfg
}

// Load reads the configuration from path, or from the working directory when
// path is empty. A missing file is not an error, defaults and env still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.Validate(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := c.checkSizes(); err != nil {
		return nil, err
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.addSource", false)

	v.SetDefault("app.name", "blobcraft")
	v.SetDefault("app.address", "0.0.0.0:8080")
	v.SetDefault("app.accessKey", "")
	v.SetDefault("app.enableCors", true)
	v.SetDefault("app.maxRequestSize", "100MiB")
	v.SetDefault("app.readTimeout", time.Duration(0))
	v.SetDefault("app.readHeaderTimeout", 10*time.Second)
	v.SetDefault("app.writeTimeout", time.Duration(0))
	v.SetDefault("app.rateLimit.enabled", false)
	v.SetDefault("app.rateLimit.requests", 100)
	v.SetDefault("app.rateLimit.window", time.Minute)

	v.SetDefault("sqlite.path", "data/blobcraft.db")

	v.SetDefault("objectstore.type", "local")
	v.SetDefault("objectstore.local.root", "data/objects")
	v.SetDefault("objectstore.cache.enabled", false)
	v.SetDefault("objectstore.cache.maxSize", "1GiB")

	v.SetDefault("upload.chunkSize", "12MiB")
	v.SetDefault("upload.minChunkSize", "256KiB")
	v.SetDefault("upload.chunkThreshold", "50MiB")
	v.SetDefault("upload.maxFileSize", "5GiB")
	v.SetDefault("upload.sessionTTL", time.Hour)
	v.SetDefault("upload.sweepInterval", 30*time.Minute)
	v.SetDefault("upload.retention", 10*time.Minute)

	v.SetDefault("storage.maxStorage", "10GiB")
	v.SetDefault("storage.enableExpiration", true)
	v.SetDefault("storage.defaultTTL", 24*time.Hour)
	v.SetDefault("storage.maxTTL", 7*24*time.Hour)
	v.SetDefault("storage.cleanupInterval", time.Hour)
	v.SetDefault("storage.compression.enabled", true)
	v.SetDefault("storage.compression.level", 3)
	v.SetDefault("storage.compression.threshold", "1KiB")
}

func (c *Config) checkSizes() error {
	sizes := map[string]string{
		"app.maxRequestSize":            c.App.MaxRequestSize,
		"upload.chunkSize":              c.Upload.ChunkSize,
		"upload.chunkThreshold":         c.Upload.ChunkThreshold,
		"upload.maxFileSize":            c.Upload.MaxFileSize,
		"storage.maxStorage":            c.Storage.MaxStorage,
		"storage.compression.threshold": c.Storage.Compression.Threshold,
	}
	if c.Objectstore.Cache.Enabled {
		sizes["objectstore.cache.maxSize"] = c.Objectstore.Cache.MaxSize
	}

	for key, value := range sizes {
		if _, err := units.RAMInBytes(value); err != nil {
			return fmt.Errorf("parse %s: %w", key, err)
		}
	}
	return nil
}

// Bytes parses a size such as "12MiB" or "5GB". Values are checked at load
// time, so an unparsable string yields 0.
func Bytes(size string) int64 {
	n, err := units.RAMInBytes(size)
	if err != nil {
		return 0
	}
	return n
}
