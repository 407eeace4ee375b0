package config

import "time"

type Config struct {
	// General configuration
	Env string `yaml:"env" mapstructure:"env" validate:"required"`
	Log Log    `yaml:"log" mapstructure:"log" validate:"required"`
	App App    `yaml:"app" mapstructure:"app" validate:"required"`

	// Infrastructure components
	Sqlite      Sqlite      `yaml:"sqlite" mapstructure:"sqlite" validate:"required"`
	Objectstore Objectstore `yaml:"objectstore" mapstructure:"objectstore" validate:"required"`

	// Domain
	Upload  Upload  `yaml:"upload" mapstructure:"upload" validate:"required"`
	Storage Storage `yaml:"storage" mapstructure:"storage" validate:"required"`
}

type App struct {
	Name           string        `yaml:"name" mapstructure:"name" validate:"required"`
	Address        string        `yaml:"address" mapstructure:"address" validate:"required"`
	AccessKey      string        `yaml:"accessKey" mapstructure:"accessKey"`
	EnableCORS     bool          `yaml:"enableCors" mapstructure:"enableCors"`
	MaxRequestSize string        `yaml:"maxRequestSize" mapstructure:"maxRequestSize" validate:"required"`
	// ReadTimeout and WriteTimeout cover a whole request, finalization of the
	// last chunk included. Zero disables them.
	ReadTimeout       time.Duration `yaml:"readTimeout" mapstructure:"readTimeout" validate:"gte=0"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout" mapstructure:"readHeaderTimeout" validate:"gte=0"`
	WriteTimeout      time.Duration `yaml:"writeTimeout" mapstructure:"writeTimeout" validate:"gte=0"`
	RateLimit         RateLimit     `yaml:"rateLimit" mapstructure:"rateLimit"`
}

type RateLimit struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Requests int           `yaml:"requests" mapstructure:"requests" validate:"required_if=Enabled true,gte=0"`
	Window   time.Duration `yaml:"window" mapstructure:"window" validate:"required_if=Enabled true,gte=0"`
}

type Log struct {
	Level     string `yaml:"level" mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format    string `yaml:"format" mapstructure:"format" validate:"oneof=json text"`
	AddSource bool   `yaml:"addSource" mapstructure:"addSource"`
}

type Sqlite struct {
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
}

type Objectstore struct {
	Type  string           `yaml:"type" mapstructure:"type" validate:"required,oneof=local storj s3"`
	Local LocalObjectstore `yaml:"local" mapstructure:"local" validate:"required"`
	Storj StorjObjectstore `yaml:"storj" mapstructure:"storj" validate:"required_if=Type storj"`
	S3    S3Objectstore    `yaml:"s3" mapstructure:"s3" validate:"required_if=Type s3"`
	Cache CacheObjectstore `yaml:"cache" mapstructure:"cache"`
}

type LocalObjectstore struct {
	Root string `yaml:"root" mapstructure:"root" validate:"required"`
}

type StorjObjectstore struct {
	AccessGrant string `yaml:"accessGrant" mapstructure:"accessGrant"`
	Bucket      string `yaml:"bucket" mapstructure:"bucket"`
}

type S3Objectstore struct {
	AccessKeyID     string `yaml:"accessKeyID" mapstructure:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey" mapstructure:"secretAccessKey"`
	Region          string `yaml:"region" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Endpoint        string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,url"`
}

// CacheObjectstore keeps a local LRU copy of blobs stored in a remote backend.
type CacheObjectstore struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	MaxSize string `yaml:"maxSize" mapstructure:"maxSize"`
}

type Upload struct {
	ChunkSize      string        `yaml:"chunkSize" mapstructure:"chunkSize" validate:"required"`
	MinChunkSize   string        `yaml:"minChunkSize" mapstructure:"minChunkSize" validate:"required"`
	ChunkThreshold string        `yaml:"chunkThreshold" mapstructure:"chunkThreshold" validate:"required"`
	MaxFileSize    string        `yaml:"maxFileSize" mapstructure:"maxFileSize" validate:"required"`
	SessionTTL     time.Duration `yaml:"sessionTTL" mapstructure:"sessionTTL" validate:"required,gt=0"`
	SweepInterval  time.Duration `yaml:"sweepInterval" mapstructure:"sweepInterval" validate:"required,gt=0"`
	Retention      time.Duration `yaml:"retention" mapstructure:"retention" validate:"gte=0"`
}

type Storage struct {
	MaxStorage       string        `yaml:"maxStorage" mapstructure:"maxStorage" validate:"required"`
	EnableExpiration bool          `yaml:"enableExpiration" mapstructure:"enableExpiration"`
	DefaultTTL       time.Duration `yaml:"defaultTTL" mapstructure:"defaultTTL" validate:"gte=0"`
	MaxTTL           time.Duration `yaml:"maxTTL" mapstructure:"maxTTL" validate:"gte=0"`
	CleanupInterval  time.Duration `yaml:"cleanupInterval" mapstructure:"cleanupInterval" validate:"required,gt=0"`
	Compression      Compression   `yaml:"compression" mapstructure:"compression"`
}

type Compression struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Level     int    `yaml:"level" mapstructure:"level" validate:"gte=1,lte=4"`
	Threshold string `yaml:"threshold" mapstructure:"threshold" validate:"required"`
}
