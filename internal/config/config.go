package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AvatarBackend string

const (
	AvatarBackendLocal AvatarBackend = "local"
	AvatarBackendS3    AvatarBackend = "s3"
)

// Config holds the configuration of the LinkHub server.
type Config struct {
	// Listen is the address the HTTP server binds to.
	Listen string `mapstructure:"listen"`
	// AllowedOrigins are the origins allowed by the CORS policy.
	AllowedOrigins []string       `mapstructure:"allowed_origins"`
	Log            LogConfig      `mapstructure:"log"`
	Database       DatabaseConfig `mapstructure:"database"`
	Auth           AuthConfig     `mapstructure:"auth"`
	Avatar         AvatarConfig   `mapstructure:"avatar"`
	Storage        StorageConfig  `mapstructure:"storage"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	// Path is the SQLite database file.
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	// JWTSecret signs the bearer tokens.
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenTTL is how long an issued token stays valid.
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	// BcryptCost is the bcrypt work factor.
	BcryptCost int `mapstructure:"bcrypt_cost"`
	// InviteCode, when set, is required to register.
	InviteCode string `mapstructure:"invite_code"`
}

type AvatarConfig struct {
	// MaxBytes is the upload size limit.
	MaxBytes int64 `mapstructure:"max_bytes"`
	// Size is the edge length of the stored square avatar.
	Size int `mapstructure:"size"`
	// MaxPixels caps the decoded width*height of an upload.
	MaxPixels int64 `mapstructure:"max_pixels"`
}

type StorageConfig struct {
	Avatar AvatarStorageConfig `mapstructure:"avatar"`
}

type AvatarStorageConfig struct {
	Backend AvatarBackend      `mapstructure:"backend"`
	Local   LocalStorageConfig `mapstructure:"local"`
	S3      S3StorageConfig    `mapstructure:"s3"`
}

type LocalStorageConfig struct {
	Dir          string `mapstructure:"dir"`
	PublicPrefix string `mapstructure:"public_prefix"`
}

type S3StorageConfig struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	PublicURL string `mapstructure:"public_url"`
}

// Load reads the configuration from defaults, an optional config file and LINKHUB_* env vars.
// A .env file in the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded", "error", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LINKHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/linkhub")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("no config file found, using defaults and environment")
	} else {
		log.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":5000")
	v.SetDefault("allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("log.level", "info")
	v.SetDefault("database.path", "./data/linkhub.db")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.invite_code", "")

	v.SetDefault("avatar.max_bytes", 5<<20)
	v.SetDefault("avatar.size", 400)
	v.SetDefault("avatar.max_pixels", 25_000_000)

	v.SetDefault("storage.avatar.backend", string(AvatarBackendLocal))
	v.SetDefault("storage.avatar.local.dir", "./data/uploads/avatars")
	v.SetDefault("storage.avatar.local.public_prefix", "/uploads/avatars")
	v.SetDefault("storage.avatar.s3.bucket", "")
	v.SetDefault("storage.avatar.s3.region", "us-east-1")
	v.SetDefault("storage.avatar.s3.endpoint", "")
	v.SetDefault("storage.avatar.s3.access_key", "")
	v.SetDefault("storage.avatar.s3.secret_key", "")
	v.SetDefault("storage.avatar.s3.public_url", "")
}

func (c *Config) validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Avatar.MaxPixels <= 0 {
		return errors.New("avatar.max_pixels must be positive")
	}
	switch c.Storage.Avatar.Backend {
	case AvatarBackendLocal:
		if c.Storage.Avatar.Local.Dir == "" {
			return errors.New("storage.avatar.local.dir is required")
		}
	case AvatarBackendS3:
		if c.Storage.Avatar.S3.Bucket == "" {
			return errors.New("storage.avatar.s3.bucket is required")
		}
	default:
		return fmt.Errorf("unknown avatar storage backend %q", c.Storage.Avatar.Backend)
	}
	return nil
}
