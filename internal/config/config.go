package config

import (
	"alcyxob/coaching-plans/internal/domain"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers accepted in database.driver.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Locale   LocaleConfig   `mapstructure:"locale"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "mongo" or "memory"
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Enabled reports whether catalog images can be stored. Without a bucket
// the server runs with image features turned off.
func (c S3Config) Enabled() bool {
	return c.BucketName != ""
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"` // Duration string in config, e.g. "60m"
}

// LocaleConfig selects the display locale used when a request names none.
type LocaleConfig struct {
	Default string `mapstructure:"default"`
}

// DefaultLocale returns the configured default as a domain.Locale,
// falling back to domain.DefaultLocale when it is unset or unsupported.
func (c LocaleConfig) DefaultLocale() domain.Locale {
	l := domain.Locale(strings.ToLower(strings.TrimSpace(c.Default)))
	if l.Supported() {
		return l
	}
	return domain.DefaultLocale
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in path, when present, is loaded into the environment first;
// variables already set in the environment win over it.
func LoadConfig(path string) (config Config, err error) {
	envFile := filepath.Join(path, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, jwt.expiration -> JWT_EXPIRATION
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "coaching_plans")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("locale.default", string(domain.DefaultLocale))

	// A missing config file is fine; env vars and defaults cover everything.
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, err
		}
		log.Println("INFO: No config file found, using defaults and environment variables.")
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, err
	}
	if err = config.validate(); err != nil {
		return config, err
	}
	return config, nil
}

func (c *Config) validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.URI == "" || c.Database.Name == "" {
			return errors.New("database.uri and database.name are required for the mongo driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database.driver %q (want %s or %s)", c.Database.Driver, DriverMongo, DriverMemory)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.JWT.Expiration <= 0 {
		return fmt.Errorf("jwt.expiration must be positive, got %s", c.JWT.Expiration)
	}
	if c.Locale.Default != "" && !domain.Locale(strings.ToLower(c.Locale.Default)).Supported() {
		log.Printf("WARN: Unsupported locale.default %q, using %s", c.Locale.Default, domain.DefaultLocale)
	}
	return nil
}
