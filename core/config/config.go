package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port int
		Env  string
	}

	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	JWT struct {
		Secret string
	}

	GoogleAPI struct {
		ClientID     string
		ClientSecret string
		RedirectURI  string
	}

	Calendar struct {
		TimeZone string
	}

	S3 struct {
		Endpoint  string
		Region    string
		Bucket    string
		AccessKey string
		SecretKey string
	}
}

var (
	mu       sync.RWMutex
	instance *Config
)

// Load reads configuration from the environment (optionally seeded by a .env
// file loaded in server.Run) and stores the singleton.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 7070)
	v.SetDefault("server.env", "development")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "bookline")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("calendar.timezone", "America/Sao_Paulo")
	v.SetDefault("s3.region", "us-east-1")

	cfg := &Config{}
	cfg.Server.Port = v.GetInt("server.port")
	cfg.Server.Env = v.GetString("server.env")
	cfg.Database.Host = v.GetString("database.host")
	cfg.Database.Port = v.GetInt("database.port")
	cfg.Database.User = v.GetString("database.user")
	cfg.Database.Password = v.GetString("database.password")
	cfg.Database.Name = v.GetString("database.name")
	cfg.Database.SSLMode = v.GetString("database.sslmode")
	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")
	cfg.JWT.Secret = v.GetString("jwt.secret")
	cfg.GoogleAPI.ClientID = v.GetString("google.client.id")
	cfg.GoogleAPI.ClientSecret = v.GetString("google.client.secret")
	cfg.GoogleAPI.RedirectURI = v.GetString("google.redirect.uri")
	cfg.Calendar.TimeZone = v.GetString("calendar.timezone")
	cfg.S3.Endpoint = v.GetString("s3.endpoint")
	cfg.S3.Region = v.GetString("s3.region")
	cfg.S3.Bucket = v.GetString("s3.bucket")
	cfg.S3.AccessKey = v.GetString("s3.access.key")
	cfg.S3.SecretKey = v.GetString("s3.secret.key")

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	Set(cfg)
	return cfg, nil
}

// Set replaces the singleton. Exposed for tests.
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// Get returns the loaded config. Panics when Load has not run.
func Get() *Config {
	cfg, ok := GetSafe()
	if !ok {
		panic("config: not initialized, call config.Load first")
	}
	return cfg
}

// GetSafe returns the loaded config without panicking.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		return nil, false
	}
	return instance, true
}
