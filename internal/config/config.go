package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fjod/go_cart/cart-store/internal/storage"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

type Config struct {
	HTTPPort string `yaml:"http_port"`
	// GRPCPort serves the health service; empty disables it.
	GRPCPort  string `yaml:"grpc_port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	HealthInterval  time.Duration `yaml:"health_interval"`

	Storage StorageConfig `yaml:"storage"`
}

type StorageConfig struct {
	Backend        string        `yaml:"backend"`
	Key            string        `yaml:"key"`
	BreakerEnabled bool          `yaml:"breaker_enabled"`
	TTL            time.Duration `yaml:"ttl"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	MongoURI    string `yaml:"mongo_uri"`
	MongoDBName string `yaml:"mongo_db_name"`
}

func Default() Config {
	return Config{
		HTTPPort:        "8080",
		GRPCPort:        "",
		LogLevel:        "info",
		LogFormat:       "json",
		RequestTimeout:  10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		HealthInterval:  5 * time.Second,
		Storage: StorageConfig{
			Backend:        BackendMemory,
			Key:            storage.DefaultKey,
			BreakerEnabled: true,
			RedisAddr:      "localhost:6379",
			MongoURI:       "mongodb://localhost:27017",
			MongoDBName:    "cartdb",
		},
	}
}

// Load starts from Default, applies the YAML file at path (if any) and then
// environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = getEnv("GRPC_PORT", cfg.GRPCPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.HealthInterval = getEnvDuration("HEALTH_INTERVAL", cfg.HealthInterval)

	s := &cfg.Storage
	s.Backend = getEnv("STORAGE_BACKEND", s.Backend)
	s.Key = getEnv("STORAGE_KEY", s.Key)
	s.BreakerEnabled = getEnvBool("BREAKER_ENABLED", s.BreakerEnabled)
	s.TTL = getEnvDuration("STORAGE_TTL", s.TTL)
	s.RedisAddr = getEnv("REDIS_ADDR", s.RedisAddr)
	s.RedisPassword = getEnv("REDIS_PASSWORD", s.RedisPassword)
	s.RedisDB = getEnvInt("REDIS_DB", s.RedisDB)
	s.MongoURI = getEnv("MONGO_URI", s.MongoURI)
	s.MongoDBName = getEnv("MONGO_DB_NAME", s.MongoDBName)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return errors.New("storage key must not be empty")
	}
	if c.HTTPPort == "" {
		return errors.New("http port must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return d
}
