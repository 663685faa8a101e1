package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	LogLevel  string
	Store     StoreConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
	// ReconcileConcurrency bounds per-request store fan-out; 0 is unbounded.
	ReconcileConcurrency int
}

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type StoreConfig struct {
	Driver     string
	SQLitePath string
	Redis      RedisConfig
	MongoDB    MongoDBConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type TracingConfig struct {
	Exporter     string
	OTLPEndpoint string
	ServiceName  string
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Load reads configuration from the environment, after loading envFiles
// (default ".env") into it. Missing env files are ignored; variables already
// set in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("READ_TIMEOUT", "30s")
	v.SetDefault("WRITE_TIMEOUT", "30s")
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverMemory)
	v.SetDefault("SQLITE_PATH", "data/todos.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "todo:")
	v.SetDefault("MONGODB_DATABASE", "todos")
	v.SetDefault("MONGODB_COLLECTION", "todos")
	v.SetDefault("MONGODB_TIMEOUT", "10s")
	v.SetDefault("RATE_LIMIT_RPS", 0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("TRACING_EXPORTER", ExporterNone)
	v.SetDefault("SERVICE_NAME", "todos-api")
	v.SetDefault("RECONCILE_CONCURRENCY", 0)

	addr := v.GetString("SERVER_ADDR")
	// PORT, as set by most hosting platforms, overrides the listen port.
	if port := strings.TrimSpace(v.GetString("PORT")); port != "" {
		addr = ":" + strings.TrimPrefix(port, ":")
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:            addr,
			ReadTimeout:     v.GetDuration("READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("WRITE_TIMEOUT"),
			RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
			AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		LogLevel: strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		Store: StoreConfig{
			Driver:     strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
			SQLitePath: v.GetString("SQLITE_PATH"),
			Redis: RedisConfig{
				Addr:     v.GetString("REDIS_ADDR"),
				Password: v.GetString("REDIS_PASSWORD"),
				DB:       v.GetInt("REDIS_DB"),
				Prefix:   v.GetString("REDIS_PREFIX"),
			},
			MongoDB: MongoDBConfig{
				URI:        v.GetString("MONGODB_URI"),
				Database:   v.GetString("MONGODB_DATABASE"),
				Collection: v.GetString("MONGODB_COLLECTION"),
				Timeout:    v.GetDuration("MONGODB_TIMEOUT"),
			},
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Tracing: TracingConfig{
			Exporter:     strings.ToLower(strings.TrimSpace(v.GetString("TRACING_EXPORTER"))),
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  v.GetString("SERVICE_NAME"),
		},
		ReconcileConcurrency: v.GetInt("RECONCILE_CONCURRENCY"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite, DriverRedis:
	case DriverMongo:
		if c.Store.MongoDB.URI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_DRIVER=%s", DriverMongo)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Tracing.Exporter {
	case "", ExporterNone, ExporterStdout, ExporterOTLP:
	default:
		return fmt.Errorf("unknown TRACING_EXPORTER %q", c.Tracing.Exporter)
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.Server.RequestTimeout)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
