package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Unlocker UnlockerConfig
	Cache    CacheConfig
	Shopping ShoppingConfig
	Tracker  TrackerConfig
	Relay    RelayConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// UnlockerConfig configures the web unlocker proxy that returns rendered HTML
// for a target URL.
type UnlockerConfig struct {
	APIURL            string
	Token             string
	Zone              string
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	RequestsPerSecond float64
	Burst             int
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type ShoppingConfig struct {
	Concurrency      int
	DefaultPlatforms []string
}

type TrackerConfig struct {
	WorkerEnabled   bool
	Interval        time.Duration
	Concurrency     int
	UpdateBatchSize int
	BatchDelay      time.Duration
}

type RelayConfig struct {
	Enabled      bool
	PollInterval time.Duration
	BatchSize    int
	MaxStreamLen int64
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvInt("PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			RequestTimeout:  getEnvDuration("SERVER_REQUEST_TIMEOUT", 110*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "price_tracker"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Unlocker: UnlockerConfig{
			APIURL:            getEnv("UNLOCKER_API_URL", "https://api.brightdata.com/request"),
			Token:             getEnv("BRIGHT_DATA_API_TOKEN", ""),
			Zone:              getEnv("WEB_UNLOCKER_ZONE", "ecommerce_tracker"),
			UserAgent:         getEnv("UNLOCKER_USER_AGENT", "price-tracker/1.0.0"),
			Timeout:           getEnvDuration("UNLOCKER_TIMEOUT", 60*time.Second),
			MaxRetries:        getEnvInt("UNLOCKER_MAX_RETRIES", 2),
			RetryDelay:        getEnvDuration("UNLOCKER_RETRY_DELAY", time.Second),
			RequestsPerSecond: getEnvFloat("UNLOCKER_RATE_LIMIT", 5),
			Burst:             getEnvInt("UNLOCKER_BURST", 5),
		},
		Cache: CacheConfig{
			Enabled: getEnvBool("HTML_CACHE_ENABLED", true),
			TTL:     getEnvDuration("HTML_CACHE_TTL", 15*time.Minute),
		},
		Shopping: ShoppingConfig{
			Concurrency:      getEnvInt("SHOPPING_CONCURRENCY", 3),
			DefaultPlatforms: getEnvSlice("SHOPPING_DEFAULT_PLATFORMS", []string{"amazon", "ebay", "walmart"}),
		},
		Tracker: TrackerConfig{
			WorkerEnabled:   getEnvBool("TRACKER_WORKER_ENABLED", false),
			Interval:        getEnvDuration("TRACKER_INTERVAL", time.Hour),
			Concurrency:     getEnvInt("TRACKER_CONCURRENCY", 5),
			UpdateBatchSize: getEnvInt("TRACKER_UPDATE_BATCH", 10),
			BatchDelay:      getEnvDuration("TRACKER_BATCH_DELAY", 100*time.Millisecond),
		},
		Relay: RelayConfig{
			Enabled:      getEnvBool("RELAY_ENABLED", true),
			PollInterval: getEnvDuration("RELAY_POLL_INTERVAL", 5*time.Second),
			BatchSize:    getEnvInt("RELAY_BATCH_SIZE", 100),
			MaxStreamLen: int64(getEnvInt("RELAY_STREAM_MAX_LEN", 100000)),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database host is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, errors.New("database name is required"))
	}
	if c.Unlocker.Token == "" {
		errs = append(errs, errors.New("BRIGHT_DATA_API_TOKEN is required"))
	}
	if c.Unlocker.Zone == "" {
		errs = append(errs, errors.New("WEB_UNLOCKER_ZONE must not be empty"))
	}
	if c.Unlocker.MaxRetries < 0 {
		errs = append(errs, errors.New("UNLOCKER_MAX_RETRIES must not be negative"))
	}
	if c.Unlocker.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("UNLOCKER_RATE_LIMIT must be positive"))
	}
	if c.Shopping.Concurrency < 1 {
		errs = append(errs, errors.New("SHOPPING_CONCURRENCY must be at least 1"))
	}
	if c.Tracker.Concurrency < 1 {
		errs = append(errs, errors.New("TRACKER_CONCURRENCY must be at least 1"))
	}
	if c.Tracker.UpdateBatchSize < 1 {
		errs = append(errs, errors.New("TRACKER_UPDATE_BATCH must be at least 1"))
	}
	if c.Tracker.WorkerEnabled && c.Tracker.Interval <= 0 {
		errs = append(errs, errors.New("TRACKER_INTERVAL must be positive when the worker is enabled"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
