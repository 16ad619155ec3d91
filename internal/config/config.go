package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MoveMate/service-booking/pkg/database"
	"github.com/spf13/viper"
)

const envPrefix = "BOOKING"

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverFile     = "file"
)

// JWTConfig holds token settings shared with the auth service.
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// KafkaConfig holds broker settings. No brokers disables events.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RedisConfig holds staging slot settings. An empty Addr keeps slots in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StoreConfig selects where confirmed bookings live.
type StoreConfig struct {
	Driver   string
	FilePath string
}

// GeocoderConfig points at a Nominatim-compatible API.
type GeocoderConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// TrackingConfig tunes tracking ids and live sessions.
type TrackingConfig struct {
	TickInterval time.Duration
	IDStrategy   string
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port       string
	AppEnv     string
	DBConfig   database.PostgresConfig
	JWT        JWTConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	Store      StoreConfig
	Geocoder   GeocoderConfig
	Tracking   TrackingConfig
	PendingTTL time.Duration
	// CORSOrigins lists browser origins allowed to call the API; "*" allows all.
	CORSOrigins []string
}

// IsDevelopment reports whether the service runs in development mode.
func (c *ServiceConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads configuration from BOOKING_* environment variables and an
// optional config.yaml found in any of paths.
func Load(paths ...string) (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if len(paths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &ServiceConfig{
		Port:   v.GetString("SERVICE_PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			AccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL: v.GetDuration("JWT_REFRESH_TTL"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Store: StoreConfig{
			Driver:   strings.ToLower(v.GetString("STORE_DRIVER")),
			FilePath: v.GetString("STORE_FILE_PATH"),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   v.GetString("GEOCODER_BASE_URL"),
			Timeout:   v.GetDuration("GEOCODER_TIMEOUT"),
			UserAgent: v.GetString("GEOCODER_USER_AGENT"),
		},
		Tracking: TrackingConfig{
			TickInterval: v.GetDuration("TRACKING_TICK_INTERVAL"),
			IDStrategy:   strings.ToLower(v.GetString("TRACKING_ID_STRATEGY")),
		},
		PendingTTL:  v.GetDuration("PENDING_TTL"),
		CORSOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *ServiceConfig) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres:
	case StoreDriverFile:
		if c.Store.FilePath == "" {
			return errors.New("STORE_FILE_PATH is required for the file store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Tracking.IDStrategy {
	case "timestamp", "uuid":
	default:
		return fmt.Errorf("unknown TRACKING_ID_STRATEGY %q", c.Tracking.IDStrategy)
	}

	if c.Tracking.TickInterval <= 0 {
		return errors.New("TRACKING_TICK_INTERVAL must be positive")
	}
	if c.Geocoder.Timeout <= 0 {
		return errors.New("GEOCODER_TIMEOUT must be positive")
	}
	for _, origin := range c.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS entry %q needs an http:// or https:// scheme", origin)
		}
	}
	if c.JWT.Secret == "" && !c.IsDevelopment() {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", "8002")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "movemate_booking")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL", 15*time.Minute)
	v.SetDefault("JWT_REFRESH_TTL", 7*24*time.Hour)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_GROUP_PREFIX", "movemate")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("STORE_FILE_PATH", "data/bookings.json")

	v.SetDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_TIMEOUT", 5*time.Second)
	v.SetDefault("GEOCODER_USER_AGENT", "movemate-service-booking/1.0")

	v.SetDefault("TRACKING_TICK_INTERVAL", 3*time.Second)
	v.SetDefault("TRACKING_ID_STRATEGY", "timestamp")

	v.SetDefault("PENDING_TTL", 24*time.Hour)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
