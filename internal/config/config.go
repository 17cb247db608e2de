package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete sushikoi configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Shop      ShopConfig      `mapstructure:"shop"`
	Packing   PackingConfig   `mapstructure:"packing"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// GinMode is passed to gin.SetMode: "debug", "release" or "test"
	GinMode         string        `mapstructure:"gin_mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects the key-value backend
type StorageConfig struct {
	// Driver is one of "memory", "sqlite", "postgres"
	Driver     string         `mapstructure:"driver"`
	SQLitePath string         `mapstructure:"sqlite_path"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds connection settings for the postgres driver
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// File is the log file path; empty means stderr
	File string `mapstructure:"file"`
}

// GeocodingConfig configures the Nominatim client
type GeocodingConfig struct {
	SearchURL  string `mapstructure:"search_url"`
	ReverseURL string `mapstructure:"reverse_url"`
	// UserAgent identifies the client as required by the Nominatim usage policy
	UserAgent    string `mapstructure:"user_agent"`
	CountryCodes string `mapstructure:"country_codes"`
	// Viewbox is "lon_min,lat_max,lon_max,lat_min" around the delivery area
	Viewbox string        `mapstructure:"viewbox"`
	Limit   int           `mapstructure:"limit"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RoutingConfig configures the OSRM client
type RoutingConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Profile string        `mapstructure:"profile"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ShopConfig describes the restaurant the deliveries start from
type ShopConfig struct {
	Name        string  `mapstructure:"name"`
	OriginLat   float64 `mapstructure:"origin_lat"`
	OriginLng   float64 `mapstructure:"origin_lng"`
	DefaultCity string  `mapstructure:"default_city"`
	Region      string  `mapstructure:"region"`
}

// PackingConfig controls the packing countdown
type PackingConfig struct {
	Duration time.Duration `mapstructure:"duration"`
	Tick     time.Duration `mapstructure:"tick"`
}

// NotifyConfig selects where order events go
type NotifyConfig struct {
	// Driver is one of "none", "log", "amqp"
	Driver string     `mapstructure:"driver"`
	AMQP   AMQPConfig `mapstructure:"amqp"`
}

// AMQPConfig holds RabbitMQ connection settings
type AMQPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	VHost    string `mapstructure:"vhost"`
	Exchange string `mapstructure:"exchange"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":9091",
			GinMode:         "release",
			ShutdownTimeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "sushikoi.db",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Geocoding: GeocodingConfig{
			SearchURL:    "https://nominatim.openstreetmap.org/search",
			ReverseURL:   "https://nominatim.openstreetmap.org/reverse",
			UserAgent:    "SushiKoi-Delivery/1.0 (iacortex)",
			CountryCodes: "cl",
			Viewbox:      "-73.2000,-41.3500,-72.8000,-41.6000",
			Limit:        5,
			Timeout:      10 * time.Second,
		},
		Routing: RoutingConfig{
			BaseURL: "https://router.project-osrm.org",
			Profile: "driving",
			Timeout: 10 * time.Second,
		},
		Shop: ShopConfig{
			Name:        "Sushikoi, Av. Capitán Ávalos 6130, Puerto Montt, Chile",
			OriginLat:   -41.46619826299714,
			OriginLng:   -72.99901571534275,
			DefaultCity: "Puerto Montt",
			Region:      "Los Lagos",
		},
		Packing: PackingConfig{
			Duration: 90 * time.Second,
			Tick:     500 * time.Millisecond,
		},
		Notify: NotifyConfig{
			Driver: "log",
			AMQP: AMQPConfig{
				Host:     "localhost",
				Port:     5672,
				VHost:    "/",
				Exchange: "orders_topic",
			},
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	d := Default()

	viper.SetDefault("server.addr", d.Server.Addr)
	viper.SetDefault("server.gin_mode", d.Server.GinMode)
	viper.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	viper.SetDefault("storage.driver", d.Storage.Driver)
	viper.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	viper.SetDefault("storage.postgres.host", d.Storage.Postgres.Host)
	viper.SetDefault("storage.postgres.port", d.Storage.Postgres.Port)
	viper.SetDefault("storage.postgres.user", d.Storage.Postgres.User)
	viper.SetDefault("storage.postgres.password", d.Storage.Postgres.Password)
	viper.SetDefault("storage.postgres.database", d.Storage.Postgres.Database)
	viper.SetDefault("storage.postgres.sslmode", d.Storage.Postgres.SSLMode)

	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.file", d.Logging.File)

	viper.SetDefault("geocoding.search_url", d.Geocoding.SearchURL)
	viper.SetDefault("geocoding.reverse_url", d.Geocoding.ReverseURL)
	viper.SetDefault("geocoding.user_agent", d.Geocoding.UserAgent)
	viper.SetDefault("geocoding.country_codes", d.Geocoding.CountryCodes)
	viper.SetDefault("geocoding.viewbox", d.Geocoding.Viewbox)
	viper.SetDefault("geocoding.limit", d.Geocoding.Limit)
	viper.SetDefault("geocoding.timeout", d.Geocoding.Timeout)

	viper.SetDefault("routing.base_url", d.Routing.BaseURL)
	viper.SetDefault("routing.profile", d.Routing.Profile)
	viper.SetDefault("routing.timeout", d.Routing.Timeout)

	viper.SetDefault("shop.name", d.Shop.Name)
	viper.SetDefault("shop.origin_lat", d.Shop.OriginLat)
	viper.SetDefault("shop.origin_lng", d.Shop.OriginLng)
	viper.SetDefault("shop.default_city", d.Shop.DefaultCity)
	viper.SetDefault("shop.region", d.Shop.Region)

	viper.SetDefault("packing.duration", d.Packing.Duration)
	viper.SetDefault("packing.tick", d.Packing.Tick)

	viper.SetDefault("notify.driver", d.Notify.Driver)
	viper.SetDefault("notify.amqp.host", d.Notify.AMQP.Host)
	viper.SetDefault("notify.amqp.port", d.Notify.AMQP.Port)
	viper.SetDefault("notify.amqp.user", d.Notify.AMQP.User)
	viper.SetDefault("notify.amqp.password", d.Notify.AMQP.Password)
	viper.SetDefault("notify.amqp.vhost", d.Notify.AMQP.VHost)
	viper.SetDefault("notify.amqp.exchange", d.Notify.AMQP.Exchange)
}

// Load reads the configuration from viper and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sushikoi")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sushikoi"
	}
	return filepath.Join(home, ".config", "sushikoi")
}
