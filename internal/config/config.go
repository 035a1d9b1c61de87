package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/storefront/internal/log"
)

type Application struct {
	Env       string `mapstructure:"env"        json:"env"`
	Host      string `mapstructure:"host"       json:"host"`
	SecretKey string `mapstructure:"secret_key" json:"-"`
	Port      int    `mapstructure:"port"       json:"port"`
}

type Database struct {
	Name           string `mapstructure:"name"            json:"name"`
	Host           string `mapstructure:"host"            json:"host"`
	MigrationPath  string `mapstructure:"migration_path"  json:"migration_path"`
	Password       string `mapstructure:"password"        json:"-"`
	Username       string `mapstructure:"username"        json:"username"`
	MaxConnections int32  `mapstructure:"max_connections" json:"max_connections"`
	MinConnections int32  `mapstructure:"min_connections" json:"min_connections"`
	Port           uint16 `mapstructure:"port"            json:"port"`
}

type Cache struct {
	Host     string `mapstructure:"host"     json:"host"`
	Password string `mapstructure:"password" json:"-"`
	Database int    `mapstructure:"database" json:"database"`
	Port     uint16 `mapstructure:"port"     json:"port"`
}

type Otel struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

type Broker struct {
	URL      string `mapstructure:"url"      json:"-"`
	Exchange string `mapstructure:"exchange" json:"exchange"`
}

type Catalog struct {
	BaseURL             string        `mapstructure:"base_url"             json:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"              json:"timeout"`
	MaxConsecutiveFails uint32        `mapstructure:"max_consecutive_fails" json:"max_consecutive_fails"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout"         json:"open_timeout"`
}

type Cart struct {
	SnapshotTTL      time.Duration `mapstructure:"snapshot_ttl"      json:"snapshot_ttl"`
	EvictionInterval time.Duration `mapstructure:"eviction_interval" json:"eviction_interval"`
}

type RateLimit struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second" json:"requests_per_second"`
	Burst             int           `mapstructure:"burst"               json:"burst"`
	ClientTTL         time.Duration `mapstructure:"client_ttl"          json:"client_ttl"`
}

type Config struct {
	Database    `mapstructure:"db"          json:"db"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Application `mapstructure:"application" json:"application"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Broker      `mapstructure:"broker"      json:"broker"`
	Catalog     `mapstructure:"catalog"     json:"catalog"`
	Cart        `mapstructure:"cart"        json:"cart"`
	RateLimit   `mapstructure:"rate_limit"  json:"rate_limit"`
}

var (
	once   sync.Once
	config *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "production")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 8080)
	v.SetDefault("db.migration_path", "file://migrations")
	v.SetDefault("db.max_connections", 10)
	v.SetDefault("db.min_connections", 2)
	v.SetDefault("otel.host", "otel-collector")
	v.SetDefault("otel.port", 4317)
	v.SetDefault("broker.exchange", "storefront.events")
	v.SetDefault("catalog.timeout", 5*time.Second)
	v.SetDefault("catalog.max_consecutive_fails", 5)
	v.SetDefault("catalog.open_timeout", 30*time.Second)
	v.SetDefault("cart.snapshot_ttl", 24*time.Hour)
	v.SetDefault("cart.eviction_interval", 5*time.Minute)
	v.SetDefault("rate_limit.requests_per_second", 2)
	v.SetDefault("rate_limit.burst", 5)
	v.SetDefault("rate_limit.client_ttl", 10*time.Minute)
}

// Load reads <filename>.yaml from the given paths. Environment variables override
// file values, e.g. DB_HOST overrides db.host.
func Load(filename string, paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error when reading config with error=%w", err)
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config with error=%w", err)
	}
	return &cfg, nil
}

func InitConfig(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		logger.Info().Msg("reading config")
		cfg, err := Load(filename, "./env")
		if err != nil {
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = cfg
		logger.Info().Any(log.KeyConfig, cfg).Msg("read config")
	})
	return config
}
