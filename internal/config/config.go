// Package config loads the store-service configuration from layered sources:
// configs/base.yaml, an optional configs/<env>.yaml and STORE_* environment
// variables, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

const EnvPrefix = "STORE_"

// Sink names accepted in notify.sinks.
const (
	SinkLog       = "log"
	SinkRabbitMQ  = "rabbitmq"
	SinkKafka     = "kafka"
	SinkWebsocket = "websocket"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		Env      string `koanf:"env"`
		HTTPAddr string `koanf:"http_addr"`
		GRPCAddr string `koanf:"grpc_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	Database struct {
		Driver       string `koanf:"driver"`
		DSN          string `koanf:"dsn"`
		MaxOpenConns int    `koanf:"max_open_conns"`
	} `koanf:"database"`

	Redis struct {
		Enabled  bool   `koanf:"enabled"`
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Inventory struct {
		LowStockThreshold int           `koanf:"low_stock_threshold"`
		CheckInterval     time.Duration `koanf:"check_interval"`
	} `koanf:"inventory"`

	Wallet struct {
		InitialBalance string `koanf:"initial_balance"`
	} `koanf:"wallet"`

	Notify struct {
		Sinks   []string      `koanf:"sinks"`
		Timeout time.Duration `koanf:"timeout"`

		RabbitMQ struct {
			URL      string `koanf:"url"`
			Exchange string `koanf:"exchange"`
		} `koanf:"rabbitmq"`

		Kafka struct {
			Brokers []string `koanf:"brokers"`
			Topic   string   `koanf:"topic"`
		} `koanf:"kafka"`

		Websocket struct {
			AllowedOrigins []string `koanf:"allowed_origins"`
		} `koanf:"websocket"`
	} `koanf:"notify"`

	Security struct {
		JWTSecret string `koanf:"jwt_secret"`
		Issuer    string `koanf:"issuer"`
		Audience  string `koanf:"audience"`
	} `koanf:"security"`

	Telemetry struct {
		Enabled  bool   `koanf:"enabled"`
		Endpoint string `koanf:"endpoint"`
	} `koanf:"telemetry"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// Per-environment overrides are optional for local runs.
	if envName != "" {
		_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())
	}

	// STORE_DATABASE__DSN -> database.dsn
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if cfg.App.Env == "" {
		cfg.App.Env = envName
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("database.driver must be sqlite or mysql, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn required")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr required when redis is enabled")
	}
	if c.Inventory.LowStockThreshold < 0 {
		return fmt.Errorf("inventory.low_stock_threshold must not be negative")
	}
	if _, err := c.InitialBalance(); err != nil {
		return err
	}
	for _, s := range c.Notify.Sinks {
		switch s {
		case SinkLog, SinkWebsocket:
		case SinkRabbitMQ:
			if c.Notify.RabbitMQ.URL == "" {
				return fmt.Errorf("notify.rabbitmq.url required for the rabbitmq sink")
			}
		case SinkKafka:
			if len(c.Notify.Kafka.Brokers) == 0 {
				return fmt.Errorf("notify.kafka.brokers required for the kafka sink")
			}
		default:
			return fmt.Errorf("notify.sinks: unknown sink %q", s)
		}
	}
	return nil
}

// InitialBalance parses wallet.initial_balance. Empty means the service
// default.
func (c Config) InitialBalance() (decimal.Decimal, error) {
	if c.Wallet.InitialBalance == "" {
		return decimal.Decimal{}, nil
	}
	d, err := decimal.NewFromString(c.Wallet.InitialBalance)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("wallet.initial_balance: %w", err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("wallet.initial_balance must not be negative")
	}
	return d, nil
}

// HasSink reports whether name is listed in notify.sinks.
func (c Config) HasSink(name string) bool {
	for _, s := range c.Notify.Sinks {
		if s == name {
			return true
		}
	}
	return false
}
