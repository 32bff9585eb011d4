package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/fjod/storefront-cart/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type Config struct {
	HTTPPort        string        `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"sqlite"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"./storefront-cart.db"`

	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisTTL      time.Duration `env:"REDIS_TTL" envDefault:"0s"`

	MongoURI    string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDBName string        `env:"MONGO_DB_NAME" envDefault:"storefront"`
	MongoTTL    time.Duration `env:"MONGO_TTL" envDefault:"0s"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"checkout-completed"`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"storefront-cart"`

	ShippingFee decimal.Decimal `env:"SHIPPING_FEE" envDefault:"49.99"`
	TaxRate     decimal.Decimal `env:"TAX_RATE" envDefault:"0.08"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Pricing returns the shipping and tax rules.
func (c Config) Pricing() domain.Pricing {
	return domain.Pricing{
		ShippingFee: c.ShippingFee,
		TaxRate:     c.TaxRate,
	}
}

func (c Config) validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendSQLite, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.ShippingFee.IsNegative() {
		return fmt.Errorf("SHIPPING_FEE must not be negative, got %s", c.ShippingFee)
	}
	if c.TaxRate.IsNegative() {
		return fmt.Errorf("TAX_RATE must not be negative, got %s", c.TaxRate)
	}
	return nil
}
