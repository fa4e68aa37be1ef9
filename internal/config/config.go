package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/calculator"
)

type Config struct {
	Server   ServerConfig  `toml:"server"`
	Pricing  PricingConfig `toml:"pricing"`
	Kafka    KafkaConfig   `toml:"kafka"`
	Features FeatureFlags  `toml:"features"`
	Log      LogConfig     `toml:"log"`
}

type ServerConfig struct {
	Port         int           `toml:"port"`
	ReadTimeout  time.Duration `toml:"-"`
	WriteTimeout time.Duration `toml:"-"`
}

// PricingConfig holds the business parameters of the calculator.
type PricingConfig struct {
	TaxRate               float64 `toml:"tax_rate"`
	FreeShippingThreshold float64 `toml:"free_shipping_threshold"`
	ShippingCost          float64 `toml:"shipping_cost"`
	PriceTolerance        float64 `toml:"price_tolerance"`
}

// NewCalculator builds an empty calculator from the pricing parameters.
func (p PricingConfig) NewCalculator() (*calculator.OrderCalculator, error) {
	return calculator.New(
		p.TaxRate,
		p.FreeShippingThreshold,
		p.ShippingCost,
		calculator.WithPriceTolerance(p.PriceTolerance),
	)
}

type KafkaConfig struct {
	Brokers      []string `toml:"brokers"`
	PricingTopic string   `toml:"pricing_topic"`
}

type FeatureFlags struct {
	EnableOrderEvents bool `toml:"enable_order_events"`
	EnableMetrics     bool `toml:"enable_metrics"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Pricing: PricingConfig{
			TaxRate:               getEnvFloat("PRICING_TAX_RATE", calculator.DefaultTaxRate),
			FreeShippingThreshold: getEnvFloat("PRICING_FREE_SHIPPING_THRESHOLD", calculator.DefaultFreeShippingThreshold),
			ShippingCost:          getEnvFloat("PRICING_SHIPPING_COST", calculator.DefaultShippingCost),
			PriceTolerance:        getEnvFloat("PRICING_PRICE_TOLERANCE", calculator.DefaultPriceTolerance),
		},
		Kafka: KafkaConfig{
			Brokers:      getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			PricingTopic: getEnvString("KAFKA_PRICING_TOPIC", "cart.pricing"),
		},
		Features: FeatureFlags{
			EnableOrderEvents: getEnvBool("FEATURE_ORDER_EVENTS", false),
			EnableMetrics:     getEnvBool("FEATURE_METRICS", true),
		},
		Log: LogConfig{
			Level: getEnvString("LOG_LEVEL", "info"),
		},
	}
}

// LoadFile loads env config and overlays the TOML file at path. Keys absent
// from the file keep their env or default value.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the pricing parameters form a valid calculator.
func (c *Config) Validate() error {
	if _, err := c.Pricing.NewCalculator(); err != nil {
		return fmt.Errorf("invalid pricing config: %w", err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Features.EnableOrderEvents && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("order events enabled but no kafka brokers configured")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
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
