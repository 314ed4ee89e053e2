package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/corray333/backend-labs/grocery/internal/service/pricing"
	"github.com/corray333/backend-labs/grocery/pkg/logger"
)

// MustInit loads .env (when present) and config.yaml from /etc/<serviceName>
// or the working directory, then installs the default logger.
func MustInit(serviceName string) {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}

	SetDefaults()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/" + serviceName)
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}
	SetupLogger()
}

// SetDefaults registers the fallback value of every tunable.
func SetDefaults() {
	viper.SetDefault("logger.level", "info")

	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.http.read_header_timeout", 5*time.Second)
	viper.SetDefault("server.http.cors.allowed_origins", []string{"*"})
	viper.SetDefault("server.http.cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	viper.SetDefault("server.http.cors.allowed_headers", []string{"Authorization", "Content-Type"})
	viper.SetDefault("server.http.cors.max_age", 300)

	viper.SetDefault("server.grpc.port", "9090")
	viper.SetDefault("server.grpc.keepalive.max_connection_idle", 15)
	viper.SetDefault("server.grpc.keepalive.max_connection_age", 30)
	viper.SetDefault("server.grpc.keepalive.max_connection_age_grace", 5)
	viper.SetDefault("server.grpc.keepalive.time", 5)
	viper.SetDefault("server.grpc.keepalive.timeout", 1)
	viper.SetDefault("server.grpc.keepalive.min_time", 5)
	viper.SetDefault("server.grpc.keepalive.permit_without_stream", true)

	viper.SetDefault("server.ws.port", "8081")

	viper.SetDefault("pricing.delivery_fee", "40.00")
	viper.SetDefault("pricing.free_delivery_threshold", "500.00")

	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.exchange", "orders.events")
	viper.SetDefault("rabbitmq.outbox.max_retries", 5)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.order_ttl", 5*time.Minute)

	viper.SetDefault("inbox.retention_hours", 72)
	viper.SetDefault("jaeger.enabled", false)
}

func SetupLogger() {
	handler := logger.NewHandler(os.Stdout, logger.ParseLevel(viper.GetString("logger.level")))
	log := slog.New(handler)
	slog.SetDefault(log)
}

// MustPricingConfig reads the delivery pricing tunables.
func MustPricingConfig() pricing.Config {
	cfg := pricing.DefaultConfig()

	fee, err := decimal.NewFromString(viper.GetString("pricing.delivery_fee"))
	if err != nil {
		panic(fmt.Sprintf("invalid pricing.delivery_fee: %v", err))
	}
	threshold, err := decimal.NewFromString(viper.GetString("pricing.free_delivery_threshold"))
	if err != nil {
		panic(fmt.Sprintf("invalid pricing.free_delivery_threshold: %v", err))
	}
	if fee.IsNegative() || threshold.IsNegative() {
		panic("pricing amounts must not be negative")
	}

	cfg.DeliveryFee = fee
	cfg.FreeDeliveryThreshold = threshold

	return cfg
}
