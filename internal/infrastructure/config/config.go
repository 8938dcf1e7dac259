package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bibbank/fintrack/pkg/kafka"
	"github.com/bibbank/fintrack/pkg/postgres"
)

type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Port     int
	MaxConns int
}

// Postgres converts the settings into pkg/postgres form.
func (d DatabaseConfig) Postgres() postgres.Config {
	return postgres.Config{
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		Database: d.Name,
		SSLMode:  d.SSLMode,
		MaxConns: int32(d.MaxConns),
	}
}

type KafkaConfig struct {
	EventsTopic   string
	ImportsTopic  string
	ConsumerGroup string
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
	Brokers       []string
	// ImportMaxAttempts and ImportRetryBackoff govern redelivery of payment
	// imports whose handler fails.
	ImportMaxAttempts  int
	ImportRetryBackoff time.Duration
	TLS                bool
	// ImportsEnabled starts the payment import consumer.
	ImportsEnabled bool
}

// Client converts the settings into pkg/kafka form.
func (k KafkaConfig) Client() kafka.Config {
	return kafka.Config{
		Brokers:       k.Brokers,
		ConsumerGroup: k.ConsumerGroup,
		TLS:           k.TLS,
		SASLEnabled:   k.SASLMechanism != "",
		SASLMechanism: k.SASLMechanism,
		SASLUsername:  k.SASLUsername,
		SASLPassword:  k.SASLPassword,
		MaxAttempts:   k.ImportMaxAttempts,
		RetryBackoff:  k.ImportRetryBackoff,
	}
}

type AuthConfig struct {
	JWTSecret       string
	JWTPublicKeyPEM string
	Issuer          string
	TokenTTL        time.Duration
}

type TelemetryConfig struct {
	OTLPEndpoint string
	LogLevel     string
	LogFormat    string
	SampleRatio  float64
	OTLPInsecure bool
}

type Config struct {
	ServiceName string
	TLSCertFile string
	TLSKeyFile  string
	DB          DatabaseConfig
	Kafka       KafkaConfig
	Auth        AuthConfig
	Telemetry   TelemetryConfig
	GRPCPort    int
	HTTPPort    int
	// BuildConcurrency bounds parallel reconciliation when listing loans.
	BuildConcurrency int
	GRPCReflection   bool
}

// Validate reports every missing or inconsistent setting.
func (c Config) Validate() error {
	var errs []error
	if c.DB.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
	}
	if c.Auth.JWTSecret == "" && c.Auth.JWTPublicKeyPEM == "" {
		errs = append(errs, errors.New("one of JWT_SECRET or JWT_PUBLIC_KEY_FILE is required"))
	}
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS must list at least one broker"))
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	if c.BuildConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("BUILD_CONCURRENCY must be positive, got %d", c.BuildConcurrency))
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATIO must be within [0,1], got %v", c.Telemetry.SampleRatio))
	}
	return errors.Join(errs...)
}

func Load() (Config, error) {
	cfg := Config{
		ServiceName:      getEnv("SERVICE_NAME", "fintrack-loans"),
		GRPCPort:         getEnvInt("GRPC_PORT", 9090),
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		GRPCReflection:   getEnvBool("GRPC_REFLECTION", false),
		TLSCertFile:      getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:       getEnv("TLS_KEY_FILE", ""),
		BuildConcurrency: getEnvInt("BUILD_CONCURRENCY", 8),
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "fintrack"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "fintrack"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Kafka: KafkaConfig{
			Brokers:            getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			EventsTopic:        getEnv("KAFKA_EVENTS_TOPIC", "fintrack.loan-events"),
			ImportsTopic:       getEnv("KAFKA_IMPORTS_TOPIC", "fintrack.payment-imports"),
			ConsumerGroup:      getEnv("KAFKA_CONSUMER_GROUP", "fintrack-loans"),
			ImportsEnabled:     getEnvBool("KAFKA_IMPORTS_ENABLED", true),
			ImportMaxAttempts:  getEnvInt("KAFKA_IMPORT_MAX_ATTEMPTS", 5),
			ImportRetryBackoff: getEnvDuration("KAFKA_IMPORT_RETRY_BACKOFF", 200*time.Millisecond),
			TLS:                getEnvBool("KAFKA_TLS", false),
			SASLMechanism:      getEnv("KAFKA_SASL_MECHANISM", ""),
			SASLUsername:       getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:       getEnv("KAFKA_SASL_PASSWORD", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "fintrack"),
			TokenTTL:  getEnvDuration("JWT_TOKEN_TTL", time.Hour),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio:  getEnvFloat("OTEL_SAMPLE_RATIO", 1.0),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			LogFormat:    getEnv("LOG_FORMAT", "json"),
		},
	}

	if path := getEnv("JWT_PUBLIC_KEY_FILE", ""); path != "" {
		pem, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read JWT public key: %w", err)
		}
		cfg.Auth.JWTPublicKeyPEM = string(pem)
	}

	return cfg, nil
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
