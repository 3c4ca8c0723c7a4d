// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
// The same struct serves the producer, the consumers and the batch passes.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"LOCAL"`

	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresDatabase string `env:"POSTGRES_DATABASE" envDefault:"reference"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"docker"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"example"`

	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8080"`

	// Migrate drops and recreates the schema on producer startup.
	Migrate bool `env:"MIGRATE" envDefault:"false"`

	EuropePMC string `env:"EUROPE_PMC" envDefault:"https://www.ebi.ac.uk/europepmc/webservices/rest/"`

	// RelevanceURL is the inference endpoint scoring abstracts with the
	// pre-trained text classifier.
	RelevanceURL string `env:"RELEVANCE_URL" envDefault:"http://localhost:8000/predict"`

	// SchedulerInterval is the producer dispatch tick.
	SchedulerInterval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"4s"`
	// DispatchTimeout bounds one dispatch RPC; there are no retries within a tick.
	DispatchTimeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"10s"`
	// FetchInterval is the pause between full-text fetches. Europe PMC allows
	// 10 requests/second or 500/minute across the whole deployment.
	FetchInterval time.Duration `env:"FETCH_INTERVAL" envDefault:"600ms"`
	// SearchPageSize is the page size of the literature search.
	SearchPageSize int `env:"SEARCH_PAGE_SIZE" envDefault:"500"`

	CORSAllowOrigins string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin  int           `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	ShutdownTimeout  time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"litscan"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// DatabaseURL assembles the Postgres DSN from the POSTGRES_* variables.
func (c Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDatabase)
}

// IsLocal reports whether the app runs against a local database.
func (c Config) IsLocal() bool { return strings.ToUpper(c.Environment) == "LOCAL" }

// IsProduction reports whether the app is running in production.
func (c Config) IsProduction() bool { return strings.ToUpper(c.Environment) == "PRODUCTION" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToUpper(c.Environment) == "TEST" }

// Addr is the host:port the HTTP server binds to.
func (c Config) Addr() string { return c.Host + ":" + c.Port }
