package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strings" // strings normalizes mode values
	"time"    // time parses storage timeouts

	"github.com/joho/godotenv"                              // godotenv loads a local .env file when present
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring" // connstring extracts the default database from DATABASE_URI
)

// StatusMode selects how handled outcomes map onto HTTP status codes.
type StatusMode string

const (
	// StatusStrict maps validation, auth and not-found outcomes to 4xx codes.
	StatusStrict StatusMode = "strict"
	// StatusLegacy answers every handled outcome with 200 and lets the body
	// carry the result.
	StatusLegacy StatusMode = "legacy"
)

// defaultDatabaseName is what the MongoDB drivers fall back to when the
// connection string names no database.
const defaultDatabaseName = "test"

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Host            string        // address to bind the HTTP server to
	Port            string        // HTTP port to listen on
	DatabaseURI     string        // MongoDB connection string
	DatabaseName    string        // database holding the members/health collections
	DatabaseTimeout time.Duration // connect timeout and per-request storage deadline
	StatusMode      StatusMode    // strict or legacy status code mapping
	AMQPURL         string        // RabbitMQ URL; activity events are disabled when empty
	LogLevel        string        // Echo logger level: debug, info, warn, error or off
}

// Load reads configuration values from the process environment (after
// merging an optional .env file) and returns a Config.  DATABASE_URI is the
// only required variable; a missing value exits the process.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: ignoring .env: %v", err)
	}
	uri := must("DATABASE_URI")
	return Config{
		Env:             envStr("APP_ENV", "dev"),
		Host:            envStr("SERVER_IP", "127.0.0.1"),
		Port:            envStr("SERVER_PORT", "3000"),
		DatabaseURI:     uri,
		DatabaseName:    databaseName(uri),
		DatabaseTimeout: envDur("DATABASE_TIMEOUT", 10*time.Second),
		StatusMode:      parseStatusMode(os.Getenv("RESPONSE_STATUS_MODE")),
		AMQPURL:         AMQPURL(),
		LogLevel:        strings.ToLower(envStr("LOG_LEVEL", "info")),
	}
}

// Addr returns the host:port pair the HTTP server binds to.
func (c Config) Addr() string { return c.Host + ":" + c.Port }

// EventsEnabled reports whether activity events should be published.
func (c Config) EventsEnabled() bool { return c.AMQPURL != "" }

// AMQPURL returns the broker URL from RABBITMQ_URL, falling back to AMQP_URL.
func AMQPURL() string {
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		return url
	}
	return os.Getenv("AMQP_URL")
}

// databaseName prefers DATABASE_NAME, then the database embedded in the URI.
func databaseName(uri string) string {
	if name := os.Getenv("DATABASE_NAME"); name != "" {
		return name
	}
	if cs, err := connstring.ParseAndValidate(uri); err == nil && cs.Database != "" {
		return cs.Database
	}
	return defaultDatabaseName
}

// parseStatusMode defaults to legacy so existing clients keep reading the
// outcome from the body; strict must be asked for.
func parseStatusMode(s string) StatusMode {
	if strings.EqualFold(strings.TrimSpace(s), string(StatusStrict)) {
		return StatusStrict
	}
	return StatusLegacy
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
