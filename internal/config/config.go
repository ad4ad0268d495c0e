package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Admin credentials live in the environment
// because the dashboard has a single operator account; there is no user
// table behind it.
type Config struct {
	Env             string // application environment (e.g. "dev", "prod")
	Port            string // HTTP port to listen on
	DBUser          string // database username
	DBPass          string // database password (optional)
	DBHost          string // database host address
	DBPort          string // database port number
	DBName          string // database name
	JWTSecret       string // secret used to sign admin session tokens
	AdminUser       string // admin dashboard username
	AdminPassHash   string // bcrypt hash of the admin dashboard password
	AdminTTLMin     int    // admin session token time-to-live in minutes
	SMTPHost        string // SMTP server host for booking receipts (optional)
	SMTPPort        string // SMTP server port
	SMTPUser        string // SMTP auth user; also the From address
	SMTPPass        string // SMTP auth password
	AMQPURL         string // RabbitMQ connection URL (optional)
	NotifyTimeoutMS int    // upper bound in milliseconds for publishing a booking event
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Mail and broker
// settings are optional: when unset, booking confirmations are logged
// instead of delivered.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"),
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		JWTSecret:       must("JWT_SECRET"),
		AdminUser:       must("ADMIN_USER"),
		AdminPassHash:   must("ADMIN_PASS_HASH"),
		AdminTTLMin:     mustInt("ADMIN_TOKEN_TTL_MIN"),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        getenv("SMTP_PORT", "587"),
		SMTPUser:        os.Getenv("SMTP_USER"),
		SMTPPass:        os.Getenv("SMTP_PASS"),
		AMQPURL:         os.Getenv("RABBITMQ_URL"),
		NotifyTimeoutMS: atoiDefault(os.Getenv("NOTIFY_TIMEOUT_MS"), 5000),
	}
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
