package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and batch sizes.  Percentages are carried as strings and parsed into
// decimals by the caller so that money math never touches floats.
type Config struct {
	Env             string // application environment (e.g. "dev", "prod")
	Port            string // HTTP port to listen on
	DBUser          string // database username
	DBPass          string // database password (optional)
	DBHost          string // database host address
	DBPort          string // database port number
	DBName          string // database name
	JWTSecret       string // secret used to verify JWTs
	HoldTTLMin      int    // default reservation hold time-to-live in minutes
	ExpireSweepSec  int    // seconds between background expiry sweeps
	ExpireBatchSize int    // max reservations processed per sweep
	DiscountPct     string // default order discount percentage, e.g. "0"
	CommissionPct   string // default agency commission percentage, e.g. "15"
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Lifecycle tuning
// knobs have sensible defaults and may be omitted.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),      // environment (dev/test/prod)
		Port:            must("APP_PORT"),     // port to bind the HTTP server
		DBUser:          must("DB_USER"),      // database user
		DBPass:          os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:          must("DB_HOST"),      // database host
		DBPort:          must("DB_PORT"),      // database port
		DBName:          must("DB_NAME"),      // database name
		JWTSecret:       must("JWT_SECRET"),   // secret used for verifying JWTs
		HoldTTLMin:      optInt("HOLD_TTL_MIN", 120),
		ExpireSweepSec:  optInt("EXPIRE_SWEEP_SEC", 120),
		ExpireBatchSize: optInt("EXPIRE_BATCH_SIZE", 200),
		DiscountPct:     getenv("ORDER_DISCOUNT_PCT", "0"),
		CommissionPct:   getenv("ORDER_COMMISSION_PCT", "15"),
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

// optInt retrieves an optional integer environment variable, falling back
// to def when the variable is unset.  A set-but-invalid value is a fatal
// configuration error rather than a silent fallback.
func optInt(key string, def int) int {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
