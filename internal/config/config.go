package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses the event start date and timezone
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  QR and eligibility values
// are injected into the token codec and points engine at construction
// rather than read from ambient state, so tests can vary them.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign session JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	QRSecret     string        // server-held key signing check-in credentials
	QRHashRounds int           // extra hash rounds applied on top of the HMAC
	QRTokenTTL   time.Duration // validity window of issued credentials

	EventStart time.Time      // first day of the event (midnight, event zone)
	EventDays  int            // number of event days for daily point buckets
	EventZone  *time.Location // zone all "today" decisions are made in

	TshirtPoints int // eligibility threshold: t-shirt
	ButtonPoints int // eligibility threshold: button
	TotePoints   int // eligibility threshold: tote bag
	CapPoints    int // eligibility threshold: cap
}

// Load reads configuration values from environment variables and
// returns a Config.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message;
// tunables fall back to production defaults.
func Load() Config {
	zone := envStr("EVENT_TIMEZONE", "America/Chicago")
	loc, err := time.LoadLocation(zone)
	if err != nil {
		log.Fatalf("invalid EVENT_TIMEZONE %q: %v", zone, err)
	}
	startStr := must("EVENT_START_DATE") // YYYY-MM-DD, interpreted in EVENT_TIMEZONE
	start, err := time.ParseInLocation("2006-01-02", startStr, loc)
	if err != nil {
		log.Fatalf("invalid EVENT_START_DATE %q: %v", startStr, err)
	}

	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		QRSecret:     must("QR_SECRET"),
		QRHashRounds: envInt("QR_HASH_ROUNDS", 10),
		QRTokenTTL:   envDur("QR_TOKEN_TTL", 20*time.Minute),

		EventStart: start,
		EventDays:  envInt("EVENT_DAYS", 5),
		EventZone:  loc,

		TshirtPoints: envInt("ELIGIBLE_TSHIRT_POINTS", 0),
		ButtonPoints: envInt("ELIGIBLE_BUTTON_POINTS", 20),
		TotePoints:   envInt("ELIGIBLE_TOTE_POINTS", 35),
		CapPoints:    envInt("ELIGIBLE_CAP_POINTS", 50),
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
