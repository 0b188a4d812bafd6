package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Lengo         LengoConfig
	SMS           SMSConfig
	Email         EmailConfig
	Firebase      FirebaseConfig
	External      ExternalConfig
	Reimbursement ReimbursementConfig
	Admin         AdminConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	LogLevel       string
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	Tracing         bool
}

// MongoConfig points to the document store holding message logs and campaigns.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig is optional; without an address payment locks stay in-process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// LengoConfig for the Lengo Pay gateway.
type LengoConfig struct {
	BaseURL       string
	LicenseKey    string
	SiteID        string
	Currency      string
	CallbackURL   string // e.g. https://admin.zalama.com/api/payments/lengo-callback
	ReturnURL     string
	WebhookSecret string
	Timeout       time.Duration
}

type SMSConfig struct {
	DefaultRegion string // libphonenumber region for numbers without country code
	BaseURL       string
	ServiceID     string
	SecretKey     string
	SenderName    string
	MaxLength     int
}

type EmailConfig struct {
	BaseURL string
	APIKey  string
	From    string
}

type FirebaseConfig struct {
	ServiceAccountPath string
}

// ExternalConfig holds the keys accepted on /api/external routes.
type ExternalConfig struct {
	APIKeys []string
}

// AdminConfig seeds the first dashboard account on an empty database.
type AdminConfig struct {
	Email    string
	Password string
}

type ReimbursementConfig struct {
	FeeRate      string // decimal string, parsed by domain.ComputeFees callers
	DueAfterDays int
}

// Load reads .env (if present) then the process environment.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            getEnv("APP_ENV", "development"),
			ReadTimeout:    getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			DSN:             os.Getenv("DB_DSN"),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			Tracing:         getBool("DB_TRACING", false),
		},
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGO_URI"),
			Database: getEnv("MONGO_DATABASE", "zalama"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDRESS"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
			LockTTL:  getDuration("PAYMENT_LOCK_TTL", 60*time.Second),
		},
		JWT: JWTConfig{
			AccessSecret: os.Getenv("JWT_SECRET"),
			AccessExpiry: getDuration("JWT_EXPIRY", 12*time.Hour),
			Issuer:       getEnv("JWT_ISSUER", "zalama-admin"),
		},
		Lengo: LengoConfig{
			BaseURL:       getEnv("LENGO_API_URL", "https://portal.lengopay.com"),
			LicenseKey:    os.Getenv("LENGO_LICENSE_KEY"),
			SiteID:        os.Getenv("LENGO_SITE_ID"),
			Currency:      getEnv("LENGO_CURRENCY", "GNF"),
			CallbackURL:   os.Getenv("LENGO_CALLBACK_URL"),
			ReturnURL:     os.Getenv("LENGO_RETURN_URL"),
			WebhookSecret: os.Getenv("LENGO_WEBHOOK_SECRET"),
			Timeout:       getDuration("LENGO_TIMEOUT", 30*time.Second),
		},
		SMS: SMSConfig{
			BaseURL:       getEnv("NIMBA_SMS_API_URL", "https://api.nimbasms.com"),
			ServiceID:     os.Getenv("NIMBA_SMS_SERVICE_ID"),
			SecretKey:     os.Getenv("NIMBA_SMS_SECRET_TOKEN"),
			SenderName:    getEnv("NIMBA_SMS_SENDER_NAME", "ZaLaMa"),
			MaxLength:     getInt("SMS_MAX_LENGTH", 160),
			DefaultRegion: getEnv("PHONE_DEFAULT_REGION", "GN"),
		},
		Email: EmailConfig{
			BaseURL: getEnv("RESEND_API_URL", "https://api.resend.com"),
			APIKey:  os.Getenv("RESEND_API_KEY"),
			From:    getEnv("EMAIL_FROM", "ZaLaMa <noreply@zalamagn.com>"),
		},
		Firebase: FirebaseConfig{
			ServiceAccountPath: os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"),
		},
		External: ExternalConfig{
			APIKeys: getList("EXTERNAL_API_KEYS", nil),
		},
		Reimbursement: ReimbursementConfig{
			FeeRate:      getEnv("SERVICE_FEE_RATE", "0.065"),
			DueAfterDays: getInt("REIMBURSEMENT_DUE_DAYS", 30),
		},
		Admin: AdminConfig{
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Database.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if c.JWT.AccessSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return errors.New("missing required settings: " + strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// getDuration accepts Go durations ("30s") or a bare number of seconds.
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func getList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
