package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	AllowedOrigins []string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig

	// Booking lifecycle
	Booking BookingConfig
	Lock    LockConfig

	// Logging
	LogLevel string

	// External services
	Payment   PaymentConfig
	Kafka     KafkaConfig
	Email     EmailConfig
	Telemetry TelemetryConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string

	MaxOpenConns int
	MaxIdleConns int
	// LockTimeout bounds how long a transaction waits on a showtime row lock
	LockTimeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// LayoutCacheTTL applies to immutable screen seat layouts only
	LayoutCacheTTL time.Duration
	CacheTTL       time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	JWTExpiresIn     time.Duration
	RefreshExpiresIn time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	PublicRequests  int           `json:"public_requests"`
	AuthRequests    int           `json:"auth_requests"`
	BookingRequests int           `json:"booking_requests"`
	AdminRequests   int           `json:"admin_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// BookingConfig holds the seat hold and cancellation rules
type BookingConfig struct {
	HoldWindow         time.Duration
	SweepInterval      time.Duration
	SweepBatchSize     int
	CancellationCutoff time.Duration
	Timezone           string
	ReferencePrefix    string
}

// LockConfig configures the per-showtime serialization lock
type LockConfig struct {
	Backend     string // "redis" or "local"
	TTL         time.Duration
	WaitTimeout time.Duration
	RetryDelay  time.Duration
}

// PaymentConfig holds wallet provider credentials and callback URLs
type PaymentConfig struct {
	ReturnURL       string
	CallbackBaseURL string
	HTTPTimeout     time.Duration
	RequestsPerSec  float64
	Burst           int

	MoMo    MoMoConfig
	ZaloPay ZaloPayConfig
}

// MoMoConfig holds MoMo captureWallet credentials
type MoMoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
}

// ZaloPayConfig holds ZaloPay v2 credentials
type ZaloPayConfig struct {
	AppID    string
	Key1     string
	Key2     string
	Endpoint string
}

// KafkaConfig holds notification broker configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
	Workers int
}

// EmailConfig holds email configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// TelemetryConfig holds tracing configuration
type TelemetryConfig struct {
	Enabled       bool
	ServiceName   string
	CollectorAddr string
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB
		AllowedOrigins: getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "cineplex_db"),
			User:         getEnv("DB_USER", "cineplex_user"),
			Password:     getEnv("DB_PASSWORD", "cineplex_password"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 10),
			LockTimeout:  getDurationEnv("DB_LOCK_TIMEOUT", 3*time.Second),
		},

		Redis: RedisConfig{
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getIntEnv("REDIS_DB", 0),
			LayoutCacheTTL: getDurationEnv("REDIS_LAYOUT_CACHE_TTL", 6*time.Hour),
			CacheTTL:       getDurationEnv("REDIS_CACHE_TTL", 1*time.Hour),
		},

		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
			JWTExpiresIn:     getDurationEnvSeconds("JWT_EXPIRES_IN", 15*time.Minute),
			RefreshExpiresIn: getDurationEnvSeconds("JWT_REFRESH_EXPIRES_IN", 24*time.Hour),
		},

		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:  getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			AuthRequests:    getIntEnv("RATE_LIMIT_AUTH_REQUESTS", 10),
			BookingRequests: getIntEnv("RATE_LIMIT_BOOKING_REQUESTS", 20),
			AdminRequests:   getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 200),
			WhitelistedIPs:  getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		Booking: BookingConfig{
			HoldWindow:         getDurationEnv("BOOKING_HOLD_WINDOW", 15*time.Minute),
			SweepInterval:      getDurationEnv("BOOKING_SWEEP_INTERVAL", 1*time.Minute),
			SweepBatchSize:     getIntEnv("BOOKING_SWEEP_BATCH_SIZE", 100),
			CancellationCutoff: getDurationEnv("BOOKING_CANCELLATION_CUTOFF", 2*time.Hour),
			Timezone:           getEnv("BOOKING_TIMEZONE", "Asia/Ho_Chi_Minh"),
			ReferencePrefix:    getEnv("BOOKING_REFERENCE_PREFIX", "TML"),
		},

		Lock: LockConfig{
			Backend:     getEnv("LOCK_BACKEND", "redis"),
			TTL:         getDurationEnv("LOCK_TTL", 10*time.Second),
			WaitTimeout: getDurationEnv("LOCK_WAIT_TIMEOUT", 3*time.Second),
			RetryDelay:  getDurationEnv("LOCK_RETRY_DELAY", 25*time.Millisecond),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Payment: PaymentConfig{
			ReturnURL:       getEnv("PAYMENT_RETURN_URL", "http://localhost:3000/booking/result"),
			CallbackBaseURL: getEnv("PAYMENT_CALLBACK_BASE_URL", "http://localhost:8080/api/v1/payments"),
			HTTPTimeout:     getDurationEnv("PAYMENT_HTTP_TIMEOUT", 30*time.Second),
			RequestsPerSec:  getFloatEnv("PAYMENT_REQUESTS_PER_SECOND", 20),
			Burst:           getIntEnv("PAYMENT_BURST", 5),
			MoMo: MoMoConfig{
				PartnerCode: getEnv("MOMO_PARTNER_CODE", ""),
				AccessKey:   getEnv("MOMO_ACCESS_KEY", ""),
				SecretKey:   getEnv("MOMO_SECRET_KEY", ""),
				Endpoint:    getEnv("MOMO_ENDPOINT", "https://test-payment.momo.vn/v2/gateway/api/create"),
			},
			ZaloPay: ZaloPayConfig{
				AppID:    getEnv("ZALOPAY_APP_ID", ""),
				Key1:     getEnv("ZALOPAY_KEY1", ""),
				Key2:     getEnv("ZALOPAY_KEY2", ""),
				Endpoint: getEnv("ZALOPAY_ENDPOINT", "https://sb-openapi.zalopay.vn/v2/create"),
			},
		},

		Kafka: KafkaConfig{
			Enabled: getBoolEnv("KAFKA_ENABLED", false),
			Brokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_NOTIFICATION_TOPIC", "cineplex.notifications"),
			GroupID: getEnv("KAFKA_CONSUMER_GROUP", "cineplex-notification-workers"),
			Workers: getIntEnv("KAFKA_CONSUMER_WORKERS", 2),
		},

		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@cineplex.local"),
			FromName:     getEnv("FROM_NAME", "Cineplex"),
		},

		Telemetry: TelemetryConfig{
			Enabled:       getBoolEnv("OTEL_ENABLED", false),
			ServiceName:   getEnv("OTEL_SERVICE_NAME", "cineplex-api"),
			CollectorAddr: getEnv("OTEL_COLLECTOR_ADDR", "localhost:4317"),
		},
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getDurationEnvSeconds gets an environment variable as seconds (int) and converts to time.Duration
func getDurationEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}

// Location returns the timezone showtimes are scheduled in, UTC if unknown.
func (b BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
