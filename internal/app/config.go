package app

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/yungbote/iof-learning/internal/platform/logger"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	LogMode string `env:"LOG_MODE" envDefault:"development"`
	Version string `env:"APP_VERSION" envDefault:"dev"`

	JWTSecretKey     string        `env:"JWT_SECRET_KEY" envDefault:"defaultsecret"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"24h"`
	PasswordResetTTL time.Duration `env:"PASSWORD_RESET_TTL" envDefault:"1h"`
	PasswordResetURL string        `env:"PASSWORD_RESET_URL" envDefault:"http://localhost:3000/reset-password"`
	TokenCleanup     string        `env:"TOKEN_CLEANUP_SCHEDULE" envDefault:"@hourly"`

	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresName     string `env:"POSTGRES_NAME" envDefault:"iof_learning"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxOpen  int    `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"20"`
	PostgresMaxIdle  int    `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CachePrefix   string `env:"CACHE_PREFIX" envDefault:"iof:"`

	NewsAPIKey       string        `env:"NEWS_API_KEY"`
	NewsAPIBaseURL   string        `env:"NEWS_API_BASE_URL" envDefault:"https://newsapi.org"`
	NewsCacheTTL     time.Duration `env:"NEWS_CACHE_TTL" envDefault:"72h"`
	NewsWarmQueries  []string      `env:"NEWS_WARM_QUERIES" envSeparator:"," envDefault:"personal finance"`
	NewsWarmSchedule string        `env:"NEWS_WARM_SCHEDULE" envDefault:"@every 6h"`

	ImageBucket         string `env:"GCS_IMAGE_BUCKET"`
	CertificateBucket   string `env:"GCS_CERTIFICATE_BUCKET"`
	ImageCDNDomain      string `env:"IMAGE_CDN_DOMAIN"`
	ObjectStorageMode   string `env:"OBJECT_STORAGE_MODE" envDefault:"gcs"`
	StorageEmulatorHost string `env:"STORAGE_EMULATOR_HOST"`
	GCPCredentials      string `env:"GOOGLE_APPLICATION_CREDENTIALS_JSON"`
	CertificateFontPath string `env:"CERTIFICATE_FONT_PATH"`
	CertificateIssuer   string `env:"CERTIFICATE_ISSUER" envDefault:"Institute of Finance"`

	SendGridAPIKey    string `env:"SENDGRID_API_KEY"`
	SendGridFromEmail string `env:"SENDGRID_FROM_EMAIL" envDefault:"no-reply@iof.local"`
	SendGridFromName  string `env:"SENDGRID_FROM_NAME" envDefault:"IOF Learning"`

	GoogleOIDCClientID string `env:"GOOGLE_OIDC_CLIENT_ID"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	CookieDomain       string   `env:"COOKIE_DOMAIN"`
	CookieSecure       bool     `env:"COOKIE_SECURE" envDefault:"false"`

	OtelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	ServiceName     string `env:"OTEL_SERVICE_NAME" envDefault:"iof-learning"`
	OtelEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelHeaders     string `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	OtelInsecure    bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	OtelSampleRatio string `env:"OTEL_SAMPLER_RATIO"`
}

// LoadConfig reads an optional .env file, then the process environment.
func LoadConfig(log *logger.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("could not load .env", "error", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set, using insecure default")
	}
	return cfg, nil
}
