package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	CORS     CORSConfig
	Log      LogConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	Storage  StorageConfig
	Payment  PaymentConfig
	Provider ProviderConfig
	Pipeline PipelineConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"Asia/Tokyo"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Asia/Tokyo"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"32400"` // 9*60*60
}

type JWTConfig struct {
	Secret   string        `envconfig:"JWT_SECRET" required:"true"`
	Duration time.Duration `envconfig:"JWT_DURATION" default:"24h"`
}

type CookieConfig struct {
	Domain   string `envconfig:"COOKIE_DOMAIN" default:""`
	Secure   bool   `envconfig:"COOKIE_SECURE" default:"false"`
	SameSite string `envconfig:"COOKIE_SAME_SITE" default:"Lax"`
}

// RedisConfig configures the cross-instance event bus. Empty addr keeps the
// broadcaster purely in-process (single instance deployments, tests).
type RedisConfig struct {
	Addr    string `envconfig:"REDIS_ADDR" default:""`
	Channel string `envconfig:"REDIS_EVENT_CHANNEL" default:"pipeline_events"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST" default:"localhost"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME" default:""`
	Password string `envconfig:"SMTP_PASSWORD" default:""`
	From     string `envconfig:"SMTP_FROM" default:"noreply@classcribe.local"`
}

type StorageConfig struct {
	Bucket    string        `envconfig:"STORAGE_BUCKET" default:""`
	URLExpiry time.Duration `envconfig:"STORAGE_URL_EXPIRY" default:"15m"`
}

type PaymentConfig struct {
	WebhookSecret string `envconfig:"PAYMENT_WEBHOOK_SECRET" required:"true"`
}

type ProviderConfig struct {
	TranscriptionURL     string        `envconfig:"TRANSCRIPTION_URL" default:"http://localhost:9801"`
	TranscriptionAPIKey  string        `envconfig:"TRANSCRIPTION_API_KEY" default:""`
	TranscriptionTimeout time.Duration `envconfig:"TRANSCRIPTION_TIMEOUT" default:"5m"`
	AnalysisURL          string        `envconfig:"ANALYSIS_URL" default:"http://localhost:9802"`
	AnalysisAPIKey       string        `envconfig:"ANALYSIS_API_KEY" default:""`
	AnalysisModel        string        `envconfig:"ANALYSIS_MODEL" default:"gpt-4o-mini"`
	AnalysisTimeout      time.Duration `envconfig:"ANALYSIS_TIMEOUT" default:"3m"`
}

// Queue worker counts are hard ceilings on concurrently-running jobs per
// named queue, enforced by the queue manager.
type PipelineConfig struct {
	TranscriptionWorkers int           `envconfig:"QUEUE_TRANSCRIPTION_WORKERS" default:"3"`
	AnalysisWorkers      int           `envconfig:"QUEUE_ANALYSIS_WORKERS" default:"5"`
	ReportWorkers        int           `envconfig:"QUEUE_REPORTS_WORKERS" default:"2"`
	NotificationWorkers  int           `envconfig:"QUEUE_NOTIFICATIONS_WORKERS" default:"5"`
	DefaultWorkers       int           `envconfig:"QUEUE_DEFAULT_WORKERS" default:"10"`
	MaxAttempts          int           `envconfig:"QUEUE_MAX_ATTEMPTS" default:"3"`
	BackoffBase          time.Duration `envconfig:"QUEUE_BACKOFF_BASE" default:"2s"`
	QueueDepth           int           `envconfig:"QUEUE_DEPTH" default:"256"`
	CreditsPerAnalysis   int32         `envconfig:"CREDITS_PER_ANALYSIS" default:"1"`
	SignupBonusCredits   int32         `envconfig:"SIGNUP_BONUS_CREDITS" default:"3"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "Asia/Tokyo",
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Asia/Tokyo",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 32400,
		},
		JWT: JWTConfig{
			Secret:   "test-secret",
			Duration: 24 * time.Hour,
		},
		Payment: PaymentConfig{
			WebhookSecret: "whsec_test",
		},
		Pipeline: PipelineConfig{
			TranscriptionWorkers: 3,
			AnalysisWorkers:      5,
			ReportWorkers:        2,
			NotificationWorkers:  5,
			DefaultWorkers:       10,
			MaxAttempts:          3,
			BackoffBase:          10 * time.Millisecond,
			QueueDepth:           64,
			CreditsPerAnalysis:   1,
			SignupBonusCredits:   3,
		},
	}
}
