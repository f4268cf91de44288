package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AvatarStorageDatabase = "database"
	AvatarStorageS3       = "s3"
)

type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	DBDebug     bool
	RedisURL    string

	JWTSecret string
	TokenTTL  time.Duration

	SendGridAPIKey string
	MailFrom       string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPRequireTLS bool
	NotifyWorkers  int

	AvatarStorage string
	AvatarBucket  string
	AWSRegion     string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	AvatarWorkers int
}

// Load читает .env.local/.env (если есть) и переменные окружения
func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			slog.Info(".env not found, using environment variables")
		}
	}

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DEBUG", false)
	v.SetDefault("TOKEN_TTL", "0s")
	v.SetDefault("MAIL_FROM", "noreply@task-api.local")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_REQUIRE_TLS", true)
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("AVATAR_STORAGE", AvatarStorageDatabase)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AVATAR_WORKERS", 0)

	for _, key := range []string{
		"DATABASE_URL", "REDIS_URL", "JWT_SECRET", "SEND_GRID_API_KEY",
		"SMTP_HOST", "SMTP_USERNAME", "SMTP_PASSWORD", "AVATAR_BUCKET", "S3_ENDPOINT",
		"S3_ACCESS_KEY", "S3_SECRET_KEY",
	} {
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()
	return v
}

// FromViper собирает Config из уже настроенного viper
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:            v.GetString("APP_ENV"),
		Port:           v.GetString("PORT"),
		DatabaseURL:    v.GetString("DATABASE_URL"),
		DBDebug:        v.GetBool("DB_DEBUG"),
		RedisURL:       v.GetString("REDIS_URL"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		SendGridAPIKey: v.GetString("SEND_GRID_API_KEY"),
		MailFrom:       v.GetString("MAIL_FROM"),
		SMTPHost:       v.GetString("SMTP_HOST"),
		SMTPPort:       v.GetInt("SMTP_PORT"),
		SMTPUsername:   v.GetString("SMTP_USERNAME"),
		SMTPPassword:   v.GetString("SMTP_PASSWORD"),
		SMTPRequireTLS: v.GetBool("SMTP_REQUIRE_TLS"),
		NotifyWorkers:  v.GetInt("NOTIFY_WORKERS"),
		AvatarStorage:  strings.ToLower(strings.TrimSpace(v.GetString("AVATAR_STORAGE"))),
		AvatarBucket:   v.GetString("AVATAR_BUCKET"),
		AWSRegion:      v.GetString("AWS_REGION"),
		S3Endpoint:     v.GetString("S3_ENDPOINT"),
		S3AccessKey:    v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:    v.GetString("S3_SECRET_KEY"),
		AvatarWorkers:  v.GetInt("AVATAR_WORKERS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if c.TokenTTL < 0 {
		errs = append(errs, errors.New("TOKEN_TTL must not be negative"))
	}
	switch c.AvatarStorage {
	case AvatarStorageDatabase:
	case AvatarStorageS3:
		if c.AvatarBucket == "" {
			errs = append(errs, errors.New("AVATAR_BUCKET is required when AVATAR_STORAGE=s3"))
		}
	default:
		errs = append(errs, errors.New("AVATAR_STORAGE must be database or s3"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
