package config

import (
	"errors"
	"time"

	"main/utils"
)

// Config holds all process-wide configuration. It is loaded once at startup
// and treated as read-only afterwards.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Media    MediaConfig
	Email    EmailConfig
}

type ServerConfig struct {
	Port           string
	MaxRequestSize int64
}

type DatabaseConfig struct {
	URI             string
	DatabaseName    string
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
	RetryWrites     bool
}

type AuthConfig struct {
	JWTSecret       string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	OTPLength       int
	OTPTTL          time.Duration
}

type RedisConfig struct {
	URL string
}

type MediaConfig struct {
	Region       string
	Bucket       string
	BaseEndpoint string
	PublicURL    string
	AccessKey    string
	SecretKey    string
}

type EmailConfig struct {
	APIKey string
	Sender string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           utils.GetEnvAsString("PORT", "8080"),
			MaxRequestSize: int64(utils.GetEnvAsInt("MAX_REQUEST_SIZE", 8<<20)),
		},
		Database: DatabaseConfig{
			URI:             utils.GetEnvAsString("MONGO_URI", "mongodb://localhost:27017"),
			DatabaseName:    utils.GetEnvAsString("MONGO_DB", "quillnotes"),
			MaxPoolSize:     utils.GetEnvAsUint64("MONGO_MAX_POOL_SIZE", 100),
			MinPoolSize:     utils.GetEnvAsUint64("MONGO_MIN_POOL_SIZE", 10),
			MaxConnIdleTime: utils.GetEnvAsDuration("MONGO_MAX_CONN_IDLE_TIME", 60*time.Second),
			RetryWrites:     utils.GetEnvAsBool("MONGO_RETRY_WRITES", true),
		},
		Auth: AuthConfig{
			JWTSecret:       utils.GetEnvAsString("JWT_SECRET_KEY", ""),
			Issuer:          utils.GetEnvAsString("JWT_ISSUER", "quillnotes"),
			AccessTokenTTL:  utils.GetEnvAsDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: utils.GetEnvAsDuration("REFRESH_TOKEN_TTL", 14*24*time.Hour),
			OTPLength:       utils.GetEnvAsInt("OTP_LENGTH", 6),
			OTPTTL:          utils.GetEnvAsDuration("OTP_TTL", 10*time.Minute),
		},
		Redis: RedisConfig{
			URL: utils.GetEnvAsString("REDIS_URL", "redis://localhost:6379/0"),
		},
		Media: MediaConfig{
			Region:       utils.GetEnvAsString("MEDIA_S3_REGION", "us-east-1"),
			Bucket:       utils.GetEnvAsString("MEDIA_S3_BUCKET", "quillnotes-media"),
			BaseEndpoint: utils.GetEnvAsString("MEDIA_S3_ENDPOINT", ""),
			PublicURL:    utils.GetEnvAsString("MEDIA_PUBLIC_URL", ""),
			AccessKey:    utils.GetEnvAsString("MEDIA_S3_ACCESS_KEY", ""),
			SecretKey:    utils.GetEnvAsString("MEDIA_S3_SECRET_KEY", ""),
		},
		Email: EmailConfig{
			APIKey: utils.GetEnvAsString("EMAIL_API_KEY", ""),
			Sender: utils.GetEnvAsString("EMAIL_SENDER", "no-reply@quillnotes.app"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET_KEY is not set")
	}

	return cfg, nil
}
