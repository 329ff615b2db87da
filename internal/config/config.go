package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// CloudinaryConfig holds the asset store credentials.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// SMTPConfig holds the credentials used to deliver notification emails.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Config is the immutable process configuration, loaded once at startup.
type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string
	RabbitMQURL string
	FrontendURL string

	Cloudinary CloudinaryConfig
	SMTP       SMTPConfig

	// Product validation bounds. MinImages/MaxImages bound the image set per
	// product; MaxStock caps the stock field.
	MinImages int
	MaxImages int
	MaxStock  int

	// AssetOpTimeout bounds each individual upload/delete against the asset
	// store so a hung provider call cannot stall a whole request.
	AssetOpTimeout time.Duration
}

// Load reads configuration from environment variables via Viper. It fails
// when DATABASE_URL or JWT_SECRET is absent; everything else has a default
// or is optional.
func Load() (*Config, error) {
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("MIN_IMAGES", 2)
	viper.SetDefault("MAX_IMAGES", 5)
	viper.SetDefault("MAX_STOCK", 1000)
	viper.SetDefault("ASSET_OP_TIMEOUT", "30s")
	viper.SetDefault("FRONTEND_URL", "http://localhost:5173")
	viper.AutomaticEnv()

	cfg := &Config{
		AppPort:     viper.GetString("APP_PORT"),
		DatabaseURL: viper.GetString("DATABASE_URL"),
		JWTSecret:   viper.GetString("JWT_SECRET"),
		RabbitMQURL: viper.GetString("RABBITMQ_URL"),
		FrontendURL: viper.GetString("FRONTEND_URL"),
		Cloudinary: CloudinaryConfig{
			CloudName: viper.GetString("CLOUDINARY_CLOUD_NAME"),
			APIKey:    viper.GetString("CLOUDINARY_API_KEY"),
			APISecret: viper.GetString("CLOUDINARY_API_SECRET"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			Username: viper.GetString("EMAIL_USER"),
			Password: viper.GetString("EMAIL_PASS"),
			From:     viper.GetString("EMAIL_FROM"),
		},
		MinImages:      viper.GetInt("MIN_IMAGES"),
		MaxImages:      viper.GetInt("MAX_IMAGES"),
		MaxStock:       viper.GetInt("MAX_STOCK"),
		AssetOpTimeout: viper.GetDuration("ASSET_OP_TIMEOUT"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	if cfg.SMTP.From == "" {
		cfg.SMTP.From = cfg.SMTP.Username
	}
	return cfg, nil
}
