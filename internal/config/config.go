package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/stanstork/rapidaid-api/internal/models"
)

const (
	DefaultServerPort  = "8080"
	DefaultSMTPPort    = 587
	DefaultSendTimeout = 10 * time.Second
	envPrefix          = "RAPIDAID"
)

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SMSConfig struct {
	AccountSID      string `mapstructure:"account_sid"`
	AuthToken       string `mapstructure:"auth_token"`
	From            string `mapstructure:"from"`
	VerifyOnStartup bool   `mapstructure:"verify_on_startup"`
}

type EmailConfig struct {
	From            string `mapstructure:"from"`
	FromName        string `mapstructure:"from_name"`
	SMTPHost        string `mapstructure:"smtp_host"`
	SMTPPort        int    `mapstructure:"smtp_port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	VerifyOnStartup bool   `mapstructure:"verify_on_startup"`
}

type NotificationConfig struct {
	SendTimeout time.Duration      `mapstructure:"send_timeout"`
	Concurrency int                `mapstructure:"concurrency"`
	Recipients  []models.Recipient `mapstructure:"recipients"`
	SMS         SMSConfig          `mapstructure:"sms"`
	Email       EmailConfig        `mapstructure:"email"`
}

type Config struct {
	DatabaseURL    string             `mapstructure:"database_url"`
	ServerPort     string             `mapstructure:"server_port"`
	JWTSecret      string             `mapstructure:"jwt_secret"`
	TokenTTL       time.Duration      `mapstructure:"token_ttl"`
	AllowedOrigins []string           `mapstructure:"allowed_origins"`
	Log            LogConfig          `mapstructure:"log"`
	Notification   NotificationConfig `mapstructure:"notification"`
}

// Load reads the configuration from config.yaml (in . or ./config), applies
// RAPIDAID_* environment overrides and exits on any error.
func Load() *Config {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	cfg, err := load(v)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	return cfg
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_port", DefaultServerPort)
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("notification.send_timeout", DefaultSendTimeout)
	v.SetDefault("notification.concurrency", 1)
	v.SetDefault("notification.sms.verify_on_startup", true)
	v.SetDefault("notification.email.smtp_port", DefaultSMTPPort)
	v.SetDefault("notification.email.from_name", "Disaster Alert System")
	v.SetDefault("notification.email.verify_on_startup", true)

	// Keys that only come from the environment must be known to viper to be
	// picked up by Unmarshal.
	for _, key := range []string{
		"database_url",
		"jwt_secret",
		"notification.sms.account_sid",
		"notification.sms.auth_token",
		"notification.sms.from",
		"notification.email.from",
		"notification.email.smtp_host",
		"notification.email.username",
		"notification.email.password",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Fallback defaults
	if cfg.ServerPort == "" {
		cfg.ServerPort = DefaultServerPort
	}
	if cfg.Notification.SendTimeout <= 0 {
		cfg.Notification.SendTimeout = DefaultSendTimeout
	}
	if cfg.Notification.Concurrency <= 0 {
		cfg.Notification.Concurrency = 1
	}
	if cfg.Notification.Email.SMTPPort == 0 {
		cfg.Notification.Email.SMTPPort = DefaultSMTPPort
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("jwt_secret must be set")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("database_url must be set")
	}
	return &cfg, nil
}
