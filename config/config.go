// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// All configuration comes from the environment under the MPESA_ prefix,
// loaded once at startup and treated as immutable afterwards.
type Config struct {
	Mpesa    MpesaConfig
	Database DatabaseConfig
}

type MpesaConfig struct {
	BaseURL           string
	ConsumerKey       string
	ConsumerSecret    string
	Passkey           string
	CallbackURL       string
	Environment       string
	CallbackPort      string
	BusinessShortCode string
	PartyB            string
	CertificatePath   string
	HTTPTimeout       time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func Load() (*Config, error) {
	cfg := &Config{
		Mpesa: MpesaConfig{
			BaseURL:           getEnv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
			ConsumerKey:       os.Getenv("MPESA_CONSUMER_KEY"),
			ConsumerSecret:    os.Getenv("MPESA_CONSUMER_SECRET"),
			Passkey:           os.Getenv("MPESA_PASSKEY"),
			CallbackURL:       os.Getenv("MPESA_CALLBACK_URL"),
			Environment:       getEnv("MPESA_ENVIRONMENT", "sandbox"),
			CallbackPort:      getEnv("MPESA_CALLBACK_PORT", "8030"),
			BusinessShortCode: os.Getenv("MPESA_BUSINESS_SHORT_CODE"),
			PartyB:            os.Getenv("MPESA_PARTY_B"),
			CertificatePath:   os.Getenv("MPESA_CERTIFICATE_PATH"),
			HTTPTimeout:       time.Duration(getEnvInt("MPESA_HTTP_TIMEOUT_SECS", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("MPESA_DB_HOST", "localhost"),
			Port:     getEnv("MPESA_DB_PORT", "5432"),
			User:     getEnv("MPESA_DB_USER", "postgres"),
			Password: os.Getenv("MPESA_DB_PASSWORD"),
			DBName:   getEnv("MPESA_DB_NAME", "mpesa_gateway"),
			SSLMode:  getEnv("MPESA_DB_SSL_MODE", "disable"),
		},
	}

	required := []struct {
		key   string
		value string
	}{
		{"MPESA_CONSUMER_KEY", cfg.Mpesa.ConsumerKey},
		{"MPESA_CONSUMER_SECRET", cfg.Mpesa.ConsumerSecret},
		{"MPESA_PASSKEY", cfg.Mpesa.Passkey},
		{"MPESA_CALLBACK_URL", cfg.Mpesa.CallbackURL},
		{"MPESA_BUSINESS_SHORT_CODE", cfg.Mpesa.BusinessShortCode},
		{"MPESA_PARTY_B", cfg.Mpesa.PartyB},
		{"MPESA_CERTIFICATE_PATH", cfg.Mpesa.CertificatePath},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("missing required environment variable: %s", r.key)
		}
	}

	return cfg, nil
}

// ConnString builds the pgx connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
