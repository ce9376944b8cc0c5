package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting, loaded from the environment.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// Google OAuth. The web client verifies ID tokens; iOS and desktop
	// clients exchange PKCE authorization codes.
	GoogleWebClientID         string
	GoogleWebClientSecret     string
	GoogleIOSClientID         string
	GoogleDesktopClientID     string
	GoogleDesktopClientSecret string

	// Comma-separated emails granted admin access.
	AdminEmails []string

	// Cloudflare R2 object storage for tournament logos. All five must be
	// set for uploads to work; an empty block disables the feature.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads configuration from the environment, optionally seeded from a
// .env file for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		JWTSecretKey: jwtKey,
		ServerPort:   port,

		GoogleWebClientID:         os.Getenv("GOOGLE_WEB_CLIENT_ID"),
		GoogleWebClientSecret:     os.Getenv("GOOGLE_WEB_CLIENT_SECRET"),
		GoogleIOSClientID:         os.Getenv("GOOGLE_IOS_CLIENT_ID"),
		GoogleDesktopClientID:     os.Getenv("GOOGLE_DESKTOP_CLIENT_ID"),
		GoogleDesktopClientSecret: os.Getenv("GOOGLE_DESKTOP_CLIENT_SECRET"),

		AdminEmails: splitEmails(os.Getenv("ADMIN_EMAILS")),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

// R2Configured reports whether all object storage settings are present.
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" &&
		c.R2AccessKeyID != "" &&
		c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" &&
		c.R2PublicBaseURL != ""
}

func splitEmails(raw string) []string {
	if raw == "" {
		return nil
	}
	var emails []string
	for _, part := range strings.Split(raw, ",") {
		email := strings.ToLower(strings.TrimSpace(part))
		if email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}
