package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultPort          = "8080"
	defaultDatabaseURL   = "formrelay.db"
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultUploadDir     = "./uploads"
	defaultMaxFileSize   = 10 * 1024 * 1024
	defaultExtensions    = "pdf,doc,docx,txt,png,jpg,jpeg,gif,zip"
	defaultSMTPPort      = 587
	defaultFromName      = "Form Service"
	defaultAppURL        = "http://localhost:8080"
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "changeme123"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	UploadDir         string
	MaxFileSize       int64
	AllowedExtensions map[string]bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	AppURL       string

	AdminEmail    string
	AdminPassword string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", defaultPort),
		DatabaseURL: getEnv("DATABASE_URL", defaultDatabaseURL),
		JWTSecret:   getEnv("JWT_SECRET", defaultJWTSecret),

		UploadDir: getEnv("UPLOAD_DIR", defaultUploadDir),

		SMTPHost:     getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		FromEmail:    os.Getenv("SMTP_FROM_EMAIL"),
		FromName:     getEnv("SMTP_FROM_NAME", defaultFromName),
		AppURL:       getEnv("APP_URL", defaultAppURL),

		AdminEmail:    getEnv("ADMIN_EMAIL", defaultAdminEmail),
		AdminPassword: getEnv("ADMIN_PASSWORD", defaultAdminPassword),
	}

	var err error
	cfg.MaxFileSize, err = parseInt64Env("MAX_FILE_SIZE", defaultMaxFileSize)
	if err != nil {
		return nil, err
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("MAX_FILE_SIZE must be > 0")
	}

	smtpPort, err := parseInt64Env("SMTP_PORT", defaultSMTPPort)
	if err != nil {
		return nil, err
	}
	cfg.SMTPPort = int(smtpPort)

	cfg.AllowedExtensions = parseExtensions(getEnv("ALLOWED_EXTENSIONS", defaultExtensions))
	if len(cfg.AllowedExtensions) == 0 {
		return nil, fmt.Errorf("ALLOWED_EXTENSIONS must not be empty")
	}

	return cfg, nil
}

func parseExtensions(raw string) map[string]bool {
	exts := make(map[string]bool)
	for _, e := range strings.Split(raw, ",") {
		e = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(e, ".")))
		if e != "" {
			exts[e] = true
		}
	}
	return exts
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseInt64Env(key string, fallback int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}
