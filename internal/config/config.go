package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	Storage         string
	DatabaseURL     string
	SQLitePath      string
	SearchIndexPath string
	LogLevel        string
	LogFormat       string
	SiteName        string
	// Публиковать ли новые ссылки во внешнем сервисе закладок по умолчанию
	DefaultExternalLinkPost bool
	AllowRawHTML            bool

	Comments  CommentsConfig
	Akismet   AkismetConfig
	Delicious DeliciousConfig
	SMTP      SMTPConfig
	Managers  []string
}

type CommentsConfig struct {
	ModerateAfter     time.Duration
	EmailNotification bool
}

type AkismetConfig struct {
	Enabled bool
	APIKey  string
	BlogURL string
}

type DeliciousConfig struct {
	User     string
	Password string
	BaseURL  string
	Timeout  time.Duration
}

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
}

// Load читает конфигурацию из окружения. Файл .env, если он есть,
// подгружается заранее и не перекрывает уже заданные переменные.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv читает конфигурацию только из переменных окружения.
func FromEnv() (*Config, error) {
	moderateDays, err := getenvInt("COMMENTS_MODERATE_AFTER", 30)
	if err != nil {
		return nil, err
	}
	smtpPort, err := getenvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	deliciousTimeout, err := getenvDuration("DELICIOUS_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	externalPost, err := getenvBool("DEFAULT_EXTERNAL_LINK_POST", false)
	if err != nil {
		return nil, err
	}
	emailNotification, err := getenvBool("COMMENTS_EMAIL_NOTIFICATION", true)
	if err != nil {
		return nil, err
	}
	akismetEnabled, err := getenvBool("AKISMET_ENABLED", false)
	if err != nil {
		return nil, err
	}
	allowHTML, err := getenvBool("MARKUP_ALLOW_HTML", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                    getenvOrDefault("PORT", "8080"),
		Storage:                 getenvOrDefault("STORAGE", "in-memory"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		SQLitePath:              getenvOrDefault("SQLITE_PATH", "weblog.db"),
		SearchIndexPath:         os.Getenv("SEARCH_INDEX_PATH"),
		LogLevel:                getenvOrDefault("LOG_LEVEL", "info"),
		LogFormat:               getenvOrDefault("LOG_FORMAT", "text"),
		SiteName:                getenvOrDefault("SITE_NAME", "weblog"),
		DefaultExternalLinkPost: externalPost,
		AllowRawHTML:            allowHTML,
		Comments: CommentsConfig{
			ModerateAfter:     time.Duration(moderateDays) * 24 * time.Hour,
			EmailNotification: emailNotification,
		},
		Akismet: AkismetConfig{
			Enabled: akismetEnabled,
			APIKey:  os.Getenv("AKISMET_API_KEY"),
			BlogURL: os.Getenv("AKISMET_BLOG_URL"),
		},
		Delicious: DeliciousConfig{
			User:     os.Getenv("DELICIOUS_USER"),
			Password: os.Getenv("DELICIOUS_PASSWORD"),
			BaseURL:  getenvOrDefault("DELICIOUS_BASE_URL", "https://api.del.icio.us"),
			Timeout:  deliciousTimeout,
		},
		SMTP: SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: smtpPort,
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
		},
		Managers: splitList(os.Getenv("MANAGERS")),
	}, nil
}

// getenvOrDefault возвращает значение переменной окружения или def, если она не задана.
func getenvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
