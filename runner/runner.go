// Package runner parses configuration and selects the process run mode.
package runner

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/qmarkhq/qmark/models"
	"github.com/qmarkhq/qmark/oauth"
)

const (
	RunModeWeb = iota + 1
	RunModeMigrate
	RunModeWorker
)

var ErrInvalidRunMode = errors.New("invalid run mode")

type Runner interface {
	Run(context.Context) error
	Close(context.Context) error
}

type Config struct {
	RunMode int

	Addr          string
	Dsn           string
	PublicBaseURL string
	Environment   string
	Debug         bool

	// EncryptionKey is the hex-encoded 32-byte key for token encryption.
	EncryptionKey string
	SessionSecret string
	StateSecret   string

	RedisAddr     string
	RedisPassword string
	Workers       int

	AllowedOrigins []string
}

func ParseConfig() *Config {
	cfg := Config{}

	var (
		migrate bool
		worker  bool
		origins string
	)

	flag.StringVar(&cfg.Addr, "addr", ":8080", "address to listen on")
	flag.StringVar(&cfg.Dsn, "dsn", "", "database connection string [defaults to DATABASE_URL]")
	flag.BoolVar(&migrate, "migrate", false, "run database migrations and exit")
	flag.BoolVar(&worker, "worker", false, "run the background task worker instead of the web server")
	flag.IntVar(&cfg.Workers, "workers", 10, "worker concurrency [worker mode only]")
	flag.BoolVar(&cfg.Debug, "debug", false, "enable debug logging")
	flag.StringVar(&origins, "allowed-origins", "", "comma separated list of allowed CORS origins")

	flag.Parse()

	if cfg.Dsn == "" {
		cfg.Dsn = os.Getenv("DATABASE_URL")
	}

	cfg.PublicBaseURL = os.Getenv("PUBLIC_BASE_URL")
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:8080"
	}

	cfg.Environment = os.Getenv("APP_ENV")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.EncryptionKey = os.Getenv("ENCRYPTION_KEY")
	cfg.SessionSecret = os.Getenv("SESSION_SECRET")

	// A dedicated state secret is optional; the session secret serves both.
	cfg.StateSecret = os.Getenv("OAUTH_STATE_SECRET")
	if cfg.StateSecret == "" {
		cfg.StateSecret = cfg.SessionSecret
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if origins == "" {
		origins = os.Getenv("ALLOWED_ORIGINS")
	}

	if origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}

	switch {
	case migrate:
		cfg.RunMode = RunModeMigrate
	case worker:
		cfg.RunMode = RunModeWorker
	default:
		cfg.RunMode = RunModeWeb
	}

	return &cfg
}

// Credentials reads the per-platform OAuth client credentials from the
// environment.
func (c *Config) Credentials() map[string]oauth.Credentials {
	return map[string]oauth.Credentials{
		models.PlatformGoogle: {
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		},
		models.PlatformFacebook: {
			ClientID:     os.Getenv("FACEBOOK_CLIENT_ID"),
			ClientSecret: os.Getenv("FACEBOOK_CLIENT_SECRET"),
		},
		models.PlatformInstagram: {
			ClientID:     os.Getenv("INSTAGRAM_CLIENT_ID"),
			ClientSecret: os.Getenv("INSTAGRAM_CLIENT_SECRET"),
		},
		models.PlatformWhatsApp: {
			ClientID:     os.Getenv("WHATSAPP_CLIENT_ID"),
			ClientSecret: os.Getenv("WHATSAPP_CLIENT_SECRET"),
		},
		models.PlatformTelegram: {
			ClientID:     os.Getenv("TELEGRAM_CLIENT_ID"),
			ClientSecret: os.Getenv("TELEGRAM_CLIENT_SECRET"),
		},
	}
}

// Logger builds the process logger.
func (c *Config) Logger() (*zap.Logger, error) {
	if c.Debug {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}
