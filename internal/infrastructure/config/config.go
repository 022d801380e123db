package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	AuthModeHS256 = "hs256"
	AuthModeJWKS  = "jwks"

	MediaCloudinary = "cloudinary"
	MediaGridFS     = "gridfs"
)

type Config struct {
	Port      string `env:"PORT,       default=3000"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Mongo MongoConfig
	Redis RedisConfig
	Auth  AuthConfig
	Media MediaConfig
	HTTP  HTTPConfig

	CleanupWorkers int `env:"CLEANUP_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=paghive"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type AuthConfig struct {
	Mode             string        `env:"AUTH_MODE,         default=hs256"`
	JWTSecret        string        `env:"JWT_SECRET"`
	JWKSURL          string        `env:"JWKS_URL"`
	TokenTTL         time.Duration `env:"TOKEN_TTL,         default=24h"`
	EnforceOwnership bool          `env:"ENFORCE_OWNERSHIP, default=false"`
}

type MediaConfig struct {
	Backend          string `env:"MEDIA_BACKEND,     default=cloudinary"`
	CloudinaryURL    string `env:"CLOUDINARY_URL"`
	CloudinaryFolder string `env:"CLOUDINARY_FOLDER"`
	PublicURL        string `env:"MEDIA_PUBLIC_URL,  default=http://localhost:3000"`
}

type HTTPConfig struct {
	RateLimit   float64  `env:"RATE_LIMIT,   default=20"`
	BodyLimit   string   `env:"BODY_LIMIT,   default=10M"`
	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith is Load with an explicit lookuper, used by tests.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Auth.Mode = strings.ToLower(strings.TrimSpace(cfg.Auth.Mode))
	cfg.Media.Backend = strings.ToLower(strings.TrimSpace(cfg.Media.Backend))
	cfg.Media.PublicURL = strings.TrimRight(cfg.Media.PublicURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks requirements that span several fields.
func (c *Config) Validate() error {
	var errs []error

	switch c.Auth.Mode {
	case AuthModeHS256:
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required when AUTH_MODE=hs256"))
		}
	case AuthModeJWKS:
		if c.Auth.JWKSURL == "" {
			errs = append(errs, errors.New("JWKS_URL is required when AUTH_MODE=jwks"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}

	switch c.Media.Backend {
	case MediaCloudinary:
		if c.Media.CloudinaryURL == "" {
			errs = append(errs, errors.New("CLOUDINARY_URL is required when MEDIA_BACKEND=cloudinary"))
		}
	case MediaGridFS:
	default:
		errs = append(errs, fmt.Errorf("unknown MEDIA_BACKEND %q", c.Media.Backend))
	}

	if c.CleanupWorkers < 1 {
		errs = append(errs, errors.New("CLEANUP_WORKERS must be at least 1"))
	}
	if c.HTTP.RateLimit < 0 {
		errs = append(errs, errors.New("RATE_LIMIT must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
