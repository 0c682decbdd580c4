package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Env   string `env:"APP_ENV,default=dev"`
	Port  int    `env:"PORT,default=8080"`
	Store string `env:"STORE,default=postgres"`

	DBURL      string `env:"DATABASE_URL"`
	DBHost     string `env:"DB_HOST,default=127.0.0.1"`
	DBPort     string `env:"DB_PORT,default=5432"`
	DBUser     string `env:"DB_USER,default=todolist"`
	DBPassword string `env:"DB_PASSWORD,default=todolist"`
	DBName     string `env:"DB_NAME,default=todolist"`
	DBSSLMode  string `env:"DB_SSLMODE,default=disable"`
	DBMaxConns int32  `env:"DB_MAX_CONNS,default=5"`

	JWTKey      string `env:"JWT_KEY"`
	JWTIssuer   string `env:"JWT_ISSUER,default=todolist"`
	JWTAudience string `env:"JWT_AUDIENCE,default=todolist-clients"`

	// seeded at boot when missing
	AdminUserName  string `env:"ADMIN_USERNAME,default=Admin"`
	AdminEmail     string `env:"ADMIN_EMAIL,default=admin@abc.com"`
	AdminPassword  string `env:"ADMIN_PASSWORD,default=Admin@123"`
	AdminFirstName string `env:"ADMIN_FIRST_NAME,default=Admin"`
	AdminLastName  string `env:"ADMIN_LAST_NAME,default=User"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	OTELEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL,default=24h"`
	// 0 disables the background sweep
	SweepInterval time.Duration `env:"SWEEP_INTERVAL,default=1h"`
	PublicBaseURL string        `env:"PUBLIC_BASE_URL,default=http://localhost:8080"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
	AuthRatePerMinute  int    `env:"AUTH_RATE_PER_MINUTE,default=10"`
	AuthRateBurst      int    `env:"AUTH_RATE_BURST,default=5"`
	MaxBodyBytes       int64  `env:"MAX_BODY_BYTES,default=1048576"`
}

// Load reads envFile (if it exists) and then decodes the process environment.
func Load(envFile ...string) (Config, error) {
	// a missing .env is normal outside local dev
	_ = godotenv.Load(envFile...)

	var cfg Config

	err := envdecode.Decode(&cfg)

	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}

	if cfg.DBURL == "" {
		cfg.DBURL = cfg.buildDBURL()
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTKey) == "" {
		return errors.New("JWT_KEY is required")
	}

	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}

	if c.Store == StorePostgres && c.DBURL == "" {
		return errors.New("DATABASE_URL is required for the postgres store")
	}

	return nil
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func (c Config) AllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c Config) buildDBURL() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, duration)
}
