package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config holds all runtime configuration.  Every field maps to an
// environment variable; nested groups use their own prefix.
type Config struct {
	Env         string   `env:"APP_ENV" envDefault:"dev"`
	Port        string   `env:"PORT" envDefault:"5005"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	TokenSecret string   `env:"TOKEN_SIGN_SECRET,required"`
	BcryptCost  int      `env:"BCRYPT_COST" envDefault:"10"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	Store     StoreConfig
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Cache     CacheConfig     `envPrefix:"CACHE_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Events    EventsConfig
	S3        S3Config `envPrefix:"S3_"`
}

// StoreConfig selects and addresses the document store.
type StoreConfig struct {
	Driver       string        `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI     string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	Database     string        `env:"DATABASE_NAME" envDefault:"cinereview"`
	Transactions bool          `env:"MONGO_TRANSACTIONS" envDefault:"false"`
	Timeout      time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
}

// EventsConfig addresses the activity broker.  An empty URL disables
// publishing.
type EventsConfig struct {
	URL     string `env:"RABBITMQ_URL"`
	Queue   string `env:"EVENTS_QUEUE" envDefault:"catalog.activity"`
	LogPath string `env:"ACTIVITY_LOG" envDefault:"logs/activity.log"`
}

// S3Config addresses the image bucket.  An empty endpoint disables uploads.
type S3Config struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"cinereview"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
	PublicURL string `env:"PUBLIC_URL"`
}

// Load reads an optional .env file, then the process environment, and
// returns the normalised configuration.  Variables already set in the
// environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses the process environment only.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if strings.TrimSpace(cfg.TokenSecret) == "" {
		return Config{}, errors.New("read config: TOKEN_SIGN_SECRET is empty")
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch cfg.Store.Driver {
	case DriverMongo, DriverMemory:
	default:
		return Config{}, fmt.Errorf("read config: unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
	if cfg.Store.Timeout <= 0 {
		cfg.Store.Timeout = 5 * time.Second
	}
	cfg.Cache.normalize()
	cfg.RateLimit.normalize()
	return cfg, nil
}

// IsProd reports whether the service runs in production.
func (c Config) IsProd() bool {
	e := strings.ToLower(c.Env)
	return e == "prod" || e == "production"
}
