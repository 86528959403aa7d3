package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type StoreDriver string

const (
	PostgresDriver StoreDriver = "postgres"
	MongoDriver    StoreDriver = "mongo"
	MemoryDriver   StoreDriver = "memory"
)

type MediaProvider string

const (
	CloudinaryProvider MediaProvider = "cloudinary"
	S3Provider         MediaProvider = "s3"
	NoMediaProvider    MediaProvider = "none"
)

const MaxFeedPageSize = 100

// Config regroupe tout ce qui est lu dans l'environnement au démarrage
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	StoreDriver   StoreDriver
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	StoreTimeout  time.Duration
	TxMaxAttempts int
	TxBackoff     time.Duration
	FeedPageSize  int

	JWTSecret   string
	RedisURL    string
	CORSOrigins []string

	MediaProvider     MediaProvider
	CloudinaryName    string
	CloudinaryKey     string
	CloudinarySecret  string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKey       string
	S3SecretKey       string
	S3PublicURLPrefix string
}

// Load lit le fichier .env s'il existe puis les variables d'environnement
func Load() (*Config, error) {
	// .env is optional, the system environment wins anyway
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		GinMode:           getEnv("GIN_MODE", "release"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		StoreDriver:       StoreDriver(strings.ToLower(getEnv("STORE_DRIVER", string(PostgresDriver)))),
		DatabaseURL:       os.Getenv("DB_URL"),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDatabase:     getEnv("MONGO_DATABASE", "rede_social"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		RedisURL:          os.Getenv("REDIS_URL"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		MediaProvider:     MediaProvider(strings.ToLower(getEnv("MEDIA_PROVIDER", string(NoMediaProvider)))),
		CloudinaryName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryKey:     os.Getenv("CLOUDINARY_API_KEY"),
		CloudinarySecret:  os.Getenv("CLOUDINARY_API_SECRET"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Region:          os.Getenv("S3_REGION"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKey:       os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:       os.Getenv("S3_SECRET_KEY"),
		S3PublicURLPrefix: os.Getenv("S3_PUBLIC_URL_PREFIX"),
	}

	var err error
	if cfg.StoreTimeout, err = getDuration("STORE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.TxBackoff, err = getDuration("TX_BACKOFF", 10*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.TxMaxAttempts, err = getInt("TX_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.FeedPageSize, err = getInt("FEED_PAGE_SIZE", 20); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case PostgresDriver:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DB_URL must be set when STORE_DRIVER=postgres")
		}
	case MongoDriver:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI must be set when STORE_DRIVER=mongo")
		}
	case MemoryDriver:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.MediaProvider {
	case CloudinaryProvider, S3Provider, NoMediaProvider:
	default:
		return fmt.Errorf("unknown MEDIA_PROVIDER %q", c.MediaProvider)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.TxMaxAttempts < 1 {
		return fmt.Errorf("TX_MAX_ATTEMPTS must be at least 1")
	}
	if c.FeedPageSize < 1 || c.FeedPageSize > MaxFeedPageSize {
		return fmt.Errorf("FEED_PAGE_SIZE must be between 1 and %d", MaxFeedPageSize)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
