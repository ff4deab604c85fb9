package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env         string `env:"ENV" envDefault:"production"`
	ServerPort  int    `env:"PORT" envDefault:"8400"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	Mongo     MongoConfig
	JWT       JWTConfig
	SMTP      SMTPConfig `envPrefix:"SMTP_"`
	MQ        MQConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig `envPrefix:"AUTH_RATE_"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI,required,notEmpty"`
	Database string `env:"MONGO_DB" envDefault:"newsroom"`
}

// JWTConfig holds one signing secret per token class.
type JWTConfig struct {
	AccessKey  string        `env:"JWT_ACCESS_KEY,required,notEmpty"`
	RefreshKey string        `env:"JWT_REFRESH_KEY,required,notEmpty"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"360h"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL" envDefault:"720h"`
}

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@localhost"`
}

// MQConfig selects the broker used for outbound mail. An empty backend
// means mail is sent inline.
type MQConfig struct {
	Backend  string         `env:"MQ_BACKEND"`
	Channel  string         `env:"MQ_MAIL_CHANNEL" envDefault:"newsroom.mail"`
	RabbitMQ RabbitMQConfig `envPrefix:"RABBITMQ_"`
	PubSub   PubSubConfig   `envPrefix:"PUBSUB_"`
}

type RabbitMQConfig struct {
	URL             string `env:"URL"`
	PrefetchCount   int    `env:"PREFETCH_COUNT" envDefault:"10"`
	QueueDurable    bool   `env:"QUEUE_DURABLE" envDefault:"true"`
	QueueAutoDelete bool   `env:"QUEUE_AUTO_DELETE" envDefault:"false"`
}

type PubSubConfig struct {
	ProjectID          string `env:"PROJECT_ID"`
	CredentialsFile    string `env:"CREDENTIALS_FILE"`
	SubscriptionSuffix string `env:"SUBSCRIPTION_SUFFIX" envDefault:"-sub"`
}

// StorageConfig selects the object store used for uploaded media. An empty
// backend disables uploads.
type StorageConfig struct {
	Backend   string      `env:"STORAGE_BACKEND"`
	PublicURL string      `env:"STORAGE_PUBLIC_URL"`
	Minio     MinioConfig `envPrefix:"MINIO_"`
	GCS       GCSConfig   `envPrefix:"GCS_"`
}

type MinioConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"newsroom"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

type GCSConfig struct {
	Bucket          string `env:"BUCKET"`
	ProjectID       string `env:"PROJECT_ID"`
	CredentialsFile string `env:"CREDENTIALS_FILE"`
}

type RateLimitConfig struct {
	PerSecond float64 `env:"LIMIT" envDefault:"1"`
	Burst     int     `env:"BURST" envDefault:"5"`
}

const (
	BackendRabbitMQ = "rabbitmq"
	BackendPubSub   = "pubsub"
	BackendMinio    = "minio"
	BackendGCS      = "gcs"
)

// LoadConfig reads the process environment once. In dev a local .env file
// is loaded first.
func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.JWT.AccessKey == c.JWT.RefreshKey {
		return errors.New("JWT_ACCESS_KEY and JWT_REFRESH_KEY must differ")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	switch c.MQ.Backend {
	case "", BackendRabbitMQ, BackendPubSub:
	default:
		return fmt.Errorf("unknown MQ_BACKEND %q", c.MQ.Backend)
	}
	switch c.Storage.Backend {
	case "", BackendMinio, BackendGCS:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return c.Env == "dev"
}

// Frontend builds an absolute link into the web client.
func (c Config) Frontend(path string) string {
	return strings.TrimRight(c.FrontendURL, "/") + "/" + strings.TrimLeft(path, "/")
}
