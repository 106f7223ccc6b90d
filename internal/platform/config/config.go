// Package config loads process configuration from the environment.
//
// An optional .env file is read first; variables already set in the
// environment take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type StorageBackend string

const (
	StorageMemory   StorageBackend = "memory"
	StorageMongo    StorageBackend = "mongo"
	StoragePostgres StorageBackend = "postgres"
)

type ImageHost string

const (
	ImageHostCloudinary ImageHost = "cloudinary"
	ImageHostGCS        ImageHost = "gcs"
)

// ServerConfig configures cmd/api.
type ServerConfig struct {
	Port            string         `envconfig:"PORT" default:"8080"`
	StorageBackend  StorageBackend `envconfig:"STORAGE_BACKEND" default:"memory"`
	MongoURI        string         `envconfig:"MONGODB_URI"`
	MongoDatabase   string         `envconfig:"MONGODB_DATABASE" default:"teamsite"`
	DatabaseURL     string         `envconfig:"DATABASE_URL"`
	DBAutoMigrate   bool           `envconfig:"DB_AUTO_MIGRATE" default:"false"`
	AdminToken      string         `envconfig:"ADMIN_TOKEN"`
	LogLevel        string         `envconfig:"LOG_LEVEL" default:"info"`
	ShutdownTimeout time.Duration  `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// ClientConfig configures cmd/rosterctl.
type ClientConfig struct {
	APIURL     string `envconfig:"ROSTER_API_URL" default:"http://localhost:8080"`
	AdminToken string `envconfig:"ROSTER_ADMIN_TOKEN"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"warn"`

	ImageHost              ImageHost     `envconfig:"IMAGE_HOST" default:"cloudinary"`
	CloudinaryCloudName    string        `envconfig:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryUploadPreset string        `envconfig:"CLOUDINARY_UPLOAD_PRESET" default:"team_members"`
	CloudinaryTimeout      time.Duration `envconfig:"CLOUDINARY_TIMEOUT" default:"60s"`
	GCSBucket              string        `envconfig:"GCS_BUCKET"`
	GCSCredentialsFile     string        `envconfig:"GCS_CREDENTIALS_FILE"`
}

// LoadServer reads ServerConfig. envFiles default to ".env"; missing files are ignored.
func LoadServer(envFiles ...string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := load(&cfg, envFiles); err != nil {
		return ServerConfig{}, err
	}
	cfg.StorageBackend = StorageBackend(strings.ToLower(strings.TrimSpace(string(cfg.StorageBackend))))
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func (c ServerConfig) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StorageMongo:
		if strings.TrimSpace(c.MongoURI) == "" {
			return errors.New("MONGODB_URI is required when STORAGE_BACKEND=mongo")
		}
	case StoragePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be memory, mongo or postgres, got %q", c.StorageBackend)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// LoadClient reads ClientConfig. envFiles default to ".env"; missing files are ignored.
func LoadClient(envFiles ...string) (ClientConfig, error) {
	var cfg ClientConfig
	if err := load(&cfg, envFiles); err != nil {
		return ClientConfig{}, err
	}
	cfg.ImageHost = ImageHost(strings.ToLower(strings.TrimSpace(string(cfg.ImageHost))))
	if err := cfg.Validate(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

// Validate checks the client settings. A missing Cloudinary cloud name is not
// an error here; uploads report it when they are attempted.
func (c ClientConfig) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return errors.New("ROSTER_API_URL must not be empty")
	}
	switch c.ImageHost {
	case ImageHostCloudinary:
		if c.CloudinaryTimeout <= 0 {
			return errors.New("CLOUDINARY_TIMEOUT must be positive")
		}
	case ImageHostGCS:
		if strings.TrimSpace(c.GCSBucket) == "" {
			return errors.New("GCS_BUCKET is required when IMAGE_HOST=gcs")
		}
	default:
		return fmt.Errorf("IMAGE_HOST must be cloudinary or gcs, got %q", c.ImageHost)
	}
	return nil
}

func load(dst any, envFiles []string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("error processing environment: %w", err)
	}
	return nil
}
