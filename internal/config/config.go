package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	MinIO    MinIOConfig    `yaml:"minio"`
	JWT      JWTConfig      `yaml:"jwt"`
	GenAI    GenAIConfig    `yaml:"genai"`
	Log      LogConfig      `yaml:"log"`
	Digest   DigestConfig   `yaml:"digest"`
	Seed     SeedConfig     `yaml:"seed"`
}

type ServerConfig struct {
	Port         string   `yaml:"port" env:"STOREWATCH_SERVER_PORT" env-default:"8080"`
	AllowOrigins string   `yaml:"allow_origins" env:"STOREWATCH_SERVER_ALLOW_ORIGINS" env-default:"http://localhost:3000,http://localhost:5173"`
	BodyLimitMB  int      `yaml:"body_limit_mb" env:"STOREWATCH_SERVER_BODY_LIMIT_MB" env-default:"20"`
	ExportLimit  int      `yaml:"export_limit" env:"STOREWATCH_SERVER_EXPORT_LIMIT" env-default:"5000"`
	TrustedHosts []string `yaml:"trusted_hosts" env:"STOREWATCH_SERVER_TRUSTED_HOSTS" env-separator:","`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" env:"STOREWATCH_DB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"STOREWATCH_DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"STOREWATCH_DB_USER" env-default:"storewatch"`
	Password string `yaml:"password" env:"STOREWATCH_DB_PASSWORD" env-default:"storewatch"`
	DBName   string `yaml:"dbname" env:"STOREWATCH_DB_NAME" env-default:"storewatch"`
	SSLMode  string `yaml:"sslmode" env:"STOREWATCH_DB_SSLMODE" env-default:"disable"`
	MaxOpen  int    `yaml:"max_open_conns" env:"STOREWATCH_DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdle  int    `yaml:"max_idle_conns" env:"STOREWATCH_DB_MAX_IDLE_CONNS" env-default:"5"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `yaml:"host" env:"STOREWATCH_REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"STOREWATCH_REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"STOREWATCH_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"STOREWATCH_REDIS_DB" env-default:"0"`
}

type MinIOConfig struct {
	Endpoint        string        `yaml:"endpoint" env:"STOREWATCH_MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string        `yaml:"access_key_id" env:"STOREWATCH_MINIO_ACCESS_KEY" env-default:"minioadmin"`
	SecretAccessKey string        `yaml:"secret_access_key" env:"STOREWATCH_MINIO_SECRET_KEY" env-default:"minioadmin"`
	BucketName      string        `yaml:"bucket" env:"STOREWATCH_MINIO_BUCKET" env-default:"storewatch-evidence"`
	UseSSL          bool          `yaml:"use_ssl" env:"STOREWATCH_MINIO_USE_SSL" env-default:"false"`
	URLExpiry       time.Duration `yaml:"url_expiry" env:"STOREWATCH_MINIO_URL_EXPIRY" env-default:"24h"`
	MaxObjectMB     int64         `yaml:"max_object_mb" env:"STOREWATCH_MINIO_MAX_OBJECT_MB" env-default:"15"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret" env:"STOREWATCH_JWT_SECRET"`
	ExpireHour int    `yaml:"expire_hour" env:"STOREWATCH_JWT_EXPIRE_HOUR" env-default:"24"`
	Issuer     string `yaml:"issuer" env:"STOREWATCH_JWT_ISSUER" env-default:"storewatch"`
}

// GenAIConfig configures the inference endpoint. Without an API key the service classifies with
// the keyword rules and transcription is unavailable.
type GenAIConfig struct {
	APIKey            string        `yaml:"api_key" env:"STOREWATCH_GENAI_API_KEY"`
	Model             string        `yaml:"model" env:"STOREWATCH_GENAI_MODEL" env-default:"gemini-2.5-flash"`
	TranscribeModel   string        `yaml:"transcribe_model" env:"STOREWATCH_GENAI_TRANSCRIBE_MODEL" env-default:"gemini-2.5-flash"`
	Timeout           time.Duration `yaml:"timeout" env:"STOREWATCH_GENAI_TIMEOUT" env-default:"45s"`
	Temperature       float32       `yaml:"temperature" env:"STOREWATCH_GENAI_TEMPERATURE" env-default:"0.2"`
	MediaFetchTimeout time.Duration `yaml:"media_fetch_timeout" env:"STOREWATCH_GENAI_MEDIA_FETCH_TIMEOUT" env-default:"15s"`
}

func (c GenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

type LogConfig struct {
	Level  string `yaml:"level" env:"STOREWATCH_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"STOREWATCH_LOG_FORMAT" env-default:"json"`
}

type DigestConfig struct {
	Enabled  bool   `yaml:"enabled" env:"STOREWATCH_DIGEST_ENABLED" env-default:"true"`
	Schedule string `yaml:"schedule" env:"STOREWATCH_DIGEST_SCHEDULE" env-default:"@every 15m"`
}

type SeedConfig struct {
	OnStart bool `yaml:"on_start" env:"STOREWATCH_SEED_ON_START" env-default:"true"`
}

// Load reads the optional YAML file at path and then the STOREWATCH_* environment, which
// takes precedence.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			return cfg, cfg.validate()
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required (STOREWATCH_JWT_SECRET)")
	}
	if c.JWT.ExpireHour <= 0 {
		return fmt.Errorf("jwt expire_hour must be positive, got %d", c.JWT.ExpireHour)
	}
	if c.GenAI.Timeout <= 0 {
		return fmt.Errorf("genai timeout must be positive, got %s", c.GenAI.Timeout)
	}
	return nil
}
