package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort  string `yaml:"server_port"`
	Environment string `yaml:"environment"`
	AppURL      string `yaml:"app_url"`

	FirebaseProject            string `yaml:"firebase_project_id"`
	FirebaseServiceAccountJSON string `yaml:"-"`
	FirebaseServiceAccountPath string `yaml:"firebase_service_account_path"`
	StorageBucket              string `yaml:"storage_bucket"`

	// StoreDriver selects the document store: "firestore" or "mongo".
	StoreDriver   string `yaml:"store_driver"`
	MongoURI      string `yaml:"mongodb_uri"`
	MongoDatabase string `yaml:"mongodb_database"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	Email EmailConfig `yaml:"email"`

	PresenceThreshold time.Duration `yaml:"presence_threshold"`
	MessagesPerMinute int           `yaml:"messages_per_minute"`
}

type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"-"`
	From     string `yaml:"from"`
}

// Enabled reports whether SMTP credentials are present. Without them every
// send is skipped.
func (e EmailConfig) Enabled() bool {
	return e.User != "" && e.Password != ""
}

func defaults() *Config {
	return &Config{
		ServerPort:        "8080",
		Environment:       "development",
		AppURL:            "http://localhost:5173",
		StoreDriver:       "firestore",
		MongoDatabase:     "secondlife",
		KafkaTopic:        "secondlife.events",
		PresenceThreshold: 60 * time.Second,
		MessagesPerMinute: 30,
		Email: EmailConfig{
			Host: "smtp.gmail.com",
			Port: 587,
		},
	}
}

// Load reads config.yaml (if present), then .env, then the process
// environment. Later sources win.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	overrideFromEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overrideFromEnv(cfg *Config) {
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.AppURL = getEnv("APP_URL", cfg.AppURL)

	cfg.FirebaseProject = getEnv("FIREBASE_PROJECT_ID", cfg.FirebaseProject)
	cfg.FirebaseServiceAccountJSON = getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", cfg.FirebaseServiceAccountJSON)
	cfg.FirebaseServiceAccountPath = getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", cfg.FirebaseServiceAccountPath)
	cfg.StorageBucket = getEnv("STORAGE_BUCKET", cfg.StorageBucket)

	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", cfg.StoreDriver))
	cfg.MongoURI = getEnv("MONGODB_URI", cfg.MongoURI)
	cfg.MongoDatabase = getEnv("MONGODB_DATABASE", cfg.MongoDatabase)

	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = int(getEnvAsInt64("REDIS_DB", int64(cfg.RedisDB)))

	if v := getEnv("KAFKA_BROKERS", ""); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)

	cfg.Email.Host = getEnv("EMAIL_HOST", cfg.Email.Host)
	cfg.Email.Port = int(getEnvAsInt64("EMAIL_PORT", int64(cfg.Email.Port)))
	cfg.Email.User = getEnv("EMAIL_USER", cfg.Email.User)
	cfg.Email.Password = getEnv("EMAIL_PASS", cfg.Email.Password)
	cfg.Email.From = getEnv("EMAIL_FROM", cfg.Email.From)
	if cfg.Email.From == "" {
		cfg.Email.From = cfg.Email.User
	}

	cfg.PresenceThreshold = getEnvAsDuration("PRESENCE_THRESHOLD", cfg.PresenceThreshold)
	cfg.MessagesPerMinute = int(getEnvAsInt64("MESSAGES_PER_MINUTE", int64(cfg.MessagesPerMinute)))
}

func validate(cfg *Config) error {
	switch cfg.StoreDriver {
	case "firestore":
	case "mongo":
		if cfg.MongoURI == "" {
			return errors.New("MONGODB_URI is required when STORE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (use firestore or mongo)", cfg.StoreDriver)
	}
	if cfg.PresenceThreshold <= 0 {
		return errors.New("presence threshold must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
