package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverMongo    = "mongo"

	StorageDriverLocal = "local"
	StorageDriverMinIO = "minio"

	QueueDriverRedis  = "redis"
	QueueDriverMemory = "memory"
)

type Config struct {
	DB      DBConfig
	Redis   RedisConfig
	Session SessionConfig
	Storage StorageConfig
	Queue   QueueConfig
	Server  ServerConfig
}

type DBConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	TTL time.Duration
}

type StorageConfig struct {
	Driver     string
	FolderPath string
	MinIO      MinIOConfig
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type QueueConfig struct {
	Driver      string
	BufferSize  int
	PollTimeout time.Duration
}

type ServerConfig struct {
	Port        string
	BodyLimitMB int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	driver := getEnv("DB_DRIVER", DBDriverPostgres)
	defaultDBPort := "5432"
	if driver == DBDriverMongo {
		defaultDBPort = "27017"
	}

	return &Config{
		DB: DBConfig{
			Driver:   driver,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", defaultDBPort),
			User:     getEnv("DB_USER", "files_manager"),
			Password: getEnv("DB_PASSWORD", "files_manager"),
			Name:     getEnv("DB_DATABASE", getEnv("DB_NAME", "files_manager")),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			TTL: getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", StorageDriverLocal),
			FolderPath: getEnv("FOLDER_PATH", "/tmp/files_manager"),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", "files_manager"),
				SecretKey: getEnv("MINIO_SECRET_KEY", "files_manager_secret"),
				Bucket:    getEnv("MINIO_BUCKET", "files-manager"),
				UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
			},
		},
		Queue: QueueConfig{
			Driver:      getEnv("QUEUE_DRIVER", QueueDriverRedis),
			BufferSize:  getEnvAsInt("QUEUE_BUFFER_SIZE", 100),
			PollTimeout: getEnvAsDuration("QUEUE_POLL_TIMEOUT", 2*time.Second),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", getEnv("PORT", "5000")),
			BodyLimitMB: getEnvAsInt("BODY_LIMIT_MB", 50),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
