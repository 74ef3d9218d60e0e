package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	StoreDriver string
	DatabaseURL string
	SqlitePath  string

	UploadRoot     string
	SourceBackend  string
	ArchiveBackend string
	ArchiveDir     string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	GenBackend      string
	AutoAgentAPIURL string
	AIAPIKey        string
	GenModel        string
	GenTimeout      time.Duration
	StreamTimeout   time.Duration
	StreamBuffer    int

	LogLevel    string
	JWTSecret   string
	CorsOrigins []string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SqlitePath:      getEnv("SQLITE_PATH", "data/paperlens.db"),
		UploadRoot:      getEnv("UPLOAD_ROOT", "."),
		SourceBackend:   strings.ToLower(getEnv("SOURCE_BACKEND", "local")),
		ArchiveBackend:  strings.ToLower(getEnv("ARCHIVE_BACKEND", "local")),
		ArchiveDir:      getEnv("ARCHIVE_DIR", "uploads/reports"),
		AwsAccessKey:    getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:    getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:       getEnv("AWS_REGION", "us-east-2"),
		BucketName:      getEnv("BUCKET_NAME", ""),
		GenBackend:      strings.ToLower(getEnv("GEN_BACKEND", "autoagent")),
		AutoAgentAPIURL: getEnv("AUTOAGENT_API_URL", "http://127.0.0.1:8000"),
		AIAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GenModel:        getEnv("GEN_MODEL", "gemini-1.5-flash"),
		GenTimeout:      getEnvDuration("GEN_TIMEOUT", 2*time.Minute),
		StreamTimeout:   getEnvDuration("STREAM_TIMEOUT", 10*time.Minute),
		StreamBuffer:    getEnvInt("STREAM_BUFFER", 256),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		CorsOrigins:     getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
	}

	if cfg.StoreDriver == "postgres" && cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("WARN: %s=%q not a positive int, using default %d", key, v, def)
		return def
	}
	return n
}

// getEnvDuration accepts Go duration strings ("90s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
	return def
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
