package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DBUrl              string
	JWTSecret          string
	JWTTTL             time.Duration
	CORSOrigins        string
	RateLimitPerMinute int
	SupabaseURL        string
	SupabaseBucket     string
	SupabaseServiceKey string
	AppEnv             string
	EnableDocs         bool
	LogFile            string

	OTELServiceName          string
	OTELServiceVersion       string
	OTELExporterOTLPEndpoint string
	OTELExporterOTLPHeaders  string
	OTELExporterOTLPInsecure bool

	SeedFile             string
	DefaultAdminName     string
	DefaultAdminEmail    string
	DefaultAdminPassword string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Port:                     getEnv("PORT", "8080"),
		DBUrl:                    getEnv("DB_URL", ""),
		JWTSecret:                jwtSecret,
		JWTTTL:                   getEnvDuration("JWT_TTL", 72*time.Hour),
		CORSOrigins:              getEnv("CORS_ORIGINS", "*"),
		RateLimitPerMinute:       getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		SupabaseURL:              getEnv("SUPABASE_URL", ""),
		SupabaseBucket:           getEnv("SUPABASE_BUCKET", ""),
		SupabaseServiceKey:       getEnv("SUPABASE_SERVICE_KEY", ""),
		AppEnv:                   normalizeEnv(getEnv("APP_ENV", "production")),
		EnableDocs:               getEnvBool("ENABLE_API_DOCS", false),
		LogFile:                  getEnv("LOG_FILE", ""),
		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "gym-management-api"),
		OTELServiceVersion:       getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELExporterOTLPHeaders:  getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		SeedFile:                 getEnv("SEED_FILE", "seed/fixtures.yaml"),
		DefaultAdminName:         getEnv("DEFAULT_ADMIN_NAME", "Admin"),
		DefaultAdminEmail:        getEnv("DEFAULT_ADMIN_EMAIL", ""),
		DefaultAdminPassword:     getEnv("DEFAULT_ADMIN_PASSWORD", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}

// StorageConfigured reports whether product image uploads can be served.
func (c *Config) StorageConfigured() bool {
	return c != nil && c.SupabaseURL != "" && c.SupabaseBucket != "" && c.SupabaseServiceKey != ""
}
