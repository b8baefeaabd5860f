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
	Port        string
	AppEnv      string
	DBUrl       string
	FrontendURL string
	// Extra CORS origins, comma separated
	AllowedOrigins []string
	// Supabase platform
	SupabaseUrl            string
	SupabaseAnonKey        string
	SupabaseServiceRoleKey string
	SupabaseJWTSecret      string
	SupabaseSQLEndpoint    string // defaults to the exec_sql RPC path
	// Supabase Storage S3 protocol (optional; REST upload is used when empty)
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitGlobalThreshold int
	RateLimitWriteThreshold  int
	UploadMaxPerMinute       int
	UploadMaxPerDay          int
	// clamd address for upload scanning (host:port or socket path); empty disables
	ClamAVAddr    string
	ClamAVTimeout time.Duration
	// Provisioning
	SchemaFlagTTL time.Duration
	SetupToken    string
	// Observability
	SwaggerEnabled bool
	SentryDSN      string
}

func LoadConfig() (*Config, error) {
	// .env is only present locally
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),
		DBUrl:       getEnv("DATABASE_URL", ""),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		// Trailing slash would produce paths like .co//rest
		SupabaseUrl:            strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey:        getEnv("SUPABASE_ANON_KEY", getEnv("SUPABASE_KEY", "")),
		SupabaseServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", getEnv("SUPABASE_SERVICE_KEY", "")),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseSQLEndpoint:    getEnv("SUPABASE_SQL_ENDPOINT", ""),
		S3Endpoint:             getEnv("SUPABASE_S3_ENDPOINT", ""),
		S3Region:               getEnv("SUPABASE_S3_REGION", "us-east-1"),
		S3AccessKeyID:          getEnv("SUPABASE_S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:      getEnv("SUPABASE_S3_SECRET_ACCESS_KEY", ""),
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Rate Limiting Configuration
		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitGlobalThreshold: getEnvInt("RATE_LIMIT_GLOBAL_THRESHOLD", 100),
		RateLimitWriteThreshold:  getEnvInt("RATE_LIMIT_WRITE_THRESHOLD", 20),
		UploadMaxPerMinute:       getEnvInt("UPLOAD_MAX_PER_MINUTE", 10),
		UploadMaxPerDay:          getEnvInt("UPLOAD_MAX_PER_DAY", 50),
		ClamAVAddr:               getEnv("CLAMAV_ADDR", ""),
		ClamAVTimeout:            getEnvDuration("CLAMAV_TIMEOUT", 30*time.Second),
		SchemaFlagTTL:            getEnvDuration("SCHEMA_FLAG_TTL", 10*time.Minute),
		SetupToken:               getEnv("SETUP_TOKEN", ""),
		SwaggerEnabled:           getEnvBool("SWAGGER_ENABLED", true),
		SentryDSN:                getEnv("SENTRY_DSN", ""),
	}
	cfg.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", ""))

	if cfg.SupabaseSQLEndpoint == "" && cfg.SupabaseUrl != "" {
		cfg.SupabaseSQLEndpoint = cfg.SupabaseUrl + "/rest/v1/rpc/exec_sql"
	}

	if cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Application may fail to connect.")
	}
	if !cfg.SupabaseConfigured() {
		log.Println("WARNING: SUPABASE_URL or SUPABASE_ANON_KEY missing. Provisioning and storage will report a configuration error.")
	}
	if cfg.SupabaseServiceRoleKey == "" {
		log.Println("WARNING: SUPABASE_SERVICE_ROLE_KEY not configured. Service-role SQL fallback is disabled.")
	}
	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Rate limiting and schema flag will use in-memory fallback.")
	}

	return cfg, nil
}

// SupabaseConfigured reports whether the platform URL and anonymous key are set.
func (c *Config) SupabaseConfigured() bool {
	return c.SupabaseUrl != "" && c.SupabaseAnonKey != ""
}

// S3Configured reports whether the S3 protocol credentials are complete.
func (c *Config) S3Configured() bool {
	return c.S3Endpoint != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || os.Getenv("GIN_MODE") == "release"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("10m") or plain seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.TrimRight(p, "/"))
		}
	}
	return out
}
