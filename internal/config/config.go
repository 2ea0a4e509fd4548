package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Port                    string
	Docstore                Docstore
	JWTSecret               string
	JWTIssuer               string
	AccessTTLSeconds        int64
	SessionFile             string
	Media                   Media
	CorsOrigins             []string
	MetricsSampleSeconds    int
	SnapshotIntervalMinutes int
	BootstrapTolerateEmpty  bool
	LoginRatePerMinute      int
	LogDir                  string
	LogRetentionDays        int
}

// Docstore selects and locates the document store backend.
type Docstore struct {
	Driver        string
	DatabaseURL   string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
}

type Media struct {
	Driver                 string
	StoragePath            string
	PublicBaseURL          string
	CloudinaryCloudName    string
	CloudinaryUploadPreset string
}

func Load() Config {
	return Config{
		Port:                    envOr("PORT", "8080"),
		Docstore:                LoadDocstore(),
		JWTSecret:               mustEnv("JWT_SECRET"),
		JWTIssuer:               envOr("JWT_ISSUER", "portfolio"),
		AccessTTLSeconds:        int64(envOrInt("ACCESS_TTL_SECONDS", 14400)),
		SessionFile:             envOr("SESSION_FILE", "storage/session.json"),
		Media:                   loadMedia(),
		CorsOrigins:             parseCSV(envOr("CORS_ORIGINS", "")),
		MetricsSampleSeconds:    envOrInt("METRICS_SAMPLE_INTERVAL", 5),
		SnapshotIntervalMinutes: envOrInt("SNAPSHOT_INTERVAL_MINUTES", 60),
		BootstrapTolerateEmpty:  envOrBool("BOOTSTRAP_TOLERATE_EMPTY", false),
		LoginRatePerMinute:      envOrInt("LOGIN_RATE_PER_MINUTE", 5),
		LogDir:                  envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays:        envOrInt("LOG_RETENTION_DAYS", 7),
	}
}

// LoadDocstore reads only the document store settings; the CLI uses it
// without requiring server secrets.
func LoadDocstore() Docstore {
	driver := strings.ToLower(envOr("DOCSTORE_DRIVER", "sqlite"))
	cfg := Docstore{
		Driver:        driver,
		DatabaseURL:   envOr("DATABASE_URL", ""),
		SQLitePath:    envOr("SQLITE_PATH", "storage/portfolio.db"),
		MongoURI:      envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: envOr("MONGO_DATABASE", "portfolio"),
	}
	if driver == "postgres" {
		cfg.DatabaseURL = mustEnv("DATABASE_URL")
	}
	return cfg
}

func loadMedia() Media {
	cfg := Media{
		Driver:        strings.ToLower(envOr("MEDIA_DRIVER", "local")),
		StoragePath:   envOr("MEDIA_STORAGE_PATH", "storage/media"),
		PublicBaseURL: strings.TrimRight(envOr("MEDIA_PUBLIC_BASE_URL", ""), "/"),
	}
	if cfg.Driver == "cloudinary" {
		cfg.CloudinaryCloudName = mustEnv("CLOUDINARY_CLOUD_NAME")
		cfg.CloudinaryUploadPreset = mustEnv("CLOUDINARY_UPLOAD_PRESET")
	}
	return cfg
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
