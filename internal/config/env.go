package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level      string
    Pretty     bool
    File       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
    Port            string
    ShutdownTimeout time.Duration
}

// StoreConfig selects how the batch set is persisted.
type StoreConfig struct {
    Backend  string // "file"|"redis"
    DataDir  string
    RedisURL string
}

// BlobConfig selects where normalized rasters live.
type BlobConfig struct {
    Backend            string // "file"|"s3"
    S3Bucket           string
    S3Prefix           string
    EncryptionPassword string
}

// IngestConfig bounds uploads and normalization.
type IngestConfig struct {
    MaxW          int
    MaxH          int
    JPEGQuality   int
    MaxFiles      int
    MaxFileSizeMB int64
}

// RenderConfig tunes thumbnail rasterization of composed documents.
type RenderConfig struct {
    ThumbnailDPI     int
    ThumbnailQuality int
    MaxInflight      int
}

// Config is the top-level configuration.
type Config struct {
    Logging LoggingConfig
    Axiom   AxiomConfig
    Server  ServerConfig
    Store   StoreConfig
    Blob    BlobConfig
    Ingest  IngestConfig
    Render  RenderConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    // Logging defaults
    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/lotespdf.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    // Axiom defaults
    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_lotespdf",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Server = ServerConfig{
        Port:            getEnv("PORT", "8080"),
        ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
    }

    cfg.Store = StoreConfig{
        Backend:  getEnv("STORE_BACKEND", "file"),
        DataDir:  getEnv("DATA_DIR", "data"),
        RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
    }

    cfg.Blob = BlobConfig{
        Backend:            getEnv("BLOB_BACKEND", "file"),
        S3Bucket:           getEnv("AWS_S3_BUCKET", ""),
        S3Prefix:           getEnv("S3_KEY_PREFIX", "lotes"),
        EncryptionPassword: getEnv("BLOB_ENCRYPTION_PASSWORD", ""),
    }

    cfg.Ingest = IngestConfig{
        MaxW:          parseInt(getEnv("NORMALIZE_MAX_WIDTH", "800"), 800),
        MaxH:          parseInt(getEnv("NORMALIZE_MAX_HEIGHT", "800"), 800),
        JPEGQuality:   parseInt(getEnv("NORMALIZE_JPEG_QUALITY", "80"), 80),
        MaxFiles:      parseInt(getEnv("UPLOAD_MAX_FILES", "400"), 400),
        MaxFileSizeMB: int64(parseInt(getEnv("UPLOAD_MAX_FILE_SIZE_MB", "10"), 10)),
    }

    cfg.Render = RenderConfig{
        ThumbnailDPI:     parseInt(getEnv("THUMBNAIL_DPI", "120"), 120),
        ThumbnailQuality: parseInt(getEnv("THUMBNAIL_JPEG_QUALITY", "85"), 85),
        MaxInflight:      parseInt(getEnv("RENDER_MAX_INFLIGHT", "2"), 2),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
