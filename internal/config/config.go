package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdfgallery/pdfgallery/pkg/logger"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Gallery   GalleryConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	Thumbnail ThumbnailConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	LogLevel     string
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type GalleryConfig struct {
	Dir           string
	ThumbnailDir  string
	UploadsDir    string
	FilesURL      string
	ThumbnailsURL string
	UploadsURL    string
	FallbackImage string
	Timezone      string
	Concurrency   int
	MaxUploadMB   int64
}

// Location resolves the configured timezone, falling back to the local zone.
func (g GalleryConfig) Location() *time.Location {
	if g.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		logger.Warnf("unknown timezone %q, using local time: %v", g.Timezone, err)
		return time.Local
	}
	return loc
}

type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// Addr is the host:port pair, empty when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
	Prefix    string
	URLExpiry time.Duration
}

type ThumbnailConfig struct {
	Renderers     []string
	PdftoppmPath  string
	DPI           int
	MaxWidth      int
	Quality       int
	PDFRestAPIKey string
	PDFRestURL    string
}

type RateLimitConfig struct {
	Enabled  bool
	UseRedis bool
	RPS      float64
	Burst    int
	Window   time.Duration
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("GALLERY_DIR", "./pdfs")
	v.SetDefault("GALLERY_THUMBNAIL_DIR", "./pdfs/thumbnails")
	v.SetDefault("GALLERY_UPLOADS_DIR", "./uploads")
	v.SetDefault("GALLERY_FILES_URL", "/files")
	v.SetDefault("GALLERY_THUMBNAILS_URL", "/thumbnails")
	v.SetDefault("GALLERY_UPLOADS_URL", "/uploads")
	v.SetDefault("GALLERY_FALLBACK_IMAGE", "/assets/pdf-icon.jpg")
	v.SetDefault("GALLERY_CONCURRENCY", 4)
	v.SetDefault("GALLERY_MAX_UPLOAD_MB", 50)
	v.SetDefault("MONGODB_DATABASE", "pdfgallery")
	v.SetDefault("MONGODB_COLLECTION", "attachments")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL", 86400)
	v.SetDefault("MINIO_BUCKET", "pdfgallery")
	v.SetDefault("MINIO_PREFIX", "thumbnails")
	v.SetDefault("MINIO_URL_EXPIRY", 86400)
	v.SetDefault("THUMBNAIL_RENDERERS", "pdfrest,local")
	v.SetDefault("THUMBNAIL_PDFTOPPM", "pdftoppm")
	v.SetDefault("THUMBNAIL_DPI", 72)
	v.SetDefault("THUMBNAIL_MAX_WIDTH", 400)
	v.SetDefault("THUMBNAIL_QUALITY", 85)
	v.SetDefault("PDFREST_URL", "https://api.pdfrest.com/jpg")
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW", 60)

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			LogLevel:     v.GetString("LOG_LEVEL"),
			BaseURL:      strings.TrimRight(v.GetString("SERVER_BASE_URL"), "/"),
			ReadTimeout:  seconds(v, "SERVER_READ_TIMEOUT"),
			WriteTimeout: seconds(v, "SERVER_WRITE_TIMEOUT"),
		},
		Gallery: GalleryConfig{
			Dir:           v.GetString("GALLERY_DIR"),
			ThumbnailDir:  v.GetString("GALLERY_THUMBNAIL_DIR"),
			UploadsDir:    v.GetString("GALLERY_UPLOADS_DIR"),
			FilesURL:      v.GetString("GALLERY_FILES_URL"),
			ThumbnailsURL: v.GetString("GALLERY_THUMBNAILS_URL"),
			UploadsURL:    v.GetString("GALLERY_UPLOADS_URL"),
			FallbackImage: v.GetString("GALLERY_FALLBACK_IMAGE"),
			Timezone:      v.GetString("GALLERY_TIMEZONE"),
			Concurrency:   positive(v.GetInt("GALLERY_CONCURRENCY"), 4),
			MaxUploadMB:   int64(positive(v.GetInt("GALLERY_MAX_UPLOAD_MB"), 50)),
		},
		MongoDB: MongoDBConfig{
			URI:        v.GetString("MONGODB_URI"),
			Database:   v.GetString("MONGODB_DATABASE"),
			Collection: v.GetString("MONGODB_COLLECTION"),
			Timeout:    seconds(v, "MONGODB_TIMEOUT"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      seconds(v, "REDIS_TTL"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Region:    v.GetString("MINIO_REGION"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			Prefix:    v.GetString("MINIO_PREFIX"),
			URLExpiry: seconds(v, "MINIO_URL_EXPIRY"),
		},
		Thumbnail: ThumbnailConfig{
			Renderers:     splitList(v.GetString("THUMBNAIL_RENDERERS")),
			PdftoppmPath:  v.GetString("THUMBNAIL_PDFTOPPM"),
			DPI:           positive(v.GetInt("THUMBNAIL_DPI"), 72),
			MaxWidth:      positive(v.GetInt("THUMBNAIL_MAX_WIDTH"), 400),
			Quality:       clamp(v.GetInt("THUMBNAIL_QUALITY"), 1, 100, 85),
			PDFRestAPIKey: v.GetString("PDFREST_API_KEY"),
			PDFRestURL:    v.GetString("PDFREST_URL"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis: v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:      v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:    positive(v.GetInt("RATE_LIMIT_BURST"), 20),
			Window:   seconds(v, "RATE_LIMIT_WINDOW"),
		},
	}
	if cfg.RateLimit.RPS <= 0 {
		cfg.RateLimit.RPS = 10
	}

	if cfg.MongoDB.URI == "" {
		logger.Infof("MONGODB_URI not set; media library uses the in-memory repository")
	}

	return cfg, nil
}

func seconds(v *viper.Viper, key string) time.Duration {
	n := v.GetInt(key)
	if n < 0 {
		n = 0
	}
	return time.Duration(n) * time.Second
}

func positive(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

func clamp(n, lo, hi, def int) int {
	if n < lo || n > hi {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
