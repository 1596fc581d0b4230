package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pdfgallery/pdfgallery/handlers"
	"github.com/pdfgallery/pdfgallery/internal/config"
	"github.com/pdfgallery/pdfgallery/internal/database"
	"github.com/pdfgallery/pdfgallery/internal/document/handler"
	"github.com/pdfgallery/pdfgallery/internal/document/repository"
	"github.com/pdfgallery/pdfgallery/internal/document/service"
	"github.com/pdfgallery/pdfgallery/internal/source"
	"github.com/pdfgallery/pdfgallery/internal/storage"
	"github.com/pdfgallery/pdfgallery/internal/thumbnail"
	"github.com/pdfgallery/pdfgallery/pkg/logger"
	"github.com/pdfgallery/pdfgallery/pkg/metrics"
	"github.com/pdfgallery/pdfgallery/pkg/middleware"
)

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.CORS())

	checks := map[string]handlers.Check{
		"gallery": func(context.Context) error {
			_, err := os.Stat(cfg.Gallery.Dir)
			return err
		},
	}

	// Connect to Redis early so the rate-limiter and thumbnail cache can use it
	var rdb *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			_ = client.Close()
		} else {
			rdb = client
			defer rdb.Close()
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
			logger.Infof("connected to Redis: %s", addr)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.Window))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// media library: MongoDB when configured, otherwise in-memory
	var attachments repository.AttachmentRepository = repository.NewMemoryRepo()
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectWithRetry(ctx, database.ConnectMongo, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
		if err != nil {
			logger.Warnf("media library falls back to memory: %v", err)
		} else {
			defer func() { _ = client.Disconnect(context.Background()) }()
			col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
			attachments = repository.NewMongoRepo(ctx, col)
			checks["mongodb"] = mongoCheck(client)
		}
	}

	thumbs := newThumbnailer(ctx, cfg, rdb)
	loc := cfg.Gallery.Location()
	dir := source.NewDirectory(cfg.Gallery.Dir, cfg.Server.BaseURL+cfg.Gallery.FilesURL, loc)
	media := source.NewMedia(attachments, cfg.Gallery.UploadsDir, cfg.Server.BaseURL+cfg.Gallery.UploadsURL, loc)
	svc := service.New(service.Config{
		Directory:   dir,
		Media:       media,
		Thumbnails:  thumbs,
		Location:    loc,
		Concurrency: cfg.Gallery.Concurrency,
	})

	handlers.RegisterHealth(r, checks)
	handlers.RegisterSwagger(r)
	handlers.RegisterAssets(r, cfg.Gallery.FallbackImage)
	handler.RegisterGalleryRoutes(r, svc, handler.Options{Location: loc, MaxUploadBytes: cfg.Gallery.MaxUploadMB << 20})
	r.Static(cfg.Gallery.FilesURL, cfg.Gallery.Dir)
	r.Static(cfg.Gallery.UploadsURL, cfg.Gallery.UploadsDir)
	r.Static(cfg.Gallery.ThumbnailsURL, cfg.Gallery.ThumbnailDir)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting gallery service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

func newThumbnailer(ctx context.Context, cfg *config.Config, rdb *redis.Client) *thumbnail.Thumbnailer {
	var cache thumbnail.Cache = thumbnail.NewMemoryCache()
	if rdb != nil {
		cache = thumbnail.NewRedisCache(rdb, "thumb:", cfg.Redis.TTL)
	}

	var store thumbnail.Store = thumbnail.LocalStore{BaseURL: cfg.Server.BaseURL + cfg.Gallery.ThumbnailsURL, Dir: cfg.Gallery.ThumbnailDir}
	if cfg.MinIO.Endpoint != "" {
		mc := storage.MinIOConfig(cfg.MinIO)
		s, err := storage.NewMinIOStorage(ctx, &mc)
		if err != nil {
			logger.Warnf("MinIO unavailable, serving thumbnails locally: %v", err)
		} else {
			store = s
		}
	}

	chain := thumbnail.BuildChain(thumbnail.ChainSettings{
		Order:         cfg.Thumbnail.Renderers,
		PdftoppmPath:  cfg.Thumbnail.PdftoppmPath,
		DPI:           cfg.Thumbnail.DPI,
		MaxWidth:      cfg.Thumbnail.MaxWidth,
		Quality:       cfg.Thumbnail.Quality,
		PDFRestAPIKey: cfg.Thumbnail.PDFRestAPIKey,
		PDFRestURL:    cfg.Thumbnail.PDFRestURL,
	})
	logger.Infof("thumbnail renderers: %q", chain.Name())

	var renderer thumbnail.Renderer
	if len(chain) > 0 {
		renderer = chain
	}
	return thumbnail.New(thumbnail.Config{
		Cache:       cache,
		Renderer:    renderer,
		Store:       store,
		Dir:         cfg.Gallery.ThumbnailDir,
		FallbackURL: fallbackURL(cfg),
	})
}

// fallbackURL is the placeholder link, relative to BaseURL unless the
// configured image is hosted elsewhere.
func fallbackURL(cfg *config.Config) string {
	img := cfg.Gallery.FallbackImage
	if img == "" {
		img = handlers.PlaceholderPath
	}
	if !strings.HasPrefix(img, "/") {
		return img
	}
	return cfg.Server.BaseURL + img
}

func mongoCheck(client *mongo.Client) handlers.Check {
	return func(ctx context.Context) error { return client.Ping(ctx, nil) }
}
