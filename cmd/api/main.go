//	@title			City Bites API
//	@version		1.0
//	@description	Backend for the City Bites food initiative site: restaurants, events, page sections and their media.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/citybites/site/internal/admin"
	"github.com/citybites/site/internal/auth"
	"github.com/citybites/site/internal/config"
	"github.com/citybites/site/internal/db"
	"github.com/citybites/site/internal/event"
	"github.com/citybites/site/internal/media"
	appMiddleware "github.com/citybites/site/internal/middleware"
	"github.com/citybites/site/internal/observability"
	"github.com/citybites/site/internal/restaurant"
	"github.com/citybites/site/internal/section"
	"github.com/citybites/site/internal/storage"

	_ "github.com/citybites/site/docs/swagger"
)

func main() {
	cfg := config.Load()

	logger, err := observability.NewLogger(!cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	blobs, err := newStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("object storage init failed", zap.Error(err))
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		logger.Fatal("metrics init failed", zap.Error(err))
	}

	// Wire dependencies: repository → service → handler
	adminRepo := admin.NewRepository(pool)
	adminSvc := admin.NewService(adminRepo)
	adminHandler := admin.NewHandler(adminSvc)

	authRepo := auth.NewRepository(pool)
	authSvc := auth.NewService(authRepo, cfg.JWTSecret, cfg.JWTTTL, logger)
	authHandler := auth.NewHandler(authSvc)

	restaurantRepo := restaurant.NewRepository(pool)
	restaurantHandler := restaurant.NewHandler(restaurant.NewService(restaurantRepo), blobs)

	eventRepo := event.NewRepository(pool)
	eventHandler := event.NewHandler(event.NewService(eventRepo), blobs)

	sectionRepo := section.NewRepository(pool)

	mediaSvc := media.NewService(blobs, map[media.Kind]media.Owner{
		media.KindRestaurant: restaurantRepo,
		media.KindEvent:      eventRepo,
		media.KindSection:    sectionRepo,
	}, logger, metrics)
	mediaHandler := media.NewHandler(mediaSvc, cfg.UploadMaxBytes, logger)

	sectionHandler := section.NewHandler(section.NewService(sectionRepo, mediaSvc, logger), blobs, logger)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(logger, metrics))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		// Public read endpoints
		r.Get("/restaurants", restaurantHandler.List)
		r.Get("/restaurants/{id}", restaurantHandler.Get)
		r.Get("/events", eventHandler.List)
		r.Get("/events/{id}", eventHandler.Get)
		r.Get("/sections", sectionHandler.List)
		r.Get("/sections/{key}", sectionHandler.Get)

		r.Post("/auth/login", authHandler.Login)

		// Every mutation requires a verified administrator.
		r.Route("/admin", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Use(appMiddleware.RequireAdmin(adminSvc, logger))

			r.Get("/me", adminHandler.GetMe)

			r.Post("/restaurants", restaurantHandler.Create)
			r.Patch("/restaurants/{id}", restaurantHandler.Update)
			r.Post("/events", eventHandler.Create)
			r.Patch("/events/{id}", eventHandler.Update)
			r.Put("/sections/{key}", sectionHandler.Update)

			r.Post("/media/actions", mediaHandler.Action)
			r.Put("/media/{kind}/{ownerID}/{slot}", mediaHandler.Replace)
			r.Post("/media/{kind}/{ownerID}/{slot}", mediaHandler.Append)
			r.Delete("/media/{kind}/{ownerID}/{slot}", mediaHandler.Remove)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.AppEnv),
			zap.String("storage", cfg.StorageDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageDriver == "memory" {
		logger.Warn("using in-memory blob storage, uploads are lost on restart")
		return storage.NewMemoryStorage(cfg.StoragePublicBase), nil
	}
	return storage.NewMinioStorage(ctx, storage.MinioOptions{
		Endpoint:   cfg.StorageEndpoint,
		AccessKey:  cfg.StorageAccessKey,
		SecretKey:  cfg.StorageSecretKey,
		Bucket:     cfg.StorageBucket,
		PublicBase: cfg.StoragePublicBase,
		UseSSL:     cfg.StorageUseSSL,
	}, logger)
}
