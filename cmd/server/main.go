package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	catalogapp "github.com/empaques/backoffice/internal/application/catalog"
	partnerapp "github.com/empaques/backoffice/internal/application/partner"
	quotapp "github.com/empaques/backoffice/internal/application/quotation"
	"github.com/empaques/backoffice/internal/infrastructure/auth"
	"github.com/empaques/backoffice/internal/infrastructure/cache"
	"github.com/empaques/backoffice/internal/infrastructure/config"
	"github.com/empaques/backoffice/internal/infrastructure/dataservice"
	"github.com/empaques/backoffice/internal/infrastructure/logger"
	"github.com/empaques/backoffice/internal/interfaces/http/handler"
	"github.com/empaques/backoffice/internal/interfaces/http/middleware"
	"github.com/empaques/backoffice/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting back-office",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Data service client. The bearer credential falls back to the public
	// API key whenever no live session token is set.
	tokens := auth.NewSessionTokenSource(cfg.DataService.PublicKey)
	dsClient := dataservice.NewClient(
		dataservice.Config{
			BaseURL: cfg.DataService.BaseURL,
			APIKey:  cfg.DataService.PublicKey,
		},
		&http.Client{Timeout: cfg.DataService.Timeout},
		tokens,
		log,
	)

	productReader := dataservice.NewProductReader(dsClient)
	clientDirectory := dataservice.NewClientDirectory(dsClient)
	quotationGateway := dataservice.NewQuotationGateway(dsClient)

	// Optional Redis snapshot cache for the public catalog
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error("Error closing redis", zap.Error(err))
			}
		}()
		log.Info("Catalog snapshot cache enabled", zap.String("addr", cfg.Redis.Addr()))
	}
	snapshots := cache.NewCatalogSnapshotCache(rdb, cfg.Catalog.SnapshotTTL, log)

	// Application services
	catalogService := catalogapp.NewService(productReader, snapshots, log)
	resolverOpts := partnerapp.ResolverOptions{
		DebounceWindow: cfg.Resolver.DebounceWindow,
		MinLength:      cfg.Resolver.MinTaxIDLength,
		LookupTimeout:  cfg.Resolver.LookupTimeout,
	}
	searchResolver := partnerapp.NewResolver(clientDirectory, resolverOpts, nil, log)
	listService := quotapp.NewListService(quotationGateway, cfg.Editor.ListLimit, log)

	// Each editing request gets its own session with a fresh catalog load
	editorFactory := func() *quotapp.EditorSession {
		return quotapp.NewEditorSession(
			catalogapp.NewCache(productReader, log),
			productReader,
			quotationGateway,
			clientDirectory,
			resolverOpts,
			log,
		)
	}

	// Gin engine and middleware chain
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	middleware.SetupValidator()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler())

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewQuotationHandler(editorFactory, listService))
	r.Register(handler.NewCatalogHandler(catalogService))
	r.Register(handler.NewClientHandler(searchResolver))
	r.Register(handler.NewSystemHandler(cfg.App.Name, version))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports process liveness. The data service is not probed
// here; its availability surfaces per-request through the error taxonomy.
func healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
