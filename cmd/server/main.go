package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/jam-build-configurator/data"
	"github.com/localnerve/jam-build-configurator/internal/config"
	"github.com/localnerve/jam-build-configurator/internal/database"
	"github.com/localnerve/jam-build-configurator/internal/handlers"
	"github.com/localnerve/jam-build-configurator/internal/middleware"
	"github.com/localnerve/jam-build-configurator/internal/scene"
	"github.com/localnerve/jam-build-configurator/internal/services"

	_ "github.com/localnerve/jam-build-configurator/docs/api" // Swagger docs
)

// @title Configurator API
// @version 1.0.0
// @description Visibility rules engine and configuration service for the 3D product configurator
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/jam-build-configurator
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := services.NewConfigStore(db)

	// Seed the embedded presets
	if cfg.SeedPresets {
		presets, err := data.Presets()
		if err != nil {
			log.Fatalf("Failed to read presets: %v", err)
		}
		seeded, err := services.SeedPresets(ctx, store, presets)
		if err != nil {
			log.Fatalf("Failed to seed presets: %v", err)
		}
		log.Printf("Seeded %d of %d presets", seeded, len(presets))
	}

	assets := scene.NewPrefetcher(cfg.AssetRoot)
	if cfg.PrefetchAssets {
		prefetchAll(ctx, store, assets)
	}

	sessions := services.NewSessionStore(store, assets, cfg.FitMargin)
	go expireSessions(ctx, sessions, cfg.SessionTTL)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("configurator")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Initialize Authorizer on first admin request, when the request host is known
	admin := func(c *fiber.Ctx) error {
		if !services.IsAuthorizerInitialized() {
			if err := services.InitAuthorizer(cfg, c.Protocol(), c.Hostname()); err != nil {
				log.Printf("Authorizer unavailable: %v", err)
			}
		}
		return middleware.AuthAdmin()(c)
	}

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())
	api.Get("/health", func(c *fiber.Ctx) error {
		result := services.HealthCheck(cfg, db, sessions)
		status := fiber.StatusOK
		if result.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(result)
	})

	handlers.Register(api, handlers.Routes{
		Models:   &handlers.ModelHandler{Store: store},
		Sessions: &handlers.SessionHandler{Sessions: sessions},
		Admin:    admin,
	})

	// 404 handler
	app.Use(handlers.NotFound)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// prefetchAll warms the asset cache for every stored model
func prefetchAll(ctx context.Context, store services.ConfigStore, assets *scene.Prefetcher) {
	list, err := store.ListConfigs(ctx)
	if err != nil {
		log.Printf("Prefetch skipped: %v", err)
		return
	}
	for _, summary := range list {
		doc, _, err := store.LoadConfig(ctx, summary.Model)
		if err != nil {
			log.Printf("Prefetch %s skipped: %v", summary.Model, err)
			continue
		}
		if err := assets.PrefetchAssets(ctx, doc); err != nil {
			log.Printf("Prefetch incomplete: %v", err)
		}
	}
}

// expireSessions closes sessions older than ttl until ctx ends
func expireSessions(ctx context.Context, sessions *services.SessionStore, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := sessions.Expire(now.Add(-ttl)); n > 0 {
				log.Printf("Expired %d sessions", n)
			}
		}
	}
}
