package main

import (
	"context"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/padvis/ocr-serve/internal/config"
	"github.com/padvis/ocr-serve/internal/database"
	"github.com/padvis/ocr-serve/internal/handlers"
	"github.com/padvis/ocr-serve/internal/inference"
	"github.com/padvis/ocr-serve/internal/logger"
	"github.com/padvis/ocr-serve/internal/middleware"
	"github.com/padvis/ocr-serve/internal/services"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	cfg := config.Load()

	if err := logger.Setup(os.Getenv("LOG_LEVEL"), cfg.IsDevelopment()); err != nil {
		// Fall back to the zerolog defaults rather than refusing to start.
		log.Warn().Err(err).Msg("invalid LOG_LEVEL, using defaults")
	}

	engine, err := inference.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct OCR engine")
	}
	defer engine.Close()

	// Load the model handle before accepting traffic. A failed load is not
	// fatal: the process keeps serving and reports unready via /health and
	// /status until an operator restarts it.
	if err := engine.Load(context.Background()); err != nil {
		log.Error().Err(err).Str("engine", engine.Name()).
			Msg("model load failed, serving in unready state")
	} else {
		log.Info().Str("engine", engine.Name()).Str("device", engine.Device()).
			Msg("model loaded")
	}

	// Extraction history is optional; without DATABASE_URL the service is
	// stateless across requests.
	var db *database.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := database.RunMigrations(db); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	var archive *services.ArchiveService
	if cfg.ArchiveConfigured() {
		archive, err = services.NewArchiveService(
			cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL,
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize archive service, archiving disabled")
			archive = nil
		} else if err := archive.EnsureBucket(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to ensure archive bucket exists")
		}
	}

	// Sweep expired history records (and their archived images) on startup.
	if db != nil {
		go func() {
			ctx := context.Background()
			keys, err := db.CleanupExpiredExtractions(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("failed to clean up expired extractions")
				return
			}
			if len(keys) > 0 && archive != nil {
				if err := archive.DeleteMultiple(ctx, keys); err != nil {
					log.Warn().Err(err).Msg("failed to delete expired archived images")
				}
			}
		}()
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		// Batch requests carry several files in one body.
		BodyLimit: int(cfg.MaxUploadBytes) * 8,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	h := handlers.New(cfg, engine, db, archive)

	// Liveness endpoints stay public even with auth enabled.
	app.Get("/", h.Root)
	app.Get("/health", h.Health)
	app.Get("/status", h.Status)

	ocr := app.Group("/ocr")
	if cfg.AuthRequired {
		ocr.Use(middleware.AuthRequired(cfg))
	}
	ocr.Post("/extract", h.ExtractText)
	ocr.Post("/batch", h.BatchExtract)

	if h.HistoryEnabled() {
		extractions := app.Group("/extractions")
		if cfg.AuthRequired {
			extractions.Use(middleware.AuthRequired(cfg))
		}
		extractions.Get("/", h.ListExtractions)
		extractions.Get("/:id", h.GetExtraction)
		extractions.Get("/:id/image", h.GetExtractionImage)
		extractions.Delete("/:id", h.DeleteExtraction)
	}

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
