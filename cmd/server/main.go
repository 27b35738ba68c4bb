package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"ifc-processor/internal/common/config"
	"ifc-processor/internal/common/middleware"
	"ifc-processor/internal/processor/handlers"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// IFC Processor Service
// ============================================================

func main() {
	cfg := config.Load()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.MaxFileSize + 1024*1024, // запас на multipart-обвязку
		AppName:      "IFC Processor Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// ============================================================
	// Routes
	// ============================================================

	app.Get("/", handlers.Root)
	app.Get("/health", handlers.Health(cfg))

	app.Post("/upload-ifc", handlers.UploadIFC(cfg))
	app.Post("/extract-geometry", handlers.ExtractGeometry(cfg))
	app.Post("/ifc-statistics", handlers.Statistics(cfg))

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting IFC Processor Service on %s (env: %s)", addr, cfg.Environment)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
