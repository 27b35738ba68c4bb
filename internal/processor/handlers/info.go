package handlers

import (
	"path/filepath"

	"ifc-processor/internal/common/config"
	"ifc-processor/internal/processor/models"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Info Handlers
// ============================================================

// Root информация о сервисе
func Root(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "IFC Processor API",
		"version": "1.0.0",
		"health":  "/health",
	})
}

// Health проверка живости сервиса
func Health(cfg *config.Config) fiber.Handler {
	return func(c fiber.Ctx) error {
		uploadDir, err := filepath.Abs(cfg.UploadDir)
		if err != nil {
			uploadDir = cfg.UploadDir
		}
		return c.JSON(models.APIResponse{
			Success: true,
			Message: "IFC Processor API is running",
			Data: fiber.Map{
				"status":        "healthy",
				"upload_folder": uploadDir,
			},
		})
	}
}
