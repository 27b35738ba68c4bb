package handlers

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"ifc-processor/internal/common/config"
	"ifc-processor/internal/processor"
	"ifc-processor/internal/processor/models"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// ============================================================
// Upload Handlers
// ============================================================

// UploadIFC принимает IFC-файл и прогоняет полную обработку:
// этажи + элементы + таблица количеств + геометрия со слиянием
func UploadIFC(cfg *config.Config) fiber.Handler {
	return func(c fiber.Ctx) error {
		upload, errResp := saveUpload(c, cfg)
		if errResp != nil {
			return errResp(c)
		}
		// Временный файл убирается на любом пути выхода
		defer removeTemp(upload.path)

		log.Printf("[UPLOAD] Processing uploaded file: %s", upload.filename)

		result := processor.ProcessFile(upload.path)
		if !result.Success {
			return c.Status(500).JSON(models.APIResponse{
				Success: false,
				Error:   result.Error,
			})
		}

		return c.JSON(models.APIResponse{
			Success: true,
			Message: fmt.Sprintf("File %s processed successfully", upload.filename),
			Data:    result,
		})
	}
}

// ExtractGeometry облегченный вариант: только геометрия для визуализации
func ExtractGeometry(cfg *config.Config) fiber.Handler {
	return func(c fiber.Ctx) error {
		upload, errResp := saveUpload(c, cfg)
		if errResp != nil {
			return errResp(c)
		}
		defer removeTemp(upload.path)

		log.Printf("[UPLOAD] Extracting geometry from: %s", upload.filename)

		geometry, err := processor.ExtractGeometryFile(upload.path)
		if err != nil {
			return c.Status(500).JSON(models.APIResponse{
				Success: false,
				Error:   err.Error(),
			})
		}

		return c.JSON(models.APIResponse{Success: true, Data: geometry})
	}
}

// Statistics статистика файла без полной обработки
func Statistics(cfg *config.Config) fiber.Handler {
	return func(c fiber.Ctx) error {
		upload, errResp := saveUpload(c, cfg)
		if errResp != nil {
			return errResp(c)
		}
		defer removeTemp(upload.path)

		stats, err := processor.StatisticsFile(upload.path)
		if err != nil {
			return c.Status(500).JSON(models.APIResponse{
				Success: false,
				Error:   err.Error(),
			})
		}

		return c.JSON(models.APIResponse{Success: true, Data: stats})
	}
}

// ============================================================
// Upload plumbing
// ============================================================

type uploadedFile struct {
	path     string
	filename string
}

type errorResponse func(fiber.Ctx) error

func errJSON(status int, message string) errorResponse {
	return func(c fiber.Ctx) error {
		return c.Status(status).JSON(models.APIResponse{Success: false, Error: message})
	}
}

// saveUpload валидирует multipart-файл и кладет его во временный файл
// с uuid-именем, чтобы параллельные загрузки не пересекались
func saveUpload(c fiber.Ctx, cfg *config.Config) (uploadedFile, errorResponse) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		log.Printf("[UPLOAD] FormFile error: %v", err)
		return uploadedFile{}, errJSON(400, "file required in multipart/form-data")
	}

	if fileHeader.Filename == "" {
		return uploadedFile{}, errJSON(400, "No file selected")
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".ifc") {
		return uploadedFile{}, errJSON(400, "Invalid file type. Only .ifc files are allowed")
	}

	log.Printf("[UPLOAD] File received: %s, size: %d", fileHeader.Filename, fileHeader.Size)

	f, err := fileHeader.Open()
	if err != nil {
		return uploadedFile{}, errJSON(500, "failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return uploadedFile{}, errJSON(500, "failed to read file")
	}

	if len(data) > cfg.MaxFileSize {
		return uploadedFile{}, errJSON(413, fmt.Sprintf("File too large. Maximum size is %dMB", cfg.MaxFileSize/(1024*1024)))
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return uploadedFile{}, errJSON(500, "failed to prepare upload directory")
	}

	path := filepath.Join(cfg.UploadDir, "temp_"+uuid.NewString()+".ifc")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return uploadedFile{}, errJSON(500, "failed to save file")
	}

	return uploadedFile{path: path, filename: fileHeader.Filename}, nil
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[UPLOAD] Failed to remove temporary file %s: %v", path, err)
	}
}
