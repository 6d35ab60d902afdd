package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/zuma-code/chat-and-prompt-management/internal/models"
	"github.com/zuma-code/chat-and-prompt-management/internal/services"
	"gorm.io/gorm"
)

type CursorHandler struct {
	db     *gorm.DB
	cursor *services.CursorService
}

func NewCursorHandler(db *gorm.DB, cursor *services.CursorService) *CursorHandler {
	return &CursorHandler{db: db, cursor: cursor}
}

// Export returns the caller's corpus as an interchange document.
func (h *CursorHandler) Export(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}

	doc, err := h.cursor.Export(c.Context(), userID)
	if err != nil {
		slog.Error("Export failed", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Export failed",
		})
	}
	return c.JSON(doc)
}

// Import ingests an interchange document. The call always answers with a
// result object: a parse failure becomes its single error entry, and
// per-record failures are accumulated without aborting the batch.
func (h *CursorHandler) Import(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}

	var data services.CursorImportData
	if err := json.Unmarshal(c.Body(), &data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(services.ImportResult{
			Errors: []string{fmt.Sprintf("Failed to parse import document: %v", err)},
		})
	}

	result := h.cursor.Import(c.Context(), userID, data)
	return c.JSON(result)
}

// Sync returns the export document together with the workspace config.
func (h *CursorHandler) Sync(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}
	return c.JSON(h.cursor.Sync(c.Context(), userID))
}

// WorkspaceConfig builds the editor configuration for the prompts visible
// to the caller, most used first.
func (h *CursorHandler) WorkspaceConfig(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}

	var prompts []models.Prompt
	if err := h.db.
		Where(h.db.Where("user_id = ?", userID).Or("is_public = ?", true)).
		Preload("Category").
		Order("usage_count DESC").
		Find(&prompts).Error; err != nil {
		slog.Error("Workspace config failed", "error", err, "user_id", userID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to build workspace config",
		})
	}
	return c.JSON(h.cursor.WorkspaceConfig(prompts))
}
