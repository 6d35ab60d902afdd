package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zuma-code/chat-and-prompt-management/internal/models"
	"github.com/zuma-code/chat-and-prompt-management/internal/services"
)

type PromptHandler struct {
	db *gorm.DB
}

func NewPromptHandler(db *gorm.DB) *PromptHandler {
	return &PromptHandler{db: db}
}

// ListPrompts returns prompts visible to the caller (owned or public),
// most used first.
func (h *PromptHandler) ListPrompts(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}

	q := h.db.Model(&models.Prompt{}).
		Where(h.db.Where("user_id = ?", userID).Or("is_public = ?", true))

	if category := c.Query("category"); category != "" && category != "all" {
		categoryID, err := uuid.Parse(category)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid category ID",
			})
		}
		q = q.Where("category_id = ?", categoryID)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(content) LIKE ?",
			pattern, pattern, pattern)
	}
	if tags := c.Query("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			q = q.Where("CAST(tags AS TEXT) LIKE ?", `%"`+strings.TrimSpace(tag)+`"%`)
		}
	}
	if visibility := c.Query("visibility"); visibility == "public" {
		q = q.Where("is_public = ?", true)
	} else if visibility == "private" {
		q = q.Where("is_public = ? AND user_id = ?", false, userID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list prompts",
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var prompts []models.Prompt
	if err := q.Preload("Category").
		Order("usage_count DESC").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&prompts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list prompts",
		})
	}

	return c.JSON(fiber.Map{
		"prompts": prompts,
		"total":   total,
	})
}

func (h *PromptHandler) GetPrompt(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}
	prompt, status := h.visiblePrompt(c.Params("id"), userID)
	if status != 0 {
		return promptLookupError(c, status)
	}
	return c.JSON(prompt)
}

// GetSnippet renders the prompt as an editor comment block.
func (h *PromptHandler) GetSnippet(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}
	prompt, status := h.visiblePrompt(c.Params("id"), userID)
	if status != 0 {
		return promptLookupError(c, status)
	}
	return c.JSON(fiber.Map{"snippet": services.GenerateSnippet(*prompt)})
}

func (h *PromptHandler) CreatePrompt(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}

	var req struct {
		Title       string   `json:"title"`
		Content     string   `json:"content"`
		Description string   `json:"description"`
		CategoryID  string   `json:"category_id"`
		Tags        []string `json:"tags"`
		IsPublic    bool     `json:"is_public"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}
	if req.Title == "" || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Title and content are required",
		})
	}

	prompt := models.Prompt{
		UserID:      &userID,
		Title:       req.Title,
		Content:     req.Content,
		Description: req.Description,
		Tags:        datatypesTags(req.Tags),
		IsPublic:    req.IsPublic,
	}
	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid category ID",
			})
		}
		prompt.CategoryID = &categoryID
	}

	if err := h.db.Create(&prompt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to create prompt",
		})
	}

	h.db.Preload("Category").First(&prompt, "id = ?", prompt.ID)
	return c.Status(fiber.StatusCreated).JSON(prompt)
}

func (h *PromptHandler) UpdatePrompt(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid prompt ID",
		})
	}

	var req struct {
		Title       *string   `json:"title"`
		Content     *string   `json:"content"`
		Description *string   `json:"description"`
		CategoryID  *string   `json:"category_id"`
		Tags        *[]string `json:"tags"`
		IsPublic    *bool     `json:"is_public"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.CategoryID != nil {
		if *req.CategoryID == "" {
			updates["category_id"] = nil
		} else {
			categoryID, err := uuid.Parse(*req.CategoryID)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error":   true,
					"message": "Invalid category ID",
				})
			}
			updates["category_id"] = categoryID
		}
	}
	if req.Tags != nil {
		updates["tags"] = datatypesTags(*req.Tags)
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}

	res := h.db.Model(&models.Prompt{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to update prompt",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Prompt not found",
		})
	}

	var prompt models.Prompt
	h.db.Preload("Category").First(&prompt, "id = ?", id)
	return c.JSON(prompt)
}

func (h *PromptHandler) DeletePrompt(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid prompt ID",
		})
	}

	res := h.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Prompt{})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to delete prompt",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Prompt not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Prompt deleted"})
}

// UsePrompt records a usage row and bumps the counter with a single atomic
// update, never read-modify-write.
func (h *PromptHandler) UsePrompt(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}
	prompt, status := h.visiblePrompt(c.Params("id"), userID)
	if status != 0 {
		return promptLookupError(c, status)
	}

	var req struct {
		ConversationID string `json:"conversation_id"`
	}
	_ = c.BodyParser(&req)

	usage := models.PromptUsage{
		PromptID: prompt.ID,
		UserID:   userID,
	}
	if req.ConversationID != "" {
		if convID, err := uuid.Parse(req.ConversationID); err == nil {
			usage.ConversationID = &convID
		}
	}

	if err := h.db.Create(&usage).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to record prompt usage",
		})
	}
	if err := h.db.Model(&models.Prompt{}).
		Where("id = ?", prompt.ID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to record prompt usage",
		})
	}

	return c.JSON(fiber.Map{"message": "Usage recorded"})
}

func (h *PromptHandler) ListCategories(c *fiber.Ctx) error {
	var categories []models.PromptCategory
	if err := h.db.Order("name ASC").Find(&categories).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list categories",
		})
	}
	return c.JSON(fiber.Map{"categories": categories})
}

func (h *PromptHandler) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Color       string `json:"color"`
	}
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Name is required",
		})
	}

	category := models.PromptCategory{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Color != "" {
		category.Color = req.Color
	}
	if err := h.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   true,
				"message": "Category already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to create category",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// visiblePrompt fetches a prompt inside the caller's visibility set. A
// prompt that exists but is not visible behaves exactly like one that does
// not exist. Returns a fiber status code on failure, 0 on success.
func (h *PromptHandler) visiblePrompt(rawID string, userID uuid.UUID) (*models.Prompt, int) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fiber.StatusBadRequest
	}
	var prompt models.Prompt
	err = h.db.Preload("Category").
		Where(h.db.Where("user_id = ?", userID).Or("is_public = ?", true)).
		First(&prompt, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.StatusNotFound
		}
		return nil, fiber.StatusInternalServerError
	}
	return &prompt, 0
}

func promptLookupError(c *fiber.Ctx, status int) error {
	switch status {
	case fiber.StatusBadRequest:
		return c.Status(status).JSON(fiber.Map{"error": true, "message": "Invalid prompt ID"})
	case fiber.StatusNotFound:
		return c.Status(status).JSON(fiber.Map{"error": true, "message": "Prompt not found"})
	default:
		return c.Status(status).JSON(fiber.Map{"error": true, "message": "Failed to load prompt"})
	}
}
