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
)

type ConversationHandler struct {
	db *gorm.DB
}

func NewConversationHandler(db *gorm.DB) *ConversationHandler {
	return &ConversationHandler{db: db}
}

// ListConversations returns the caller's non-deleted conversations with
// optional status/search/tag filters, newest activity first.
func (h *ConversationHandler) ListConversations(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}

	q := h.db.Model(&models.Conversation{}).
		Where("user_id = ?", userID).
		Where("status <> ?", models.ConversationStatusDeleted)

	if status := c.Query("status"); status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if tags := c.Query("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			q = q.Where("CAST(tags AS TEXT) LIKE ?", `%"`+strings.TrimSpace(tag)+`"%`)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list conversations",
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

	var conversations []models.Conversation
	if err := q.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&conversations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list conversations",
		})
	}

	return c.JSON(fiber.Map{
		"conversations": conversations,
		"total":         total,
	})
}

func (h *ConversationHandler) GetConversation(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid conversation ID",
		})
	}

	var conversation models.Conversation
	err = h.db.First(&conversation, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   true,
				"message": "Conversation not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to load conversation",
		})
	}
	return c.JSON(conversation)
}

func (h *ConversationHandler) CreateConversation(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}

	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Title is required",
		})
	}

	conversation := models.Conversation{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Tags:        datatypesTags(req.Tags),
	}
	if err := h.db.Create(&conversation).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to create conversation",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(conversation)
}

func (h *ConversationHandler) UpdateConversation(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid conversation ID",
		})
	}

	var req struct {
		Title       *string   `json:"title"`
		Description *string   `json:"description"`
		Status      *string   `json:"status"`
		IsPinned    *bool     `json:"is_pinned"`
		Tags        *[]string `json:"tags"`
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
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		// Soft delete goes through DeleteConversation, not Update.
		if *req.Status != models.ConversationStatusActive && *req.Status != models.ConversationStatusArchived {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Status must be active or archived",
			})
		}
		updates["status"] = *req.Status
	}
	if req.IsPinned != nil {
		updates["is_pinned"] = *req.IsPinned
	}
	if req.Tags != nil {
		updates["tags"] = datatypesTags(*req.Tags)
	}

	res := h.db.Model(&models.Conversation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to update conversation",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Conversation not found",
		})
	}

	var conversation models.Conversation
	h.db.First(&conversation, "id = ?", id)
	return c.JSON(conversation)
}

// DeleteConversation soft-deletes by flipping the status; the row stays for
// message history but search never surfaces it again.
func (h *ConversationHandler) DeleteConversation(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid conversation ID",
		})
	}

	res := h.db.Model(&models.Conversation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", models.ConversationStatusDeleted)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to delete conversation",
		})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Conversation not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Conversation deleted"})
}

func (h *ConversationHandler) ListMessages(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid conversation ID",
		})
	}

	// Ownership check doubles as the existence check.
	var conversation models.Conversation
	if err := h.db.First(&conversation, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Conversation not found",
		})
	}

	var messages []models.Message
	if err := h.db.Where("conversation_id = ?", id).Order("created_at ASC").Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list messages",
		})
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func (h *ConversationHandler) AddMessage(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid conversation ID",
		})
	}

	var req struct {
		Role     string         `json:"role"`
		Content  string         `json:"content"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}
	if req.Role != "user" && req.Role != "assistant" && req.Role != "system" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Role must be user, assistant, or system",
		})
	}
	if req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Content is required",
		})
	}

	var conversation models.Conversation
	if err := h.db.First(&conversation, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Conversation not found",
		})
	}

	message := models.Message{
		ConversationID: id,
		Role:           req.Role,
		Content:        req.Content,
	}
	if req.Metadata != nil {
		message.Metadata = mustJSON(req.Metadata)
	}
	if err := h.db.Create(&message).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to add message",
		})
	}

	// New activity bumps the conversation's updated_at.
	h.db.Model(&models.Conversation{}).Where("id = ?", id).Update("updated_at", time.Now())

	return c.Status(fiber.StatusCreated).JSON(message)
}
