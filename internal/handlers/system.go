package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/zuma-code/chat-and-prompt-management/internal/models"
)

type SystemHandler struct {
	db *gorm.DB
}

func NewSystemHandler(db *gorm.DB) *SystemHandler {
	return &SystemHandler{db: db}
}

func (h *SystemHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": Version,
	})
}

// DashboardOverview aggregates the stat widgets shown on the dashboard.
func (h *SystemHandler) DashboardOverview(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return errUnauthorized(c)
	}

	var totalConversations, activeConversations, totalPrompts, totalMessages int64
	var promptsUsedToday, conversationsThisWeek int64

	h.db.Model(&models.Conversation{}).
		Where("user_id = ? AND status <> ?", userID, models.ConversationStatusDeleted).
		Count(&totalConversations)

	h.db.Model(&models.Conversation{}).
		Where("user_id = ? AND status = ?", userID, models.ConversationStatusActive).
		Count(&activeConversations)

	h.db.Model(&models.Prompt{}).
		Where(h.db.Where("user_id = ?", userID).Or("is_public = ?", true)).
		Count(&totalPrompts)

	visibleConversations := h.db.Model(&models.Conversation{}).
		Select("id").
		Where("user_id = ? AND status <> ?", userID, models.ConversationStatusDeleted)
	h.db.Model(&models.Message{}).
		Where("conversation_id IN (?)", visibleConversations).
		Count(&totalMessages)

	startOfDay := time.Now().Truncate(24 * time.Hour)
	h.db.Model(&models.PromptUsage{}).
		Where("user_id = ? AND used_at >= ?", userID, startOfDay).
		Count(&promptsUsedToday)

	weekAgo := time.Now().AddDate(0, 0, -7)
	h.db.Model(&models.Conversation{}).
		Where("user_id = ? AND created_at >= ?", userID, weekAgo).
		Count(&conversationsThisWeek)

	var recentConversations []models.Conversation
	h.db.Where("user_id = ? AND status <> ?", userID, models.ConversationStatusDeleted).
		Order("updated_at DESC").
		Limit(5).
		Find(&recentConversations)

	var popularPrompts []models.Prompt
	h.db.Where(h.db.Where("user_id = ?", userID).Or("is_public = ?", true)).
		Preload("Category").
		Order("usage_count DESC").
		Limit(5).
		Find(&popularPrompts)

	return c.JSON(fiber.Map{
		"stats": fiber.Map{
			"total_conversations":             totalConversations,
			"active_conversations":            activeConversations,
			"total_prompts":                   totalPrompts,
			"total_messages":                  totalMessages,
			"prompts_used_today":              promptsUsedToday,
			"conversations_created_this_week": conversationsThisWeek,
		},
		"recent_conversations": recentConversations,
		"popular_prompts":      popularPrompts,
	})
}
