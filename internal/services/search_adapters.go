package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zuma-code/chat-and-prompt-management/internal/models"
)

// Entity search adapters. Each returns the mapped page of results plus the
// provider-reported match count, taken before the orchestrator's global
// truncation.

func (s *SearchService) searchConversations(ctx context.Context, userID uuid.UUID, filters SearchFilters, limit, offset int) ([]SearchResult, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("user_id = ?", userID).
		Where("status <> ?", models.ConversationStatusDeleted)

	if filters.Query != "" {
		pattern := likePattern(filters.Query)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if len(filters.Tags) > 0 {
		q = q.Where(tagOverlap(s.db, "tags", filters.Tags))
	}
	if len(filters.Status) > 0 {
		q = q.Where("status IN ?", filters.Status)
	}
	q = applyDateRange(q, filters.DateRange)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var conversations []models.Conversation
	if err := q.Offset(offset).Limit(limit).Find(&conversations).Error; err != nil {
		return nil, 0, err
	}

	results := make([]SearchResult, 0, len(conversations))
	for _, conv := range conversations {
		excerpt := conv.Description
		if excerpt == "" {
			excerpt = conv.Title
		}
		results = append(results, SearchResult{
			ID:      conv.ID,
			Type:    "conversation",
			Title:   conv.Title,
			Content: conv.Description,
			Excerpt: truncateText(excerpt, 150),
			Metadata: ConversationMeta{
				Status:   conv.Status,
				Tags:     []string(conv.Tags),
				IsPinned: conv.IsPinned,
			},
			Score:     CalculateRelevanceScore(conv.Title+" "+conv.Description, filters.Query),
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
		})
	}
	return results, total, nil
}

func (s *SearchService) searchPrompts(ctx context.Context, userID uuid.UUID, filters SearchFilters, limit, offset int) ([]SearchResult, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Prompt{}).
		Where(s.db.Where("user_id = ?", userID).Or("is_public = ?", true))

	if filters.Query != "" {
		pattern := likePattern(filters.Query)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(content) LIKE ?",
			pattern, pattern, pattern)
	}
	if len(filters.Tags) > 0 {
		q = q.Where(tagOverlap(s.db, "tags", filters.Tags))
	}
	if len(filters.Categories) > 0 {
		q = q.Where("category_id IN ?", filters.Categories)
	}
	switch filters.Visibility {
	case "public":
		q = q.Where("is_public = ?", true)
	case "private":
		q = q.Where("is_public = ? AND user_id = ?", false, userID)
	}
	q = applyDateRange(q, filters.DateRange)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var prompts []models.Prompt
	if err := q.Preload("Category").Offset(offset).Limit(limit).Find(&prompts).Error; err != nil {
		return nil, 0, err
	}

	results := make([]SearchResult, 0, len(prompts))
	for _, prompt := range prompts {
		excerpt := prompt.Description
		if excerpt == "" {
			excerpt = prompt.Content
		}
		var category *CategoryMeta
		if prompt.Category != nil {
			category = &CategoryMeta{
				ID:    prompt.Category.ID,
				Name:  prompt.Category.Name,
				Color: prompt.Category.Color,
			}
		}
		results = append(results, SearchResult{
			ID:      prompt.ID,
			Type:    "prompt",
			Title:   prompt.Title,
			Content: prompt.Content,
			Excerpt: truncateText(excerpt, 150),
			Metadata: PromptMeta{
				Category:   category,
				Tags:       []string(prompt.Tags),
				IsPublic:   prompt.IsPublic,
				UsageCount: prompt.UsageCount,
			},
			Score:     CalculateRelevanceScore(prompt.Title+" "+prompt.Description+" "+prompt.Content, filters.Query),
			CreatedAt: prompt.CreatedAt,
			UpdatedAt: prompt.UpdatedAt,
		})
	}
	return results, total, nil
}

func (s *SearchService) searchMessages(ctx context.Context, userID uuid.UUID, filters SearchFilters, limit, offset int) ([]SearchResult, int64, error) {
	// Messages are only reachable through the caller's non-deleted
	// conversations, so resolve that set first.
	var conversations []models.Conversation
	if err := s.db.WithContext(ctx).
		Select("id", "title").
		Where("user_id = ? AND status <> ?", userID, models.ConversationStatusDeleted).
		Find(&conversations).Error; err != nil {
		return nil, 0, err
	}
	if len(conversations) == 0 {
		return []SearchResult{}, 0, nil
	}

	conversationIDs := make([]uuid.UUID, 0, len(conversations))
	titleByID := make(map[uuid.UUID]string, len(conversations))
	for _, conv := range conversations {
		conversationIDs = append(conversationIDs, conv.ID)
		titleByID[conv.ID] = conv.Title
	}

	q := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id IN ?", conversationIDs)

	if filters.Query != "" {
		q = q.Where("LOWER(content) LIKE ?", likePattern(filters.Query))
	}
	q = applyDateRange(q, filters.DateRange)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []models.Message
	if err := q.Offset(offset).Limit(limit).Find(&messages).Error; err != nil {
		return nil, 0, err
	}

	results := make([]SearchResult, 0, len(messages))
	for _, msg := range messages {
		title := titleByID[msg.ConversationID]
		if title == "" {
			title = "Untitled"
		}
		results = append(results, SearchResult{
			ID:      msg.ID,
			Type:    "message",
			Title:   `Message in "` + title + `"`,
			Content: msg.Content,
			Excerpt: truncateText(msg.Content, 150),
			Metadata: MessageMeta{
				Role:              msg.Role,
				ConversationID:    msg.ConversationID,
				ConversationTitle: titleByID[msg.ConversationID],
			},
			Score:     CalculateRelevanceScore(msg.Content, filters.Query),
			CreatedAt: msg.CreatedAt,
			UpdatedAt: msg.CreatedAt,
		})
	}
	return results, total, nil
}

func likePattern(query string) string {
	return "%" + strings.ToLower(query) + "%"
}

// tagOverlap matches rows whose JSON tag array shares at least one tag with
// the given set. The serialized-array LIKE works on both Postgres jsonb and
// the SQLite test databases.
func tagOverlap(db *gorm.DB, column string, tags []string) *gorm.DB {
	cond := db.Where("CAST("+column+" AS TEXT) LIKE ?", tagPattern(tags[0]))
	for _, tag := range tags[1:] {
		cond = cond.Or("CAST("+column+" AS TEXT) LIKE ?", tagPattern(tag))
	}
	return cond
}

func tagPattern(tag string) string {
	return `%"` + tag + `"%`
}

// applyDateRange bounds created_at inclusively on both ends.
func applyDateRange(q *gorm.DB, dr *DateRange) *gorm.DB {
	if dr == nil {
		return q
	}
	return q.Where("created_at >= ? AND created_at <= ?", dr.From, dr.To)
}
