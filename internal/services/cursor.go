package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/zuma-code/chat-and-prompt-management/internal/models"
)

// ExportFormatVersion is the interchange document version this codec
// produces and understands.
const ExportFormatVersion = "1.0"

type CursorExportFormat struct {
	Version       string                 `json:"version"`
	ExportedAt    time.Time              `json:"exported_at"`
	Conversations []ExportedConversation `json:"conversations"`
	Prompts       []ExportedPrompt       `json:"prompts"`
}

type ExportedConversation struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Messages    []ExportedMessage `json:"messages"`
	Tags        []string          `json:"tags"`
	CreatedAt   time.Time         `json:"created_at"`
}

type ExportedMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ExportedPrompt struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags"`
	UsageCount  int64     `json:"usage_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// CursorImportData is the subset of the export format accepted on import.
// Missing top-level keys mean "import nothing of that kind".
type CursorImportData struct {
	Conversations []ImportConversation `json:"conversations,omitempty"`
	Prompts       []ImportPrompt       `json:"prompts,omitempty"`
}

type ImportConversation struct {
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Messages    []ImportMessage `json:"messages"`
	Tags        []string        `json:"tags,omitempty"`
}

type ImportMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type ImportPrompt struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type ImportResult struct {
	Conversations int      `json:"conversations"`
	Prompts       int      `json:"prompts"`
	Errors        []string `json:"errors"`
}

type SyncResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type CursorService struct {
	db     *gorm.DB
	appURL string
}

func NewCursorService(db *gorm.DB, appURL string) *CursorService {
	return &CursorService{db: db, appURL: appURL}
}

// Export serializes the user's full corpus: non-deleted conversations with
// their messages in chronological order, and owned prompts with the
// category denormalized to its name.
func (s *CursorService) Export(ctx context.Context, userID uuid.UUID) (*CursorExportFormat, error) {
	var conversations []models.Conversation
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, models.ConversationStatusDeleted).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("created_at DESC").
		Find(&conversations).Error; err != nil {
		return nil, err
	}

	var prompts []models.Prompt
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Category").
		Order("created_at DESC").
		Find(&prompts).Error; err != nil {
		return nil, err
	}

	doc := &CursorExportFormat{
		Version:       ExportFormatVersion,
		ExportedAt:    time.Now().UTC(),
		Conversations: make([]ExportedConversation, 0, len(conversations)),
		Prompts:       make([]ExportedPrompt, 0, len(prompts)),
	}

	for _, conv := range conversations {
		messages := make([]ExportedMessage, 0, len(conv.Messages))
		for _, msg := range conv.Messages {
			messages = append(messages, ExportedMessage{
				Role:      msg.Role,
				Content:   msg.Content,
				Timestamp: msg.CreatedAt,
			})
		}
		doc.Conversations = append(doc.Conversations, ExportedConversation{
			ID:          conv.ID,
			Title:       conv.Title,
			Description: conv.Description,
			Messages:    messages,
			Tags:        []string(conv.Tags),
			CreatedAt:   conv.CreatedAt,
		})
	}

	for _, prompt := range prompts {
		var categoryName string
		if prompt.Category != nil {
			categoryName = prompt.Category.Name
		}
		doc.Prompts = append(doc.Prompts, ExportedPrompt{
			ID:          prompt.ID,
			Title:       prompt.Title,
			Content:     prompt.Content,
			Description: prompt.Description,
			Category:    categoryName,
			Tags:        []string(prompt.Tags),
			UsageCount:  prompt.UsageCount,
			CreatedAt:   prompt.CreatedAt,
		})
	}

	return doc, nil
}

// Import creates records for each entry in the document, owned by userID.
// Records are processed sequentially so the errors list stays in document
// order; a failed record is reported and skipped, never rolled back.
func (s *CursorService) Import(ctx context.Context, userID uuid.UUID, data CursorImportData) *ImportResult {
	result := &ImportResult{Errors: []string{}}

	for _, convData := range data.Conversations {
		conversation := models.Conversation{
			UserID:      userID,
			Title:       convData.Title,
			Description: convData.Description,
			Tags:        datatypes.NewJSONSlice(sliceOrEmpty(convData.Tags)),
		}
		if err := s.db.WithContext(ctx).Create(&conversation).Error; err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Failed to import conversation %q: %v", convData.Title, err))
			continue
		}

		if len(convData.Messages) > 0 {
			messages := make([]models.Message, 0, len(convData.Messages))
			for _, msgData := range convData.Messages {
				createdAt := time.Now()
				if msgData.Timestamp != nil {
					createdAt = *msgData.Timestamp
				}
				messages = append(messages, models.Message{
					ConversationID: conversation.ID,
					Role:           msgData.Role,
					Content:        msgData.Content,
					CreatedAt:      createdAt,
				})
			}
			// The conversation row already exists, so a message batch
			// failure is reported without decrementing the counter.
			if err := s.db.WithContext(ctx).Create(&messages).Error; err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("Failed to import messages for %q: %v", convData.Title, err))
			}
		}

		result.Conversations++
	}

	if len(data.Prompts) > 0 {
		categoryIDByName, err := s.loadCategoryMap(ctx)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Failed to load prompt categories: %v", err))
			categoryIDByName = map[string]uuid.UUID{}
		}

		for _, promptData := range data.Prompts {
			var categoryID *uuid.UUID
			if promptData.Category != "" {
				// An unknown category name is not an error; the prompt is
				// imported without one.
				if id, ok := categoryIDByName[strings.ToLower(promptData.Category)]; ok {
					categoryID = &id
				}
			}

			prompt := models.Prompt{
				UserID:      &userID,
				CategoryID:  categoryID,
				Title:       promptData.Title,
				Content:     promptData.Content,
				Description: promptData.Description,
				Tags:        datatypes.NewJSONSlice(sliceOrEmpty(promptData.Tags)),
				IsPublic:    false, // imported prompts are private by policy
			}
			if err := s.db.WithContext(ctx).Create(&prompt).Error; err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("Failed to import prompt %q: %v", promptData.Title, err))
				continue
			}
			result.Prompts++
		}
	}

	return result
}

// Sync bundles an export with the matching workspace configuration.
func (s *CursorService) Sync(ctx context.Context, userID uuid.UUID) *SyncResult {
	doc, err := s.Export(ctx, userID)
	if err != nil {
		return &SyncResult{
			Success: false,
			Message: fmt.Sprintf("Sync failed: %v", err),
		}
	}

	var prompts []models.Prompt
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Category").
		Order("created_at DESC").
		Find(&prompts).Error; err != nil {
		return &SyncResult{
			Success: false,
			Message: fmt.Sprintf("Sync failed: %v", err),
		}
	}

	return &SyncResult{
		Success: true,
		Message: "Sync data prepared successfully",
		Data: map[string]interface{}{
			"export": doc,
			"config": s.WorkspaceConfig(prompts),
		},
	}
}

func (s *CursorService) loadCategoryMap(ctx context.Context) (map[string]uuid.UUID, error) {
	var categories []models.PromptCategory
	if err := s.db.WithContext(ctx).Find(&categories).Error; err != nil {
		return nil, err
	}
	byName := make(map[string]uuid.UUID, len(categories))
	for _, cat := range categories {
		byName[strings.ToLower(cat.Name)] = cat.ID
	}
	return byName, nil
}

func sliceOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
